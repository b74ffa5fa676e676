package kit

import (
	"github.com/kelplabs/pricebook/internal/kit/repository"
	"github.com/kelplabs/pricebook/internal/kit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("kit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
