package analyte

import (
	"github.com/kelplabs/pricebook/internal/analyte/repository"
	"github.com/kelplabs/pricebook/internal/analyte/service"
	"go.uber.org/fx"
)

var Module = fx.Module("analyte.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
