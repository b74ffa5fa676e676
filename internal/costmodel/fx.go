package costmodel

import (
	"github.com/kelplabs/pricebook/internal/costmodel/repository"
	"github.com/kelplabs/pricebook/internal/costmodel/service"
	"go.uber.org/fx"
)

var Module = fx.Module("costmodel.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
