package audit

import (
	"github.com/kelplabs/pricebook/internal/audit/repository"
	"github.com/kelplabs/pricebook/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
