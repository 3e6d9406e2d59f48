package entitlement

import (
	"github.com/rareminds/skillpassport-billing/internal/entitlement/repository"
	"github.com/rareminds/skillpassport-billing/internal/entitlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("entitlement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
