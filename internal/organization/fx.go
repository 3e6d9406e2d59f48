package organization

import (
	"github.com/rareminds/skillpassport-billing/internal/organization/repository"
	"github.com/rareminds/skillpassport-billing/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
