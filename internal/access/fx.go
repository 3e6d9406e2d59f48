package access

import (
	"github.com/rareminds/skillpassport-billing/internal/access/service"
	"go.uber.org/fx"
)

var Module = fx.Module("access.service",
	fx.Provide(service.ProvideConfig),
	fx.Provide(service.New),
)
