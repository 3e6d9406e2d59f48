package notification

import (
	"github.com/rareminds/skillpassport-billing/internal/notification/email"
	"go.uber.org/fx"
)

var Module = fx.Module("notification",
	fx.Provide(email.ProvideConfig),
	fx.Provide(email.New),
)
