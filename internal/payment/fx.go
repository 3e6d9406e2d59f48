package payment

import (
	"github.com/rareminds/skillpassport-billing/internal/payment/domain"
	"github.com/rareminds/skillpassport-billing/internal/payment/razorpay"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.gateway",
	fx.Provide(razorpay.ProvideConfig),
	fx.Provide(razorpay.New),
	fx.Provide(func(g *razorpay.Gateway) domain.Gateway { return g }),
)
