package order

import (
	"github.com/rareminds/skillpassport-billing/internal/order/repository"
	"github.com/rareminds/skillpassport-billing/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
