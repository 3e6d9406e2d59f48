package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/rareminds/skillpassport-billing/internal/catalog"
	"github.com/rareminds/skillpassport-billing/internal/clock"
	"github.com/rareminds/skillpassport-billing/internal/config"
	"github.com/rareminds/skillpassport-billing/internal/entitlement"
	"github.com/rareminds/skillpassport-billing/internal/lifecycle"
	"github.com/rareminds/skillpassport-billing/internal/logger"
	"github.com/rareminds/skillpassport-billing/internal/notification"
	"github.com/rareminds/skillpassport-billing/internal/observability"
	"github.com/rareminds/skillpassport-billing/internal/payment"
	"github.com/rareminds/skillpassport-billing/internal/redislock"
	"github.com/rareminds/skillpassport-billing/internal/subscription"
	"github.com/rareminds/skillpassport-billing/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Domain services required by the lifecycle jobs.
		catalog.Module,
		entitlement.Module,
		subscription.Module,
		payment.Module,
		notification.Module,
		redislock.Module,
		lifecycle.Module,

		// No server module.
		fx.Invoke(lifecycle.RunLoop),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
