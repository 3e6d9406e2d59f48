package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/rareminds/skillpassport-billing/internal/clock"
	"github.com/rareminds/skillpassport-billing/internal/config"
	"github.com/rareminds/skillpassport-billing/internal/logger"
	"github.com/rareminds/skillpassport-billing/internal/migration"
	"github.com/rareminds/skillpassport-billing/internal/observability"
	"github.com/rareminds/skillpassport-billing/internal/server"
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
		migration.Module,

		server.Module,
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
