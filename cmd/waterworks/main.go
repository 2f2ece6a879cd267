package main

import (
	"github.com/aquilabs/waterworks/internal/clock"
	"github.com/aquilabs/waterworks/internal/config"
	"github.com/aquilabs/waterworks/internal/logger"
	"github.com/aquilabs/waterworks/internal/migration"
	"github.com/aquilabs/waterworks/internal/observability"
	"github.com/aquilabs/waterworks/internal/server"
	"github.com/aquilabs/waterworks/pkg/db"
	"github.com/bwmarrin/snowflake"
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
