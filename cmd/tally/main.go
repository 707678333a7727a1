package main

import (
	"github.com/atmodecor/tally/internal/clock"
	"github.com/atmodecor/tally/internal/commission"
	"github.com/atmodecor/tally/internal/config"
	"github.com/atmodecor/tally/internal/logger"
	"github.com/atmodecor/tally/internal/observability"
	"github.com/atmodecor/tally/internal/server"
	"github.com/atmodecor/tally/internal/session"
	"github.com/atmodecor/tally/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Functional Domains
		commission.Module,
		session.Module,

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
