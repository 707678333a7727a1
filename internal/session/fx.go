package session

import (
	"github.com/atmodecor/tally/internal/session/repository"
	"github.com/atmodecor/tally/internal/session/service"
	"go.uber.org/fx"
)

var Module = fx.Module("session.service",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
