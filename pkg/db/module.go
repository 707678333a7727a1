package db

import (
	"fmt"

	"github.com/atmodecor/tally/internal/config"
	sessiondomain "github.com/atmodecor/tally/internal/session/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("db",
	fx.Provide(New),
)

type Param struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

// New opens the configured database and migrates the schema.
func New(p Param) (*gorm.DB, error) {
	dialect, err := Dialect(p.Config)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialect, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := conn.AutoMigrate(
		&sessiondomain.Session{},
		&sessiondomain.Order{},
		&sessiondomain.Archive{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	p.Log.Info("database ready", zap.String("type", p.Config.DBType))
	return conn, nil
}
