// Package factory constructs configured implementations of the service's
// storage dependencies.
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/callward/callward/internal/config"
	storepkg "github.com/callward/callward/internal/store"
	storepg "github.com/callward/callward/internal/store/postgres"
	storelite "github.com/callward/callward/internal/store/sqlite"
)

// NewStore returns a store.Store for the configured DB driver. The SQLite
// path applies its schema synchronously; Postgres opens synchronously (health
// checks need the connection) and runs its schema check in the background.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		db, err := storelite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return storelite.NewWithDB(db)

	case "postgres":
		dsn := cfg.PostgresDSN
		if dsn == "" {
			return nil, fmt.Errorf("CALLWARD_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		db, err := storepg.Open(dsn)
		if err != nil {
			return nil, err
		}

		go func() {
			schemaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := storepg.EnsureSchema(schemaCtx, db); err != nil {
				log.Warn().Err(err).Str("driver", cfg.DBDriver).Msg("store schema check failed")
			} else {
				log.Debug().Str("driver", cfg.DBDriver).Msg("store schema check completed")
			}
		}()
		return storepg.NewWithDB(db), nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
