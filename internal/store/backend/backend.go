// Package backend picks a store implementation from configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/fluxo-dev/fluxo/internal/config"
	"github.com/fluxo-dev/fluxo/internal/log"
	"github.com/fluxo-dev/fluxo/internal/store"
	"github.com/fluxo-dev/fluxo/internal/store/memory"
	"github.com/fluxo-dev/fluxo/internal/store/postgres"
	"github.com/fluxo-dev/fluxo/internal/store/sqlite"
)

// Open connects to the backend named in cfg.
func Open(ctx context.Context, cfg config.BackendConfig, logger *log.Logger) (store.Store, error) {
	switch cfg.Type {
	case config.BackendSQLite:
		return sqlite.Open(ctx, cfg.SQLitePath, logger)
	case config.BackendPostgres:
		return postgres.Open(ctx, cfg.PostgresURL, logger)
	case config.BackendMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Type)
	}
}
