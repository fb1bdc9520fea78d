package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nikbrunner/bundles/internal/config"
	"github.com/nikbrunner/bundles/internal/logger"
)

// Open creates the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.Storage, log logger.Logger) (Backend, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileBackend(cfg.Path), nil

	case config.BackendSQLite:
		path := cfg.Path
		// A directory path gets the default database name.
		if !strings.HasSuffix(path, ".db") && !strings.HasSuffix(path, ".sqlite") {
			path = filepath.Join(path, "bundles.db")
		}
		return NewSQLiteBackend(path)

	case config.BackendRedis:
		return NewRedisBackend(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Logger:   log,
		})

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
