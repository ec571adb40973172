// Package di provides dependency injection for database connections.
package di

import (
	"fmt"
	"path/filepath"

	"github.com/algotrade/tradecal/internal/config"
	"github.com/algotrade/tradecal/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens both databases and applies their schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// 1. cache.db - NSE feed payloads, safe to delete
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	container.CacheDB = cacheDB

	// 2. reports.db - report delivery history
	reportsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "reports.db"),
		Profile: database.ProfileStandard,
		Name:    "reports",
	})
	if err != nil {
		cacheDB.Close()
		return nil, fmt.Errorf("failed to initialize reports database: %w", err)
	}
	container.ReportsDB = reportsDB

	for _, db := range []*database.DB{cacheDB, reportsDB} {
		if err := db.Migrate(); err != nil {
			cacheDB.Close()
			reportsDB.Close()
			return nil, fmt.Errorf("failed to apply schema for %s: %w", db.Name(), err)
		}
	}

	log.Info().Str("data_dir", cfg.DataDir).Msg("Databases initialized")
	return container, nil
}
