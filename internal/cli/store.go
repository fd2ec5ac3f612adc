package cli

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/go-sleep-tracker/internal/config"
	"github.com/tbourn/go-sleep-tracker/internal/observability"
	"github.com/tbourn/go-sleep-tracker/internal/repo"
	"github.com/tbourn/go-sleep-tracker/internal/storage"
)

// openStore opens the SQLite file, attaches tracing when tel is enabled and
// makes sure the schema exists. The caller closes the returned *gorm.DB.
func openStore(ctx context.Context, cfg config.Config, tel *observability.Telemetry) (*storage.Engine, *gorm.DB, error) {
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", cfg.DBPath, err)
	}
	if err := tel.InstrumentDB(db); err != nil {
		closeDB(db)
		return nil, nil, fmt.Errorf("instrument db: %w", err)
	}

	eng := storage.New(db, storage.WithLocation(cfg.Location))
	if err := eng.EnsureSchema(ctx); err != nil {
		closeDB(db)
		return nil, nil, err
	}
	return eng, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
