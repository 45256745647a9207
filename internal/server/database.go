package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/doctext/internal/common"
	repo "github.com/joseph-ayodele/doctext/internal/repository"
)

// ConnectArchive opens the archive database named in cfg, creates its table
// and returns the archive together with the handle backing it.
func ConnectArchive(ctx context.Context, cfg common.ArchiveConfig, logger *slog.Logger) (*repo.JobArchive, *repo.DB, error) {
	config := repo.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		MaxConns:         10,
		MaxConnLifetime:  30 * time.Minute,
		MaxConnIdleTime:  5 * time.Minute,
		DialTimeout:      3 * time.Second,
		StatementTimeout: 10 * time.Second,
	}

	db, err := repo.Open(ctx, config, logger)
	if err != nil {
		logger.Error("failed to connect to archive database", "driver", cfg.Driver, "error", err)
		return nil, nil, err
	}
	archive := repo.NewJobArchive(db, logger)
	if err := archive.Migrate(ctx); err != nil {
		db.Close(logger)
		return nil, nil, err
	}
	return archive, db, nil
}

// PingDB pings the database to ensure it's responsive
func PingDB(ctx context.Context, db *repo.DB, logger *slog.Logger, timeout time.Duration) error {
	return repo.HealthCheck(ctx, db, timeout, logger)
}

// CloseDB closes the database connections gracefully
func CloseDB(db *repo.DB, logger *slog.Logger) {
	if db != nil {
		db.Close(logger)
	}
}
