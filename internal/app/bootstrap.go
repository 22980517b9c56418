package app

import (
	"context"
	"fmt"

	"nutrition-planner/internal/backup"
	"nutrition-planner/internal/config"
	"nutrition-planner/internal/database"
	"nutrition-planner/internal/llm"
	"nutrition-planner/internal/storage"

	"github.com/rs/zerolog/log"
)

// Bootstrap wires an App from configuration. The returned cleanup closes the
// database and the LLM client.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	textGen, err := llm.New(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	snapshots, err := storage.NewSnapshotStore(cfg.SnapshotDir)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if closer, ok := textGen.(llm.Closer); ok {
			if err := closer.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close LLM client")
			}
		}
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}

	log.Info().
		Str("db", cfg.DatabasePath).
		Str("llm", cfg.LLMProvider).
		Bool("cloud_backup", cfg.BackupURL != "").
		Msg("application initialized")

	return NewApp(cfg, db, textGen, snapshots, backup.NewClient(cfg)), cleanup, nil
}
