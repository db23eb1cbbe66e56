// AngelaMos | 2026
// env.go

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/bloghub/internal/config"
	"github.com/carterperez-dev/bloghub/internal/core"
)

// env is what every database command needs. Close releases it.
type env struct {
	cfg    *config.Config
	db     *core.Database
	logger *slog.Logger
}

func openEnv(cmd *cobra.Command) (*env, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		path = ""
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger := core.NewLogger(cfg.Log, os.Stderr)

	db, err := core.NewDatabase(cmd.Context(), cfg.Database)
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, db: db, logger: logger}, nil
}

func (e *env) Close() {
	if err := e.db.Close(); err != nil {
		e.logger.Error("database close error", "error", err)
	}
}
