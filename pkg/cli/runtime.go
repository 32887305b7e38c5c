package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/feralworks/trapper-engine/pkg/config"
	"github.com/feralworks/trapper-engine/pkg/database"
	"github.com/feralworks/trapper-engine/pkg/logging"
)

// runtime is everything a command needs once configuration is loaded and the
// database is reachable. In dry-run mode every statement runs on a single
// transaction that close() rolls back, so the full import executes and
// reports real numbers without persisting a single row.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB
	q      database.Querier
	caps   database.Capabilities

	tx     pgx.Tx
	dryRun bool
}

func openRuntime(ctx context.Context, version string, dryRun bool) (*runtime, error) {
	cfg, err := config.Load(version)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Env, flagVerbose)
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		return nil, fmt.Errorf("database unreachable (%s): %w",
			logging.SanitizeConnectionString(cfg.Database.ConnectionString()), err)
	}

	rt := &runtime{cfg: cfg, logger: logger, db: db, dryRun: dryRun}
	rt.q = db.Pool

	if dryRun {
		tx, err := db.Pool.Begin(ctx)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to begin dry-run transaction: %w", err)
		}
		rt.tx = tx
		rt.q = tx
		logger.Info("dry-run: all changes will be rolled back")
	}

	// Probed once per run and threaded through; services never introspect
	// the schema themselves.
	caps, err := database.DetectCapabilities(ctx, rt.q)
	if err != nil {
		rt.close(ctx)
		return nil, err
	}
	rt.caps = caps

	return rt, nil
}

func (rt *runtime) close(ctx context.Context) {
	if rt.tx != nil {
		if err := rt.tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
			rt.logger.Warn("dry-run rollback failed", zap.Error(err))
		}
	}
	rt.db.Close()
	_ = rt.logger.Sync()
}
