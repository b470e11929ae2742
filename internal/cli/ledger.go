package cli

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"vodkeeper/internal/db"
)

// Run records one tool invocation in the ledger. A nil *Run, or one
// whose ledger could not be opened, is a no-op.
type Run struct {
	db     *db.DB
	run    *db.Run
	logger *zap.Logger
}

// OpenLedger opens the configured ledger, or returns nil when it is
// disabled.
func (a *App) OpenLedger() (*db.DB, error) {
	if a.Config.LedgerPath == "" {
		return nil, nil
	}
	return db.NewDB(a.Config.LedgerPath)
}

// BeginRun opens the ledger and starts a run for tool. Ledger failures are
// logged and never stop the tool.
func (a *App) BeginRun(ctx context.Context, tool string, params any) *Run {
	r := &Run{logger: a.Logger}
	ledger, err := a.OpenLedger()
	if err != nil {
		a.Logger.Warn("run ledger unavailable", zap.Error(err))
		return r
	}
	if ledger == nil {
		return r
	}

	var encoded string
	if params != nil {
		if b, err := json.Marshal(params); err == nil {
			encoded = string(b)
		}
	}
	run, err := ledger.StartRun(ctx, tool, encoded)
	if err != nil {
		a.Logger.Warn("failed to record run", zap.Error(err))
		ledger.Close()
		return r
	}
	a.Logger.Debug("run started", zap.String("run_id", run.ID), zap.String("tool", tool))
	r.db = ledger
	r.run = run
	return r
}

// ID returns the run ID, or "" when nothing is recorded.
func (r *Run) ID() string {
	if r == nil || r.run == nil {
		return ""
	}
	return r.run.ID
}

// RecordUpload stores an upload attempt under this run.
func (r *Run) RecordUpload(ctx context.Context, u *db.Upload) error {
	if r == nil || r.db == nil {
		return nil
	}
	u.RunID = r.run.ID
	return r.db.RecordUpload(ctx, u)
}

// Finish completes or fails the run and closes the ledger.
func (r *Run) Finish(ctx context.Context, counts db.Counts, runErr error) {
	if r == nil || r.db == nil {
		return
	}
	defer r.db.Close()

	// The command context is cancelled after an interrupt.
	ctx = context.WithoutCancel(ctx)
	var err error
	if runErr != nil {
		err = r.db.FailRun(ctx, r.run.ID, counts, runErr.Error())
	} else {
		err = r.db.CompleteRun(ctx, r.run.ID, counts)
	}
	if err != nil {
		r.logger.Warn("failed to finish run", zap.String("run_id", r.run.ID), zap.Error(err))
	}
}
