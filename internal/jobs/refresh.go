package jobs

import (
	"context"
	"errors"
	"time"

	"mindcast/internal/logging"
	"mindcast/internal/metrics"
	"mindcast/internal/pipeline"
	"mindcast/internal/store/scoredb"
)

// RefreshOnce re-scores every tracked account whose stored result has gone
// stale. The pipeline writes refreshed results back to the store itself.
func RefreshOnce(ctx context.Context, db *scoredb.DB, p *pipeline.Pipeline, freshness time.Duration) error {
	metrics.RefreshRuns.Inc()
	fids, err := db.FIDs(ctx)
	if err != nil {
		metrics.RefreshErrors.Inc()
		return err
	}
	now := time.Now().UTC()
	var refreshed, skipped int
	for _, fid := range fids {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry, ok, err := db.Get(ctx, fid)
		if err == nil && ok && pipeline.Fresh(entry.ComputedAt, now, freshness) {
			skipped++
			continue
		}
		if _, err := p.Score(ctx, fid, nil); err != nil {
			if errors.Is(err, pipeline.ErrNoContent) {
				logging.Warn("refresh_no_content", map[string]any{"fid": fid})
				continue
			}
			metrics.RefreshErrors.Inc()
			logging.Error("refresh_score_failed", map[string]any{"fid": fid, "error": err.Error()})
			continue
		}
		refreshed++
	}
	logging.Info("refresh_once", map[string]any{"tracked": len(fids), "refreshed": refreshed, "skipped": skipped})
	return nil
}

// RefreshLoop runs RefreshOnce on a ticker until ctx is cancelled.
func RefreshLoop(ctx context.Context, db *scoredb.DB, p *pipeline.Pipeline, freshness, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	// run immediately
	if err := RefreshOnce(ctx, db, p, freshness); err != nil {
		logging.Error("refresh_once_error", map[string]any{"error": err.Error()})
	}
	for {
		select {
		case <-ctx.Done():
			logging.Info("refresh_loop_stop", nil)
			return ctx.Err()
		case <-t.C:
			if err := RefreshOnce(ctx, db, p, freshness); err != nil {
				logging.Error("refresh_once_error", map[string]any{"error": err.Error()})
			}
		}
	}
}
