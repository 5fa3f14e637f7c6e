package scoredb

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"mindcast/internal/model"
)

// DB wraps a SQLite database used as the score cache and leaderboard.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS scores (
	  fid INTEGER PRIMARY KEY,
	  username TEXT,
	  score INTEGER NOT NULL,
	  analysis TEXT NOT NULL,
	  confidence INTEGER NOT NULL,
	  source TEXT NOT NULL,
	  computed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_scores_score ON scores(score DESC);
	`)
	return err
}

// Get returns the stored result for a fid, if any. Freshness is the
// pipeline's call, not the store's.
func (d *DB) Get(ctx context.Context, fid int64) (model.ScoreResult, bool, error) {
	var res model.ScoreResult
	row := d.sql.QueryRowContext(ctx,
		`SELECT fid, score, analysis, confidence, source, computed_at FROM scores WHERE fid=?`, fid)
	var computedAt int64
	var source string
	if err := row.Scan(&res.FID, &res.Score, &res.Analysis, &res.Confidence, &source, &computedAt); err != nil {
		if err == sql.ErrNoRows {
			return res, false, nil
		}
		return res, false, err
	}
	res.Source = model.Source(source)
	res.ComputedAt = time.Unix(computedAt, 0).UTC()
	return res, true, nil
}

// Put upserts a result, preserving any stored username.
func (d *DB) Put(ctx context.Context, res model.ScoreResult) error {
	_, err := d.sql.ExecContext(ctx, `
	INSERT INTO scores(fid, score, analysis, confidence, source, computed_at) VALUES(?,?,?,?,?,?)
	ON CONFLICT(fid) DO UPDATE SET
	  score=excluded.score, analysis=excluded.analysis, confidence=excluded.confidence,
	  source=excluded.source, computed_at=excluded.computed_at`,
		res.FID, res.Score, res.Analysis, res.Confidence, string(res.Source), res.ComputedAt.Unix())
	return err
}

// SetUsername records the display handle shown on the leaderboard.
func (d *DB) SetUsername(ctx context.Context, fid int64, username string) error {
	_, err := d.sql.ExecContext(ctx, `UPDATE scores SET username=? WHERE fid=?`, username, fid)
	return err
}

// Entry is one leaderboard row.
type Entry struct {
	FID        int64
	Username   string
	Score      int
	Confidence int
	Source     model.Source
	ComputedAt time.Time
}

// Leaderboard returns the top stored scores, highest first.
func (d *DB) Leaderboard(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.sql.QueryContext(ctx, `
	SELECT fid, COALESCE(username, ''), score, confidence, source, computed_at
	FROM scores ORDER BY score DESC, computed_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var source string
		var computedAt int64
		if err := rows.Scan(&e.FID, &e.Username, &e.Score, &e.Confidence, &source, &computedAt); err != nil {
			return nil, err
		}
		e.Source = model.Source(source)
		e.ComputedAt = time.Unix(computedAt, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// FIDs returns every tracked fid, for the refresh job.
func (d *DB) FIDs(ctx context.Context) ([]int64, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT fid FROM scores ORDER BY fid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var fid int64
		if err := rows.Scan(&fid); err != nil {
			return nil, err
		}
		out = append(out, fid)
	}
	return out, rows.Err()
}
