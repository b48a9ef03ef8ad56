package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

//SQLiteStore keeps the runs in a SQLite database.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (S *SQLiteStore) Init(ctx context.Context) error {
	S.mu.Lock()
	defer S.mu.Unlock()
	if S.path == "" {
		return errors.New("sqlite path is required")
	}
	if S.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", S.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	S.db = db
	return nil
}

func (S *SQLiteStore) Close() error {
	S.mu.Lock()
	defer S.mu.Unlock()
	if S.db == nil {
		return nil
	}
	err := S.db.Close()
	S.db = nil
	return err
}

func (S *SQLiteStore) getDB() (*sql.DB, error) {
	S.mu.RLock()
	defer S.mu.RUnlock()
	if S.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return S.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started INTEGER NOT NULL,
			replicas INTEGER NOT NULL,
			rounds INTEGER NOT NULL,
			ladder TEXT NOT NULL,
			acceptance TEXT NOT NULL,
			best TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS records (
			run_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			replica INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			kt REAL NOT NULL,
			score TEXT NOT NULL,
			groups_ TEXT NOT NULL,
			accepted INTEGER NOT NULL,
			PRIMARY KEY (run_id, round, replica)
		);
	`)
	return err
}

//floats are stored as text so NaN and the infinities survive.
func encodeFloats(f []float64) string {
	s := make([]string, len(f))
	for i, v := range f {
		s[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(s, " ")
}

func decodeFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	ret := make([]float64, len(fields))
	for i, v := range fields {
		var err error
		ret[i], err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func (S *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	db, err := S.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, started, replicas, rounds, ladder, acceptance, best)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started = excluded.started,
			replicas = excluded.replicas,
			rounds = excluded.rounds,
			ladder = excluded.ladder,
			acceptance = excluded.acceptance,
			best = excluded.best
	`, run.ID, run.Started.UnixNano(), run.Replicas, run.Rounds, encodeFloats(run.Ladder),
		encodeFloats(run.Acceptance), encodeFloats([]float64{run.BestScore}))
	return err
}

func (S *SQLiteStore) GetRun(ctx context.Context, id string) (Run, bool, error) {
	db, err := S.getDB()
	if err != nil {
		return Run{}, false, err
	}
	var started int64
	var ladder, acceptance, best string
	run := Run{ID: id}
	err = db.QueryRowContext(ctx, `SELECT started, replicas, rounds, ladder, acceptance, best FROM runs WHERE id = ?`, id).
		Scan(&started, &run.Replicas, &run.Rounds, &ladder, &acceptance, &best)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, err
	}
	run.Started = time.Unix(0, started)
	if run.Ladder, err = decodeFloats(ladder); err != nil {
		return Run{}, false, fmt.Errorf("decode ladder of run %s: %w", id, err)
	}
	if run.Acceptance, err = decodeFloats(acceptance); err != nil {
		return Run{}, false, fmt.Errorf("decode acceptance of run %s: %w", id, err)
	}
	b, err := decodeFloats(best)
	if err != nil || len(b) != 1 {
		return Run{}, false, fmt.Errorf("decode best score of run %s: %q", id, best)
	}
	run.BestScore = b[0]
	return run, true, nil
}

//SaveRecords inserts the records in one transaction. A record for a round
//and replica already stored replaces the old one.
func (S *SQLiteStore) SaveRecords(ctx context.Context, runID string, records []Record) error {
	db, err := S.getDB()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO records (run_id, round, replica, idx, kt, score, groups_, accepted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, r := range records {
		acc := 0
		if r.Accepted {
			acc = 1
		}
		if _, err := stmt.ExecContext(ctx, runID, r.Round, r.Replica, r.Index, r.KT,
			encodeFloats([]float64{r.Score}), encodeFloats(r.Groups), acc); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (S *SQLiteStore) GetRecords(ctx context.Context, runID string) ([]Record, bool, error) {
	db, err := S.getDB()
	if err != nil {
		return nil, false, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT round, replica, idx, kt, score, groups_, accepted FROM records
		WHERE run_id = ? ORDER BY round, replica
	`, runID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	var ret []Record
	for rows.Next() {
		var r Record
		var score, groups string
		var acc int
		if err := rows.Scan(&r.Round, &r.Replica, &r.Index, &r.KT, &score, &groups, &acc); err != nil {
			return nil, false, err
		}
		s, err := decodeFloats(score)
		if err != nil || len(s) != 1 {
			return nil, false, fmt.Errorf("decode score of run %s round %d: %q", runID, r.Round, score)
		}
		r.Score = s[0]
		if r.Groups, err = decodeFloats(groups); err != nil {
			return nil, false, fmt.Errorf("decode groups of run %s round %d: %w", runID, r.Round, err)
		}
		r.Accepted = acc == 1
		ret = append(ret, r)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if len(ret) == 0 {
		return nil, false, nil
	}
	return ret, true, nil
}
