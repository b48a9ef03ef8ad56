//Package store keeps the records of replica-exchange runs: one row per
//replica and exchange round, plus a summary of each run. There is an
//in-memory backend and a SQLite one.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

//Record is the state of one replica after one exchange round.
type Record struct {
	Round    int
	Replica  int
	Index    int //temperature index held during the round
	KT       float64
	Score    float64
	Groups   []float64
	Accepted bool //whether the swap attempted at the end of the round was accepted
}

//Run summarizes a replica-exchange run.
type Run struct {
	ID         string
	Started    time.Time
	Replicas   int
	Rounds     int
	Ladder     []float64
	Acceptance []float64 //swap acceptance ratio per pair of neighboring indexes
	BestScore  float64
}

//Store persists runs and their records.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	SaveRecords(ctx context.Context, runID string, records []Record) error
	GetRecords(ctx context.Context, runID string) ([]Record, bool, error)
}

//NewRunID returns a new random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

//NewStore returns a store of the given kind: "" or "memory" for the in-memory
//one and "sqlite" for a SQLite database in sqlitePath. The store is not initialized.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

//CloseIfSupported closes the store if it has a Close method.
func CloseIfSupported(s Store) error {
	closer, ok := s.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}

func copyRecords(r []Record) []Record {
	ret := make([]Record, len(r))
	for i, v := range r {
		ret[i] = v
		ret[i].Groups = append([]float64(nil), v.Groups...)
	}
	return ret
}

func copyRun(r Run) Run {
	r.Ladder = append([]float64(nil), r.Ladder...)
	r.Acceptance = append([]float64(nil), r.Acceptance...)
	return r
}
