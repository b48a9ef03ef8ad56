package store

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"
)

func testStore(Te *testing.T, s Store) {
	Te.Helper()
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		Te.Fatalf("init: %v", err)
	}
	defer CloseIfSupported(s)
	id := NewRunID()
	run := Run{ID: id, Started: time.Unix(100, 5), Replicas: 2, Rounds: 3, Ladder: []float64{1, 2},
		Acceptance: []float64{0.5}, BestScore: math.Inf(1)}
	if err := s.SaveRun(ctx, run); err != nil {
		Te.Fatalf("save run: %v", err)
	}
	got, ok, err := s.GetRun(ctx, id)
	if err != nil || !ok {
		Te.Fatalf("get run: %v %v", ok, err)
	}
	if !got.Started.Equal(run.Started) || got.Rounds != 3 || len(got.Ladder) != 2 || !math.IsInf(got.BestScore, 1) {
		Te.Errorf("unexpected run %+v", got)
	}
	var recs []Record
	for round := 0; round < 3; round++ {
		for rep := 0; rep < 2; rep++ {
			recs = append(recs, Record{Round: round, Replica: rep, Index: (round + rep) % 2, KT: 1,
				Score: float64(round*10 + rep), Groups: []float64{1, 2.5}, Accepted: rep == 0})
		}
	}
	if err := s.SaveRecords(ctx, id, recs[:2]); err != nil {
		Te.Fatalf("save records: %v", err)
	}
	if err := s.SaveRecords(ctx, id, recs[2:]); err != nil {
		Te.Fatalf("save records: %v", err)
	}
	out, ok, err := s.GetRecords(ctx, id)
	if err != nil || !ok {
		Te.Fatalf("get records: %v %v", ok, err)
	}
	if len(out) != len(recs) {
		Te.Fatalf("got %d records, expected %d", len(out), len(recs))
	}
	for i := range out {
		if out[i].Score != recs[i].Score || out[i].Index != recs[i].Index || out[i].Groups[1] != 2.5 || out[i].Accepted != recs[i].Accepted {
			Te.Errorf("record %d: got %+v expected %+v", i, out[i], recs[i])
		}
	}
	if _, ok, err := s.GetRecords(ctx, "missing"); ok || err != nil {
		Te.Errorf("records for a missing run: %v %v", ok, err)
	}
	fmt.Println("store", id, "records", len(out))
}

func TestMemoryStore(Te *testing.T) {
	testStore(Te, NewMemoryStore())
}

func TestSQLiteStore(Te *testing.T) {
	s, err := NewStore("sqlite", filepath.Join(Te.TempDir(), "runs.db"))
	if err != nil {
		Te.Fatal(err)
	}
	testStore(Te, s)
}

func TestNewStore(Te *testing.T) {
	if _, err := NewStore("unknown", ""); err == nil {
		Te.Error("expected unsupported store error")
	}
	if err := NewSQLiteStore("").Init(context.Background()); err == nil {
		Te.Error("expected an error for an empty sqlite path")
	}
	if err := NewMemoryStore().SaveRun(context.Background(), Run{}); err == nil {
		Te.Error("expected an error from an uninitialized store")
	}
}
