package store

import (
	"context"
	"errors"
	"sync"
)

//MemoryStore keeps everything in maps. It is safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]Run
	records     map[string][]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (S *MemoryStore) Init(_ context.Context) error {
	S.mu.Lock()
	defer S.mu.Unlock()
	S.initialized = true
	S.runs = make(map[string]Run)
	S.records = make(map[string][]Record)
	return nil
}

func (S *MemoryStore) check() error {
	if !S.initialized {
		return errors.New("store is not initialized")
	}
	return nil
}

func (S *MemoryStore) SaveRun(_ context.Context, run Run) error {
	S.mu.Lock()
	defer S.mu.Unlock()
	if err := S.check(); err != nil {
		return err
	}
	S.runs[run.ID] = copyRun(run)
	return nil
}

func (S *MemoryStore) GetRun(_ context.Context, id string) (Run, bool, error) {
	S.mu.RLock()
	defer S.mu.RUnlock()
	if err := S.check(); err != nil {
		return Run{}, false, err
	}
	run, ok := S.runs[id]
	if !ok {
		return Run{}, false, nil
	}
	return copyRun(run), true, nil
}

//SaveRecords appends records to the ones already stored for the run.
func (S *MemoryStore) SaveRecords(_ context.Context, runID string, records []Record) error {
	S.mu.Lock()
	defer S.mu.Unlock()
	if err := S.check(); err != nil {
		return err
	}
	S.records[runID] = append(S.records[runID], copyRecords(records)...)
	return nil
}

func (S *MemoryStore) GetRecords(_ context.Context, runID string) ([]Record, bool, error) {
	S.mu.RLock()
	defer S.mu.RUnlock()
	if err := S.check(); err != nil {
		return nil, false, err
	}
	r, ok := S.records[runID]
	if !ok {
		return nil, false, nil
	}
	return copyRecords(r), true, nil
}
