package usage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"mercator-hq/switchboard/pkg/config"
)

// blockingStore blocks every Store call until released.
type blockingStore struct {
	*MemoryStore
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func newBlockingStore() *blockingStore {
	return &blockingStore{
		MemoryStore: NewMemoryStore(0),
		release:     make(chan struct{}),
		started:     make(chan struct{}),
	}
}

func (s *blockingStore) Store(ctx context.Context, record *Record) error {
	s.once.Do(func() { close(s.started) })
	<-s.release
	return s.MemoryStore.Store(ctx, record)
}

type failingStore struct {
	*MemoryStore
}

func (failingStore) Store(ctx context.Context, record *Record) error {
	return errors.New("disk full")
}

func TestRecorder_CloseDrains(t *testing.T) {
	store := NewMemoryStore(0)
	r := NewRecorder(store, RecorderConfig{BufferSize: 100})

	for i := 0; i < 50; i++ {
		if err := r.Record(&Record{RequestID: "r", Backend: "a", Status: StatusSuccess}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	count, _ := store.Count(context.Background())
	if count != 50 || r.Written() != 50 {
		t.Errorf("count = %d, written = %d, want 50", count, r.Written())
	}

	records, _ := store.Query(context.Background(), Filter{Limit: 1})
	if records[0].ID == "" || records[0].Time.IsZero() {
		t.Errorf("record missing ID or time: %+v", records[0])
	}

	if err := r.Record(&Record{}); !errors.Is(err, ErrRecorderClosed) {
		t.Errorf("Record() after Close error = %v, want ErrRecorderClosed", err)
	}
	// second Close is a no-op
	_ = r.Close()
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	store := newBlockingStore()
	r := NewRecorder(store, RecorderConfig{BufferSize: 1})

	// first record is taken by the worker and blocks in Store
	_ = r.Record(&Record{ID: "1"})
	<-store.started

	// second fills the buffer, third is dropped
	_ = r.Record(&Record{ID: "2"})
	_ = r.Record(&Record{ID: "3"})

	if r.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", r.Dropped())
	}

	close(store.release)
	_ = r.Close()

	if r.Written() != 2 {
		t.Errorf("Written() = %d, want 2", r.Written())
	}
}

func TestRecorder_StoreFailure(t *testing.T) {
	r := NewRecorder(failingStore{NewMemoryStore(0)}, RecorderConfig{})
	_ = r.Record(&Record{ID: "1"})
	_ = r.Close()

	if r.Failed() != 1 || r.Written() != 0 {
		t.Errorf("Failed() = %d, Written() = %d", r.Failed(), r.Written())
	}
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	if err := r.Record(&Record{}); err != nil {
		t.Errorf("nil Record() error = %v", err)
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.UsageConfig
		wantErr bool
	}{
		{"memory", config.UsageConfig{Backend: "memory", MaxRecords: 10}, false},
		{"default", config.UsageConfig{}, false},
		{"sqlite", config.UsageConfig{Backend: "sqlite", Driver: "sqlite",
			Path: filepath.Join(t.TempDir(), "nested", "usage.db")}, false},
		{"unknown", config.UsageConfig{Backend: "redis"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if store != nil {
				_ = store.Close()
			}
		})
	}
}
