package usage

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// RecorderConfig contains configuration for the async recorder.
type RecorderConfig struct {
	// BufferSize is the size of the async write channel buffer.
	// Default: 1000
	BufferSize int

	// WriteTimeout bounds a single store write.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// Recorder writes usage records to a Store in the background so the request
// path never waits on storage. When the buffer is full the record is
// dropped and counted.
type Recorder struct {
	store   Store
	config  RecorderConfig
	records chan *Record
	done    chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger

	closeOnce sync.Once
	closed    atomic.Bool
	written   atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

// NewRecorder starts a recorder draining into store.
func NewRecorder(store Store, config RecorderConfig) *Recorder {
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}

	r := &Recorder{
		store:   store,
		config:  config,
		records: make(chan *Record, config.BufferSize),
		done:    make(chan struct{}),
		logger:  slog.Default().With("component", "usage.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Debug("usage recorder started", "buffer_size", config.BufferSize)
	return r
}

// Record enqueues record. It assigns an ID and timestamp when missing and
// never blocks.
func (r *Recorder) Record(record *Record) error {
	if r == nil {
		return nil
	}
	if r.closed.Load() {
		return ErrRecorderClosed
	}

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Time.IsZero() {
		record.Time = time.Now()
	}

	select {
	case r.records <- record:
		return nil
	case <-r.done:
		return ErrRecorderClosed
	default:
		r.dropped.Add(1)
		r.logger.Warn("usage buffer full, dropping record",
			"request_id", record.RequestID,
			"backend", record.Backend,
			"buffer_size", r.config.BufferSize,
		)
		return nil
	}
}

// Store returns the underlying store for queries.
func (r *Recorder) Store() Store {
	return r.store
}

// Written returns the number of records persisted.
func (r *Recorder) Written() int64 {
	return r.written.Load()
}

// Dropped returns the number of records discarded because the buffer was full.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Failed returns the number of records the store rejected.
func (r *Recorder) Failed() int64 {
	return r.failed.Load()
}

// Close stops accepting records, drains the buffer and waits for pending
// writes. It does not close the store.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.done)
		r.wg.Wait()
		r.logger.Debug("usage recorder stopped",
			"written", r.written.Load(),
			"dropped", r.dropped.Load(),
		)
	})
	return nil
}

// worker drains the channel until Close, then flushes what is left.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.records:
			r.write(record)
		case <-r.done:
			for {
				select {
				case record := <-r.records:
					r.write(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(record *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.store.Store(ctx, record); err != nil {
		r.failed.Add(1)
		r.logger.Error("failed to write usage record",
			"record_id", record.ID,
			"request_id", record.RequestID,
			"error", err,
		)
		return
	}
	r.written.Add(1)
}
