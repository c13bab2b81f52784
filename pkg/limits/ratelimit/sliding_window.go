package ratelimit

import "time"

// entry is one timestamped value in a window log.
type entry struct {
	at    time.Time
	value int64
}

// windowLog is a time-ordered ring buffer of entries. Entries are appended
// in non-decreasing time order, so pruning only ever removes from the head.
//
// windowLog is not safe for concurrent use; the owning Limiter serializes
// access with its mutex.
type windowLog struct {
	buf   []entry
	head  int // index of the oldest entry
	count int
	sum   int64
}

// newWindowLog creates a log with the given initial capacity.
func newWindowLog(capacity int) *windowLog {
	if capacity < 1 {
		capacity = 16
	}
	return &windowLog{buf: make([]entry, capacity)}
}

// push appends an entry, growing the buffer when full.
func (w *windowLog) push(at time.Time, value int64) {
	if w.count == len(w.buf) {
		w.grow()
	}
	idx := (w.head + w.count) % len(w.buf)
	w.buf[idx] = entry{at: at, value: value}
	w.count++
	w.sum += value
}

// prune drops every entry at or before cutoff.
func (w *windowLog) prune(cutoff time.Time) {
	for w.count > 0 {
		oldest := w.buf[w.head]
		if oldest.at.After(cutoff) {
			return
		}
		w.sum -= oldest.value
		w.buf[w.head] = entry{}
		w.head = (w.head + 1) % len(w.buf)
		w.count--
	}
}

// oldest returns the timestamp of the oldest entry.
func (w *windowLog) oldest() (time.Time, bool) {
	if w.count == 0 {
		return time.Time{}, false
	}
	return w.buf[w.head].at, true
}

func (w *windowLog) len() int { return w.count }

func (w *windowLog) total() int64 { return w.sum }

func (w *windowLog) reset() {
	for i := range w.buf {
		w.buf[i] = entry{}
	}
	w.head, w.count, w.sum = 0, 0, 0
}

// grow doubles the buffer, unrolling the ring so head is at index 0.
func (w *windowLog) grow() {
	next := make([]entry, len(w.buf)*2)
	for i := 0; i < w.count; i++ {
		next[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	w.buf = next
	w.head = 0
}
