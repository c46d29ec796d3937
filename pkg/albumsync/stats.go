package albumsync

import (
	"sync"
	"time"
)

// StatusTracker keeps per-run download counters
type StatusTracker struct {
	mu        sync.Mutex
	albums    int
	saved     int
	failed    int
	bytes     int64
	startTime time.Time
}

// NewStatusTracker creates a new status tracker
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		startTime: time.Now(),
	}
}

// AlbumDone records one fully processed album
func (st *StatusTracker) AlbumDone() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.albums++
}

// RecordSaved records one asset written to disk
func (st *StatusTracker) RecordSaved(size int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.saved++
	st.bytes += int64(size)
}

// RecordFailed records one asset that could not be downloaded or saved
func (st *StatusTracker) RecordFailed() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.failed++
}

// Summary is a snapshot of the tracker counters
type Summary struct {
	Albums  int
	Saved   int
	Failed  int
	Bytes   int64
	Elapsed time.Duration
}

// Summary returns the current counters
func (st *StatusTracker) Summary() Summary {
	st.mu.Lock()
	defer st.mu.Unlock()
	return Summary{
		Albums:  st.albums,
		Saved:   st.saved,
		Failed:  st.failed,
		Bytes:   st.bytes,
		Elapsed: time.Since(st.startTime),
	}
}

// GetDownloadRate returns the average number of saved assets per minute
func (s Summary) GetDownloadRate() float64 {
	minutes := s.Elapsed.Minutes()
	if minutes == 0 {
		return 0
	}
	return float64(s.Saved) / minutes
}
