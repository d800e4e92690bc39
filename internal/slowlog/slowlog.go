// Package slowlog implements the bounded command-latency log: every command
// whose execution exceeds a configurable threshold is recorded here, with
// the same argument-truncation rules the server applies to keep a single
// pathological command (a huge MSET, say) from bloating the log entry.
package slowlog

import (
	"fmt"
	"sync"
	"time"
)

// MaxArgc is the maximum number of argument slots kept verbatim in a logged
// entry. Beyond it, the remaining arguments are collapsed into one sentinel
// slot reporting how many more there were.
const MaxArgc = 32

// MaxString is the maximum length, in bytes, kept verbatim for any single
// logged argument. Longer arguments are truncated with a suffix reporting
// how many bytes were cut.
const MaxString = 128

// Entry is one logged slow command.
type Entry struct {
	ID         int64
	Timestamp  time.Time
	DurationUs int64
	Args       []string
	PeerAddr   string
	ClientName string
}

// SlowLog is a bounded FIFO of Entry, newest first. It never allocates
// unboundedly: once Capacity entries are held, each Observe evicts the
// oldest.
type SlowLog struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	nextID   int64
	// thresholdUs is the minimum duration, in microseconds, a command must
	// run for to be logged. A negative threshold disables logging entirely;
	// zero logs every command.
	thresholdUs int64
}

func New(capacity int, thresholdUs int64) *SlowLog {
	if capacity < 0 {
		capacity = 0
	}
	return &SlowLog{capacity: capacity, thresholdUs: thresholdUs}
}

// Threshold returns the current logging threshold in microseconds.
func (s *SlowLog) Threshold() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thresholdUs
}

// SetThreshold updates the logging threshold in microseconds.
func (s *SlowLog) SetThreshold(us int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresholdUs = us
}

// Observe records a command's execution if durationUs meets the threshold.
// now is injected so tests can pin the timestamp; callers pass time.Now().
func (s *SlowLog) Observe(now time.Time, args []string, durationUs int64, peerAddr, clientName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.thresholdUs < 0 || durationUs < s.thresholdUs {
		return
	}
	if s.capacity == 0 {
		return
	}

	entry := Entry{
		ID:         s.nextID,
		Timestamp:  now,
		DurationUs: durationUs,
		Args:       truncateArgs(args),
		PeerAddr:   peerAddr,
		ClientName: clientName,
	}
	s.nextID++

	s.entries = append([]Entry{entry}, s.entries...)
	if len(s.entries) > s.capacity {
		s.entries = s.entries[:s.capacity]
	}
}

// truncateArgs applies MaxArgc/MaxString truncation, matching the server's
// fixed sentinel wording exactly so SLOWLOG GET output is stable.
func truncateArgs(args []string) []string {
	out := make([]string, 0, len(args))
	limit := len(args)
	truncatedArgc := false
	if limit > MaxArgc {
		limit = MaxArgc - 1
		truncatedArgc = true
	}

	for i := 0; i < limit; i++ {
		out = append(out, truncateString(args[i]))
	}

	if truncatedArgc {
		remaining := len(args) - limit
		out = append(out, fmt.Sprintf("... (%d more arguments)", remaining))
	}

	return out
}

func truncateString(s string) string {
	if len(s) <= MaxString {
		return s
	}
	cut := len(s) - MaxString
	return fmt.Sprintf("%s... (%d more bytes)", s[:MaxString], cut)
}

// Get returns up to count most-recent entries, newest first. count < 0
// returns all entries.
func (s *SlowLog) Get(count int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if count < 0 || count > len(s.entries) {
		count = len(s.entries)
	}
	out := make([]Entry, count)
	copy(out, s.entries[:count])
	return out
}

// Len returns the current number of logged entries.
func (s *SlowLog) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Reset clears the log. The id counter is not reset, matching the
// documented behavior that ids are never reused.
func (s *SlowLog) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
