package handler

import (
	"time"

	"go.uber.org/zap"

	corelog "github.com/latticekv/lattice/internal/slowlog"
)

// SlowLogEntry is the connection-layer view of a logged slow command: the
// same fields the core package tracks, plus a legacy numeric ClientID field.
// The core log does not store client ids, so Get leaves ClientID zero.
type SlowLogEntry struct {
	ID        int64
	Timestamp time.Time
	Duration  time.Duration
	ClientID  int64
	Command   string
	Args      []string
}

// SlowLog adapts internal/slowlog.SlowLog (bit-exact MAX_ARGC/MAX_STRING
// truncation, per SPEC_FULL.md §4.7) to the call sites already wired through
// the pipeline (pipeline.go, admin_handlers.go), which predate that package.
// LogIfSlow still takes a bare client id, but only writes it to the debug log;
// SLOWLOG GET reads the core entries directly through GetCore.
type SlowLog struct {
	core *corelog.SlowLog
	log  *zap.Logger
}

// NewSlowLog creates a slow log with given max entries and threshold.
func NewSlowLog(maxLen int, threshold time.Duration) *SlowLog {
	return &SlowLog{
		core: corelog.New(maxLen, threshold.Microseconds()),
		log:  zap.NewNop(),
	}
}

// LogIfSlow logs a command if it exceeds the threshold. Returns true if the
// command was slow enough to be recorded.
func (s *SlowLog) LogIfSlow(clientID int64, command string, args []string, duration time.Duration) bool {
	threshold := s.core.Threshold()
	durationUs := duration.Microseconds()
	if threshold < 0 || durationUs < threshold {
		return false
	}

	fullArgs := append([]string{command}, args...)
	s.core.Observe(time.Now(), fullArgs, durationUs, "", "")
	s.log.Debug("slow command observed",
		zap.Int64("client_id", clientID), zap.String("command", command), zap.Duration("duration", duration))
	return true
}

// Get returns the last n slow log entries, newest first.
func (s *SlowLog) Get(count int) []SlowLogEntry {
	entries := s.core.Get(count)
	out := make([]SlowLogEntry, len(entries))
	for i, e := range entries {
		cmd := ""
		args := e.Args
		if len(args) > 0 {
			cmd = args[0]
			args = args[1:]
		}
		out[i] = SlowLogEntry{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			Duration:  time.Duration(e.DurationUs) * time.Microsecond,
			Command:   cmd,
			Args:      args,
		}
	}
	return out
}

// GetCore exposes the underlying core SlowLog for the admin SLOWLOG GET path,
// which needs PeerAddr/ClientName - fields this adapter's legacy Entry shape
// has no room for without breaking its existing callers.
func (s *SlowLog) GetCore() *corelog.SlowLog { return s.core }

func (s *SlowLog) Len() int { return s.core.Len() }

func (s *SlowLog) Reset() { s.core.Reset() }

func (s *SlowLog) SetThreshold(threshold time.Duration) { s.core.SetThreshold(threshold.Microseconds()) }

func (s *SlowLog) GetThreshold() time.Duration {
	return time.Duration(s.core.Threshold()) * time.Microsecond
}
