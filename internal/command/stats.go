package command

import (
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
)

// Stats captures telemetry for a single command execution: timing, host and
// runtime metadata, and the failure trace when the execution did not
// complete cleanly. A Stats instance belongs to exactly one execution and
// Finish is called exactly once on every code path.
type Stats struct {
	ExecutionID string
	CommandID   string
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	Info        map[string]any
	Traceback   string

	finished bool
}

// NewStats returns a started Stats for the given command and host.
func NewStats(cmd Command, hostName string) *Stats {
	hostname, _ := os.Hostname()
	s := &Stats{
		ExecutionID: uuid.NewString(),
		CommandID:   cmd.ID(),
		StartTime:   time.Now(),
		Info: map[string]any{
			"id":          cmd.ID(),
			"application": hostName,
			"goVersion":   runtime.Version(),
			"os":          runtime.GOOS,
			"arch":        runtime.GOARCH,
			"node":        hostname,
			"pid":         os.Getpid(),
		},
	}

	return s
}

// Finish records the end of the execution. A non-empty trace marks the
// execution as failed. Calling Finish more than once is a no-op.
func (s *Stats) Finish(trace string) {
	if s.finished {
		return
	}
	s.finished = true

	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
	s.Info["executionTime"] = s.Duration
	s.Info["lastUsed"] = s.EndTime
	if trace != "" {
		s.Traceback = trace
		s.Info["traceback"] = trace
	}
}

// Finished reports whether Finish has been called.
func (s *Stats) Finished() bool { return s.finished }
