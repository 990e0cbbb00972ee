package domain

import "time"

// ProcessHandle identifies a live agent process
type ProcessHandle struct {
	PID       int
	SessionID string
	StartedAt time.Time
}

// ExitStatus describes how an agent process ended
type ExitStatus struct {
	Code int
	// Requested is true when the exit followed a stop call
	Requested  bool
	Signal     string
	StderrTail string
}

// Clean reports a zero exit that nobody asked for
func (e ExitStatus) Clean() bool {
	return e.Code == 0 && e.Signal == "" && !e.Requested
}

// StopResult reports how stop ended a process
type StopResult struct {
	Graceful bool
}
