package tui

import "time"

// MsgPlan announces the units of work about to run.
type MsgPlan struct {
	Names []string
}

// MsgSpanStart reports that a unit of work began.
type MsgSpanStart struct {
	SpanID    string
	ParentID  string
	Name      string
	StartTime time.Time
}

// MsgSpanLog carries output written by a unit of work.
type MsgSpanLog struct {
	SpanID string
	Data   []byte
}

// MsgSpanComplete reports that a unit of work finished. Err is nil on success.
type MsgSpanComplete struct {
	SpanID  string
	EndTime time.Time
	Err     error
}
