package domain

import "strings"

// Pipeline represents a GitLab CI pipeline run for a ref.
// This is a domain model (part of business logic).
type Pipeline struct {
	ID       uint64
	Status   Status
	RefField string
	RefName  string
}

// Job represents a single job within a pipeline.
type Job struct {
	ID     uint64
	Status Status
	Name   string
	Stage  string
}

// Status represents the state of a pipeline or job as reported by the server.
// The set of values is open: anything the server sends is a valid Status.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
	StatusSkipped  Status = "skipped"
)

// StatusKind groups statuses that share a display label and color.
type StatusKind int

const (
	KindOther StatusKind = iota
	KindSuccess
	KindFailed
	KindBuilding
	KindCanceled
	KindSkipped
)

// Kind classifies the status, ignoring case. Unknown values map to KindOther.
func (s Status) Kind() StatusKind {
	switch Status(strings.ToLower(string(s))) {
	case StatusSuccess:
		return KindSuccess
	case StatusFailed:
		return KindFailed
	case StatusRunning, StatusPending:
		return KindBuilding
	case StatusCanceled:
		return KindCanceled
	case StatusSkipped:
		return KindSkipped
	default:
		return KindOther
	}
}

// Label returns the display label for the status, e.g. "● SUCCESS".
// Unknown statuses are shown upper-cased as received.
func (s Status) Label() string {
	switch s.Kind() {
	case KindSuccess:
		return "● SUCCESS"
	case KindFailed:
		return "● FAILED"
	case KindBuilding:
		return "● BUILDING"
	case KindCanceled:
		return "● CANCELED"
	case KindSkipped:
		return "● SKIPPED"
	default:
		return "● " + strings.ToUpper(string(s))
	}
}

