package search

import (
	"github.com/google/uuid"

	"pdfview/geom"
)

// State is the lifecycle of one search session.
type State int

const (
	Idle State = iota
	Running
	Completed
	Canceled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Canceled:
		return "canceled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Match is a single contiguous occurrence of the query on one page, carrying
// one rectangle per visual line it spans, in reading order.
type Match struct {
	Page   int
	Start  int
	Length int
	Text   string
	Rects  []geom.Rect
}

// Session is one search run for a fixed query and options. Matches are
// appended during the run and frozen once the session reaches a terminal
// state; after that a Session is never mutated, a new one is created for
// every search. Within a Completed session Matches is sorted by
// (Page, Start) with no overlaps on the same page.
type Session struct {
	ID      uuid.UUID
	Query   string
	Options Options
	Matches []Match
	State   State
	Err     error

	// SkippedPages lists pages whose extraction failed; they did not fail
	// the session.
	SkippedPages []int
}

func newSession(query string, opts Options, state State) *Session {
	return &Session{
		ID:      uuid.New(),
		Query:   query,
		Options: opts,
		State:   state,
	}
}
