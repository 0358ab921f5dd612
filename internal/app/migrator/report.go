package migrator

import (
	"errors"
	"time"

	"github.com/heartmarshall/annotext/internal/domain"
)

// Mode selects between a dry validation run and a committing run.
type Mode int

const (
	ModeValidate Mode = iota
	ModeCommit
)

func (m Mode) String() string {
	if m == ModeCommit {
		return "commit"
	}
	return "validate"
}

// ItemState is the lifecycle position of one work item.
type ItemState int

const (
	StatePending ItemState = iota
	StateFetching
	StateParsing
	StateValidated
	StateFailed
	StatePersisting
	StateCommitted
)

func (s ItemState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFetching:
		return "fetching"
	case StateParsing:
		return "parsing"
	case StateValidated:
		return "validated"
	case StateFailed:
		return "failed"
	case StatePersisting:
		return "persisting"
	case StateCommitted:
		return "committed"
	}
	return "unknown"
}

// ItemOutcome is the result of one work item.
type ItemOutcome struct {
	Item        domain.WorkItem
	State       ItemState
	ShortName   string
	Title       string
	Segments    int
	Words       int
	Connections int
	Issues      []*domain.LayerMismatchError
	Err         error
	Duration    time.Duration
}

// Report summarizes a run. Items keep worklist order; items never attempted
// stay Pending.
type Report struct {
	Mode      Mode
	Items     []ItemOutcome
	Aborted   bool
	Cancelled bool
	Relations int
	Duration  time.Duration
}

// Failed returns the outcomes of failed items in worklist order.
func (r *Report) Failed() []ItemOutcome {
	var out []ItemOutcome
	for _, it := range r.Items {
		if it.State == StateFailed {
			out = append(out, it)
		}
	}
	return out
}

// Count returns the number of items in state s.
func (r *Report) Count(s ItemState) int {
	n := 0
	for _, it := range r.Items {
		if it.State == s {
			n++
		}
	}
	return n
}

// HasErrors reports whether the run did not process the full worklist
// successfully.
func (r *Report) HasErrors() bool {
	return r.Aborted || r.Cancelled || len(r.Failed()) > 0
}

// Err joins the errors of all failed items, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, it := range r.Failed() {
		errs = append(errs, it.Err)
	}
	return errors.Join(errs...)
}
