package models

import (
	"sort"
	"time"
)

// SprintState represents the lifecycle state of a sprint.
type SprintState string

const (
	SprintPlanned SprintState = "planned"
	SprintActive  SprintState = "active"
	SprintClosed  SprintState = "closed"
)

// Sprint is a single iteration fetched from the issue tracker.
// Immutable once fetched for a given analysis pass.
type Sprint struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	State   SprintState `json:"state"`
	StartAt time.Time   `json:"start_at"`
	EndAt   time.Time   `json:"end_at"`
	Goal    string      `json:"goal,omitempty"`
}

// DaysRemaining returns the fractional number of days between now and the
// sprint end, never negative.
func (s Sprint) DaysRemaining(now time.Time) float64 {
	if !now.Before(s.EndAt) {
		return 0
	}
	return s.EndAt.Sub(now).Hours() / 24
}

// Ended reports whether the sprint end date is in the past.
func (s Sprint) Ended(now time.Time) bool {
	return now.After(s.EndAt)
}

// StatusTransition is one edge in an issue's workflow history.
type StatusTransition struct {
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	At         time.Time `json:"at"`
}

// Issue is a work item fetched from the issue tracker.
type Issue struct {
	ID          string             `json:"id"`
	Key         string             `json:"key"`
	Summary     string             `json:"summary"`
	Assignee    string             `json:"assignee,omitempty"` // empty = unassigned
	Estimate    *float64           `json:"estimate,omitempty"` // story points, nil = unestimated
	Status      string             `json:"status"`
	Transitions []StatusTransition `json:"transitions"`
	ReviewIDs   []string           `json:"review_ids,omitempty"`
}

// SortedTransitions returns the issue's transitions ordered by timestamp
// ascending. Sources usually deliver them sorted already, but out-of-order
// timestamps do occur and consumers must not assume sorted input.
func (i Issue) SortedTransitions() []StatusTransition {
	if len(i.Transitions) < 2 {
		return i.Transitions
	}
	out := make([]StatusTransition, len(i.Transitions))
	copy(out, i.Transitions)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].At.Before(out[b].At)
	})
	return out
}

// CreationTime returns the issue's creation-time proxy: the earliest
// transition timestamp. An issue with no history is treated as just-created,
// so now is returned rather than the zero time.
func (i Issue) CreationTime(now time.Time) time.Time {
	if len(i.Transitions) == 0 {
		return now
	}
	earliest := i.Transitions[0].At
	for _, tr := range i.Transitions[1:] {
		if tr.At.Before(earliest) {
			earliest = tr.At
		}
	}
	return earliest
}

// LastTransitionTime returns the latest transition timestamp, or the zero
// time when the issue has no history.
func (i Issue) LastTransitionTime() time.Time {
	var latest time.Time
	for _, tr := range i.Transitions {
		if tr.At.After(latest) {
			latest = tr.At
		}
	}
	return latest
}

// EstimateOr returns the issue's story point estimate, or def when the issue
// is unestimated.
func (i Issue) EstimateOr(def float64) float64 {
	if i.Estimate == nil {
		return def
	}
	return *i.Estimate
}
