package models

import (
	"math"
	"time"
)

// Class groups endpoints that share a limit.
type Class string

const (
	// ClassAuth covers register and login, the credential-guessing surface.
	ClassAuth Class = "auth"
	// ClassWrite covers every other mutating request.
	ClassWrite Class = "write"
)

// Policy allows Limit requests per client in any Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Result is the outcome of one admission check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, only set when not allowed
}

// NewResult builds a Result from the window state after the check. count
// includes the admitted request; oldest is the earliest timestamp still in
// the window, zero when the window is empty.
func NewResult(allowed bool, limit, count int, oldest, now time.Time, window time.Duration) *Result {
	resetAt := now.Add(window)
	if !oldest.IsZero() {
		resetAt = oldest.Add(window)
	}
	res := &Result{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: max(limit-count, 0),
		ResetAt:   resetAt,
	}
	if !allowed {
		res.RetryAfter = max(int(math.Ceil(resetAt.Sub(now).Seconds())), 1)
	}
	return res
}
