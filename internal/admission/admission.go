package admission

import (
	"time"
)

// Policy holds the per-client request limits.
type Policy struct {
	MaxPerMinute  int           // requests allowed per minute window
	MaxPerHour    int           // requests allowed per hour window
	BlockDuration time.Duration // how long a client stays blocked after crossing a limit
}

type Decision int

const (
	Allow Decision = iota
	RejectBlocked     // client is inside an active block
	RejectRateLimited // this request crossed a limit and triggered a block
)

// ClientState tracks one client's rolling counters and block expiry.
// The zero BlockedUntil means the client is not blocked.
type ClientState struct {
	MinuteCount       int
	MinuteWindowStart time.Time
	HourCount         int
	HourWindowStart   time.Time
	BlockedUntil      time.Time
}

// Blocked reports whether the client is inside an active block at now.
func (s *ClientState) Blocked(now time.Time) bool {
	return !s.BlockedUntil.IsZero() && now.Before(s.BlockedUntil)
}

// Store owns one ClientState per client identifier.
type Store interface {
	// Update runs fn against the record for id while holding that record's
	// lock, creating a fresh record (both window starts = now) if the id has
	// never been seen. Concurrent first-time callers for one id must end up
	// sharing a single record.
	Update(id string, now time.Time, fn func(*ClientState) Decision) Decision

	// Snapshot returns a copy of every tracked record.
	Snapshot() map[string]ClientState

	Close() error
}

// Evaluate applies one observed request to s and decides its fate.
//
// Counters are frozen while a block is active; an expired block resets the
// client to a clean slate before the request is counted. Window rollover is
// strict: a request landing exactly on the window boundary still counts
// against the old window.
func (p Policy) Evaluate(s *ClientState, now time.Time) Decision {
	if !s.BlockedUntil.IsZero() {
		if now.Before(s.BlockedUntil) {
			return RejectBlocked
		}
		s.BlockedUntil = time.Time{}
		s.MinuteCount, s.MinuteWindowStart = 0, now
		s.HourCount, s.HourWindowStart = 0, now
	}

	if now.Sub(s.MinuteWindowStart) > time.Minute {
		s.MinuteCount = 0
		s.MinuteWindowStart = now
	}
	if now.Sub(s.HourWindowStart) > time.Hour {
		s.HourCount = 0
		s.HourWindowStart = now
	}

	s.MinuteCount++
	s.HourCount++

	if s.MinuteCount > p.MaxPerMinute || s.HourCount > p.MaxPerHour {
		s.BlockedUntil = now.Add(p.BlockDuration)
		return RejectRateLimited
	}

	return Allow
}
