package admission

import (
	"net/http"
	"time"
)

// Result is the gate's verdict for one request, ready to translate into an
// HTTP response when not allowed.
type Result struct {
	Allowed bool
	Status  int
	Code    string
	Message string
}

// Gate decides, per request, whether a client may proceed. Allowlisted
// clients bypass the store entirely; everyone else gets one serialized
// policy evaluation against their stored record.
type Gate struct {
	Allowlist Allowlist
	Store     Store
	Policy    Policy
}

func (g Gate) Evaluate(clientID string, now time.Time) Result {
	if g.Allowlist.Contains(clientID) {
		return Result{Allowed: true, Status: http.StatusOK}
	}
	if g.Policy.MaxPerMinute <= 0 || g.Policy.MaxPerHour <= 0 {
		return Result{Allowed: true, Status: http.StatusOK}
	}

	dec := g.Store.Update(clientID, now, func(s *ClientState) Decision {
		return g.Policy.Evaluate(s, now)
	})

	switch dec {
	case RejectBlocked:
		return Result{
			Status:  http.StatusTooManyRequests,
			Code:    "ip_blocked",
			Message: "Your address is temporarily blocked. Please try again later.",
		}
	case RejectRateLimited:
		return Result{
			Status:  http.StatusTooManyRequests,
			Code:    "rate_limited",
			Message: "You sent too many requests. Please wait a while.",
		}
	default:
		return Result{Allowed: true, Status: http.StatusOK}
	}
}
