package gateway

import (
	"net"
	"net/http"
	"time"

	"github.com/AlexKimmel/chatgate/internal/admission"
)

// ClientID extracts the gate key for a request: the host part of the remote
// address, without the ephemeral port.
func ClientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Admission gates every request whose path is not in skipPaths. Rejected
// requests get the gate's 429 response; onRejected (if set) is called with
// the rejection code for metrics.
func Admission(gate admission.Gate, skipPaths map[string]struct{}, onRejected func(code string)) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// ops endpoints and self-gating handlers pass through
			if _, ok := skipPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			res := gate.Evaluate(ClientID(r), time.Now())
			if !res.Allowed {
				if onRejected != nil {
					onRejected(res.Code)
				}
				writeJSON(w, res.Status, res.Code, res.Message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// local tiny JSON helper to avoid coupling to the handler package
func writeJSON(w http.ResponseWriter, code int, errCode, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":{"code":"` + errCode + `","message":"` + msg + `"}}`))
}
