package handler

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/AlexKimmel/chatgate/internal/admission"
	"github.com/AlexKimmel/chatgate/internal/gateway"
	"github.com/AlexKimmel/chatgate/internal/upstream"
)

// maxMessageChars caps the inbound message length, counted in characters.
const maxMessageChars = 1000

//go:embed index.html
var indexHTML []byte

// Handler carries the application endpoints. The chat endpoint gates itself
// after payload validation; body-less gated endpoints rely on the admission
// middleware instead.
type Handler struct {
	Log      zerolog.Logger
	Gate     admission.Gate
	Upstream *upstream.Client

	// metrics hooks, optional
	OnRejected        func(code string)
	OnUpstreamFailure func(kind string)
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Timestamp float64 `json:"timestamp"`
}

// Chat validates the payload, consults the admission gate and forwards the
// message upstream. Validation failures never touch the gate, so a malformed
// request does not consume a rate-limit slot.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.error(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		h.error(w, http.StatusBadRequest, "empty_message", "message must not be empty")
		return
	}
	if utf8.RuneCountInString(msg) > maxMessageChars {
		h.error(w, http.StatusBadRequest, "message_too_long", "message is too long")
		return
	}

	clientID := gateway.ClientID(r)
	res := h.Gate.Evaluate(clientID, time.Now())
	if !res.Allowed {
		h.Log.Warn().Str("client", clientID).Str("code", res.Code).Msg("chat rejected")
		if h.OnRejected != nil {
			h.OnRejected(res.Code)
		}
		h.error(w, res.Status, res.Code, res.Message)
		return
	}

	reply, err := h.Upstream.Send(r.Context(), msg)
	if err != nil {
		h.upstreamError(w, err)
		return
	}

	h.json(w, http.StatusOK, chatResponse{
		Success:   true,
		Message:   reply,
		Timestamp: unixSeconds(time.Now()),
	})
}

// TestAPI probes upstream connectivity and returns the raw outcome.
// Gated by the admission middleware.
func (h *Handler) TestAPI(w http.ResponseWriter, r *http.Request) {
	res, err := h.Upstream.Ping(r.Context())
	if err != nil {
		h.upstreamError(w, err)
		return
	}
	h.json(w, http.StatusOK, res)
}

func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	h.json(w, http.StatusOK, map[string]string{"status": "chatgate is running"})
}

type clientStats struct {
	MinuteCount       int        `json:"minute_count"`
	MinuteWindowStart time.Time  `json:"minute_window_start"`
	HourCount         int        `json:"hour_count"`
	HourWindowStart   time.Time  `json:"hour_window_start"`
	BlockedUntil      *time.Time `json:"blocked_until,omitempty"`
}

// Stats dumps the full client-tracking table for operational inspection.
// Gated by the admission middleware.
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	snap := h.Gate.Store.Snapshot()
	out := make(map[string]clientStats, len(snap))
	for id, st := range snap {
		cs := clientStats{
			MinuteCount:       st.MinuteCount,
			MinuteWindowStart: st.MinuteWindowStart,
			HourCount:         st.HourCount,
			HourWindowStart:   st.HourWindowStart,
		}
		if !st.BlockedUntil.IsZero() {
			t := st.BlockedUntil
			cs.BlockedUntil = &t
		}
		out[id] = cs
	}
	h.json(w, http.StatusOK, out)
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (h *Handler) upstreamError(w http.ResponseWriter, err error) {
	var se *upstream.StatusError
	switch {
	case upstream.IsTimeout(err):
		h.Log.Error().Err(err).Msg("upstream timeout")
		h.upstreamFailure("timeout")
		h.error(w, http.StatusInternalServerError, "upstream_timeout", "the chat API did not answer in time")
	case errors.As(err, &se):
		h.Log.Error().Int("status", se.Code).Msg("upstream error status")
		h.upstreamFailure("status")
		h.error(w, http.StatusInternalServerError, "upstream_error", fmt.Sprintf("the chat API returned status %d", se.Code))
	default:
		h.Log.Error().Err(err).Msg("upstream unreachable")
		h.upstreamFailure("connection")
		h.error(w, http.StatusInternalServerError, "upstream_unreachable", "could not reach the chat API")
	}
}

func (h *Handler) upstreamFailure(kind string) {
	if h.OnUpstreamFailure != nil {
		h.OnUpstreamFailure(kind)
	}
}

func (h *Handler) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (h *Handler) error(w http.ResponseWriter, code int, errCode, msg string) {
	var body errorBody
	body.Error.Code = errCode
	body.Error.Message = msg
	h.json(w, code, body)
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
