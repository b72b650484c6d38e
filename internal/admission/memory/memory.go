package memory

import (
	"sync"
	"time"

	"github.com/AlexKimmel/chatgate/internal/admission"
)

type record struct {
	mu    sync.Mutex
	state admission.ClientState
}

// Store is an in-memory admission.Store. Each client record carries its own
// mutex, so requests for different clients only contend on the sync.Map
// lookup itself. Records are never evicted.
type Store struct {
	clients sync.Map
}

func New() *Store {
	return &Store{}
}

func (s *Store) Close() error { return nil }

func (s *Store) Update(id string, now time.Time, fn func(*admission.ClientState) admission.Decision) admission.Decision {
	// create record on first sight
	v, _ := s.clients.LoadOrStore(id, &record{
		state: admission.ClientState{
			MinuteWindowStart: now,
			HourWindowStart:   now,
		},
	})

	rec := v.(*record)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	return fn(&rec.state)
}

func (s *Store) Snapshot() map[string]admission.ClientState {
	out := make(map[string]admission.ClientState)
	s.clients.Range(func(k, v any) bool {
		rec := v.(*record)
		rec.mu.Lock()
		out[k.(string)] = rec.state
		rec.mu.Unlock()
		return true
	})
	return out
}
