package admission

import "strings"

// Allowlist is a static, read-only set of client identifiers exempt from
// gating. Built once at startup, never mutated after.
type Allowlist struct {
	set map[string]struct{}
}

// NewAllowlist creates an allowlist from the given identifiers.
// Blank entries are ignored.
func NewAllowlist(ids []string) Allowlist {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return Allowlist{set: set}
}

func (a Allowlist) Contains(id string) bool {
	_, ok := a.set[id]
	return ok
}
