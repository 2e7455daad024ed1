// Package authz holds the single ownership predicate used to gate mutations and
// privacy-sensitive reads.
package authz

import (
	"strings"

	"github.com/google/uuid"
)

// Principal is the authenticated identity making a request.
type Principal struct {
	ID       string
	Username string
}

// IsOwner reports whether the principal owns a resource recorded with ownerID.
// It never panics and returns false when either side is absent or malformed.
func IsOwner(principal *Principal, ownerID string) bool {
	if principal == nil {
		return false
	}
	actor, ok := parseID(principal.ID)
	if !ok {
		return false
	}
	owner, ok := parseID(ownerID)
	if !ok {
		return false
	}
	return actor == owner
}

func parseID(raw string) (uuid.UUID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// ValidID reports whether raw is a well-formed identifier.
func ValidID(raw string) bool {
	_, ok := parseID(raw)
	return ok
}
