package authority

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fadedpez/wagerescrow/pkg/entities"
)

// Mode selects the authorization policy
type Mode string

const (
	ModeAllowList   Mode = "allowlist"
	ModeSingleAdmin Mode = "single_admin"
)

// DefaultAllowList is the set of identities permitted to resolve games when
// nothing else is configured.
var DefaultAllowList = []entities.Identity{
	"DEydVpVwhwXWM2UQHHodt7TY2ucWmh5DkBEoETAJUzXK",
	"3rPzgWyNkgSsLQ6VR4wfCmPMEwkziShNZWM8Gi16kguW",
	"5t8NUWjq7e3LS6vLfvT6pSf1yustTz9qQ7qDh3vrTN6B",
}

// Authority decides who may declare a winner
type Authority interface {
	IsAuthorized(id entities.Identity) bool
	Mode() Mode
}

// AllowList authorizes any identity in a fixed set
type AllowList struct {
	ids map[entities.Identity]struct{}
}

// NewAllowList creates an allow-list policy. Empty identities are ignored.
func NewAllowList(ids ...entities.Identity) *AllowList {
	a := &AllowList{ids: make(map[entities.Identity]struct{}, len(ids))}
	for _, id := range ids {
		if id != entities.NoIdentity {
			a.ids[id] = struct{}{}
		}
	}
	return a
}

func (a *AllowList) IsAuthorized(id entities.Identity) bool {
	if id == entities.NoIdentity {
		return false
	}
	_, ok := a.ids[id]
	return ok
}

func (a *AllowList) Mode() Mode { return ModeAllowList }

// Members returns the allowed identities in sorted order
func (a *AllowList) Members() []entities.Identity {
	out := make([]entities.Identity, 0, len(a.ids))
	for id := range a.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SingleAdmin authorizes exactly one identity
type SingleAdmin struct {
	admin entities.Identity
}

func NewSingleAdmin(admin entities.Identity) *SingleAdmin {
	return &SingleAdmin{admin: admin}
}

func (s *SingleAdmin) IsAuthorized(id entities.Identity) bool {
	return id != entities.NoIdentity && id == s.admin
}

func (s *SingleAdmin) Mode() Mode { return ModeSingleAdmin }

// FromConfig builds the policy named by mode. An allow-list with no
// identities falls back to DefaultAllowList.
func FromConfig(mode string, identities []string, admin string) (Authority, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(mode))) {
	case "", ModeAllowList:
		ids := make([]entities.Identity, 0, len(identities))
		for _, s := range identities {
			if s = strings.TrimSpace(s); s != "" {
				ids = append(ids, entities.Identity(s))
			}
		}
		if len(ids) == 0 {
			ids = DefaultAllowList
		}
		return NewAllowList(ids...), nil
	case ModeSingleAdmin:
		admin = strings.TrimSpace(admin)
		if admin == "" {
			return nil, fmt.Errorf("single_admin authority requires an admin identity")
		}
		return NewSingleAdmin(entities.Identity(admin)), nil
	default:
		return nil, fmt.Errorf("unknown authority mode %q", mode)
	}
}
