// Package authz implements the role-to-permission model: the grant
// matcher, the declarative per-role rule set driving the idempotent
// synchronization procedure, and a small cache of resolved grants.
package authz

import (
	"sort"
	"strings"

	"github.com/locvx/tour-booking-auth/internal/model"
)

// WildcardSuffix marks a grant covering every action on a resource,
// e.g. "tour:%".  The wildcard is prefix-only and always trailing;
// "%:read" or "tour:%:x" carry no special meaning.
const WildcardSuffix = ":%"

// Matches reports whether a stored grant name satisfies a queried
// permission name.  Two modes exist: exact equality, or a trailing
// wildcard grant whose resource segment matches the query's resource.
// The matcher is deliberately a plain string function rather than a
// regex so the semantics stay exact and testable.
func Matches(grant, query string) bool {
	if grant == query {
		return true
	}
	if !strings.HasSuffix(grant, WildcardSuffix) {
		return false
	}
	resource := strings.TrimSuffix(grant, WildcardSuffix)
	return strings.HasPrefix(query, resource+":")
}

// HasPermission reports whether any of the role's grants satisfies the
// queried "resource:action" permission.
func HasPermission(grants []string, query string) bool {
	for _, g := range grants {
		if Matches(g, query) {
			return true
		}
	}
	return false
}

// Rule describes the grants one role receives from the synchronization
// procedure.  Exactly one of the three forms applies:
//   - All: every permission in the system, unconditionally.
//   - Patterns ending in ":%": every permission with that resource prefix.
//   - Literal names: only permissions whose names match exactly.
// Patterns and literals may be mixed in one rule.
type Rule struct {
	Role     string
	All      bool
	Patterns []string
}

// DefaultRules is the platform's role model.  The sync procedure is
// driven by this table alone, so re-running it always converges to the
// same grant sets.
var DefaultRules = []Rule{
	{Role: "admin", All: true},
	{Role: "operator", Patterns: []string{"tour:%", "booking:%", "article:%"}},
	{Role: "customer", Patterns: []string{"tour:read", "booking:read", "booking:create"}},
}

// PlanGrants resolves a rule set against the full permission catalogue
// and returns, per role name, the sorted permission names to grant.
// The function is pure: the repository layer applies the plan inside a
// transaction (delete all current grants, insert the planned ones).
func PlanGrants(rules []Rule, perms []model.Permission) map[string][]string {
	plan := make(map[string][]string, len(rules))
	for _, r := range rules {
		var names []string
		for _, p := range perms {
			if r.All || matchesAny(r.Patterns, p.Name) {
				names = append(names, p.Name)
			}
		}
		sort.Strings(names)
		plan[r.Role] = names
	}
	return plan
}

// matchesAny reports whether the permission name satisfies at least one
// rule pattern.  A pattern with a trailing wildcard matches by resource
// prefix; anything else matches literally.
func matchesAny(patterns []string, name string) bool {
	for _, pat := range patterns {
		if Matches(pat, name) {
			return true
		}
	}
	return false
}
