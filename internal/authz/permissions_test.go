package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/locvx/tour-booking-auth/internal/model"
)

func TestMatches(t *testing.T) {
	cases := []struct {
		name  string
		grant string
		query string
		want  bool
	}{
		{"exact", "booking:read", "booking:read", true},
		{"exact mismatch", "booking:read", "booking:update", false},
		{"wildcard covers action", "tour:%", "tour:read", true},
		{"wildcard covers another action", "tour:%", "tour:create", true},
		{"wildcard wrong resource", "tour:%", "booking:read", false},
		{"wildcard is not a prefix of resource names", "tour:%", "tours:read", false},
		{"literal percent is not special elsewhere", "tour:read", "tour:%", false},
		{"wildcard grant queried literally", "tour:%", "tour:%", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Matches(tc.grant, tc.query))
		})
	}
}

func TestHasPermissionWildcardRole(t *testing.T) {
	grants := []string{"tour:%"}
	assert.True(t, HasPermission(grants, "tour:read"))
	assert.True(t, HasPermission(grants, "tour:create"))
	assert.False(t, HasPermission(grants, "booking:read"))
}

func TestHasPermissionLiteralRole(t *testing.T) {
	grants := []string{"booking:read", "booking:create"}
	assert.True(t, HasPermission(grants, "booking:read"))
	assert.False(t, HasPermission(grants, "booking:update"))
}

func catalogue() []model.Permission {
	return []model.Permission{
		{ID: 1, Name: "tour:read"},
		{ID: 2, Name: "tour:create"},
		{ID: 3, Name: "booking:read"},
		{ID: 4, Name: "booking:create"},
		{ID: 5, Name: "article:read"},
		{ID: 6, Name: "user:manage"},
	}
}

func TestPlanGrantsAdminGetsEverything(t *testing.T) {
	plan := PlanGrants([]Rule{{Role: "admin", All: true}}, catalogue())
	assert.Equal(t, []string{
		"article:read", "booking:create", "booking:read", "tour:create", "tour:read", "user:manage",
	}, plan["admin"])
}

func TestPlanGrantsWildcardAndLiteral(t *testing.T) {
	rules := []Rule{
		{Role: "operator", Patterns: []string{"tour:%"}},
		{Role: "customer", Patterns: []string{"tour:read", "booking:read", "booking:create"}},
	}
	plan := PlanGrants(rules, catalogue())
	assert.Equal(t, []string{"tour:create", "tour:read"}, plan["operator"])
	assert.Equal(t, []string{"booking:create", "booking:read", "tour:read"}, plan["customer"])
}

func TestPlanGrantsIdempotent(t *testing.T) {
	// Planning twice against the same catalogue yields identical grant
	// sets; the repository applies the plan destructively, so this is
	// what makes the sync procedure idempotent.
	first := PlanGrants(DefaultRules, catalogue())
	second := PlanGrants(DefaultRules, catalogue())
	assert.Equal(t, first, second)
}

func TestPlanGrantsUnmatchedRuleYieldsEmpty(t *testing.T) {
	plan := PlanGrants([]Rule{{Role: "ghost", Patterns: []string{"payment:%"}}}, catalogue())
	assert.Empty(t, plan["ghost"])
}
