package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvx/tour-booking-auth/internal/model"
)

func runPermissionCheck(t *testing.T, principal *model.PublicUser, permission string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/bookings", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if principal != nil {
		c.Set(principalKey, *principal)
	}
	h := RequirePermission(permission)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec
}

func TestRequirePermissionExactGrant(t *testing.T) {
	p := &model.PublicUser{UUID: "u1", Role: "customer", Permissions: []string{"booking:read", "booking:create"}}
	rec := runPermissionCheck(t, p, "booking:read")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePermissionWildcardGrant(t *testing.T) {
	p := &model.PublicUser{UUID: "u2", Role: "operator", Permissions: []string{"tour:%"}}
	rec := runPermissionCheck(t, p, "tour:update")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePermissionDenied(t *testing.T) {
	p := &model.PublicUser{UUID: "u3", Role: "customer", Permissions: []string{"booking:read"}}
	rec := runPermissionCheck(t, p, "booking:update")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequirePermissionAnonymous(t *testing.T) {
	rec := runPermissionCheck(t, nil, "booking:read")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
