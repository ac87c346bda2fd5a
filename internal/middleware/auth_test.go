package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvx/tour-booking-auth/internal/authz"
	"github.com/locvx/tour-booking-auth/internal/model"
	"github.com/locvx/tour-booking-auth/internal/repository"
	"github.com/locvx/tour-booking-auth/internal/utils"
)

// ----- in-memory fakes -----

type fakeSessions struct {
	open map[string]bool
}

func (f *fakeSessions) Find(_ context.Context, uid string) (model.Session, error) {
	if f.open[uid] {
		return model.Session{ID: 1, UserUID: uid}, nil
	}
	return model.Session{}, repository.ErrSessionNotFound
}

type fakeUsers struct {
	byUUID map[string]model.User
}

func (f *fakeUsers) GetByUUID(_ context.Context, uid string) (model.User, error) {
	u, ok := f.byUUID[uid]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

type fakeGrants struct {
	byRole map[uint64][]string
	calls  int
}

func (f *fakeGrants) GrantsForRole(_ context.Context, roleID uint64) ([]string, error) {
	f.calls++
	return f.byRole[roleID], nil
}

func activeUser(uid string) model.User {
	return model.User{
		ID:           7,
		UUID:         uid,
		Username:     "thuy.le",
		PasswordHash: "$2a$10$irrelevant",
		FullName:     "Le Thu Thuy",
		Email:        sql.NullString{String: "thuy@example.com", Valid: true},
		Status:       model.StatusActive,
		RoleID:       3,
		Role:         &model.Role{ID: 3, Name: "customer"},
	}
}

func newTestAuthenticator(sessions *fakeSessions, users *fakeUsers, grants *fakeGrants) (*Authenticator, *utils.TokenIssuer) {
	issuer := utils.NewTokenIssuer("acc-secret", 15*time.Minute, "ref-secret", time.Hour)
	return NewAuthenticator(issuer, sessions, users, grants, authz.NewRoleCache(time.Minute)), issuer
}

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, model.PublicUser, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var (
		principal model.PublicUser
		reached   bool
	)
	h := mw(func(c echo.Context) error {
		principal, reached = CurrentUser(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, principal, reached
}

// ----- tests -----

func TestAuthenticateHappyPath(t *testing.T) {
	uid := "3f1c9a1e-5b7d-4c21-9f10-aaaaaaaaaaaa"
	sessions := &fakeSessions{open: map[string]bool{uid: true}}
	users := &fakeUsers{byUUID: map[string]model.User{uid: activeUser(uid)}}
	grants := &fakeGrants{byRole: map[uint64][]string{3: {"booking:create", "booking:read", "tour:read"}}}
	a, issuer := newTestAuthenticator(sessions, users, grants)

	tok, err := issuer.IssueAccess(uid, "Le Thu Thuy")
	require.NoError(t, err)

	rec, principal, ok := doRequest(t, a.Require(), "Bearer "+tok.Token)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uid, principal.UUID)
	assert.Equal(t, "customer", principal.Role)
	assert.Contains(t, principal.Permissions, "booking:read")
}

func TestAuthenticateMissingToken(t *testing.T) {
	a, _ := newTestAuthenticator(&fakeSessions{}, &fakeUsers{}, &fakeGrants{})

	rec, _, ok := doRequest(t, a.Require(), "")
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Error)
	assert.Equal(t, http.StatusUnauthorized, body.Status)
	assert.Equal(t, "/v1/me", body.Path)
	assert.NotEmpty(t, body.Timestamp)
}

func TestAuthenticateExpiredTokenUses419(t *testing.T) {
	uid := "3f1c9a1e-5b7d-4c21-9f10-bbbbbbbbbbbb"
	sessions := &fakeSessions{open: map[string]bool{uid: true}}
	users := &fakeUsers{byUUID: map[string]model.User{uid: activeUser(uid)}}
	a, _ := newTestAuthenticator(sessions, users, &fakeGrants{})

	expiredIssuer := utils.NewTokenIssuer("acc-secret", -time.Minute, "ref-secret", time.Hour)
	tok, err := expiredIssuer.IssueAccess(uid, "x")
	require.NoError(t, err)

	rec, _, ok := doRequest(t, a.Require(), "Bearer "+tok.Token)
	assert.False(t, ok)
	assert.Equal(t, StatusTokenExpired, rec.Code)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Message, "Lỗi Unauthorized: ")
}

func TestAuthenticateBadSignature(t *testing.T) {
	a, _ := newTestAuthenticator(&fakeSessions{}, &fakeUsers{}, &fakeGrants{})

	forged := utils.NewTokenIssuer("other-secret", 15*time.Minute, "x", time.Hour)
	tok, err := forged.IssueAccess("whoever", "x")
	require.NoError(t, err)

	rec, _, ok := doRequest(t, a.Require(), "Bearer "+tok.Token)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRevokedSession(t *testing.T) {
	// Valid unexpired token, but the session is gone: the request must
	// be rejected. This is the server-side revocation mechanism.
	uid := "3f1c9a1e-5b7d-4c21-9f10-cccccccccccc"
	sessions := &fakeSessions{open: map[string]bool{}}
	users := &fakeUsers{byUUID: map[string]model.User{uid: activeUser(uid)}}
	a, issuer := newTestAuthenticator(sessions, users, &fakeGrants{})

	tok, err := issuer.IssueAccess(uid, "x")
	require.NoError(t, err)

	rec, _, ok := doRequest(t, a.Require(), "Bearer "+tok.Token)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "session not found", body.Message)
}

func TestAuthenticateInactivePrincipal(t *testing.T) {
	uid := "3f1c9a1e-5b7d-4c21-9f10-dddddddddddd"
	u := activeUser(uid)
	u.Status = model.StatusInactive
	sessions := &fakeSessions{open: map[string]bool{uid: true}}
	users := &fakeUsers{byUUID: map[string]model.User{uid: u}}
	a, issuer := newTestAuthenticator(sessions, users, &fakeGrants{})

	tok, err := issuer.IssueAccess(uid, "x")
	require.NoError(t, err)

	rec, _, ok := doRequest(t, a.Require(), "Bearer "+tok.Token)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateUnknownPrincipal(t *testing.T) {
	uid := "3f1c9a1e-5b7d-4c21-9f10-eeeeeeeeeeee"
	sessions := &fakeSessions{open: map[string]bool{uid: true}}
	a, issuer := newTestAuthenticator(sessions, &fakeUsers{byUUID: map[string]model.User{}}, &fakeGrants{})

	tok, err := issuer.IssueAccess(uid, "x")
	require.NoError(t, err)

	rec, _, ok := doRequest(t, a.Require(), "Bearer "+tok.Token)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalPassesAnonymousThrough(t *testing.T) {
	a, _ := newTestAuthenticator(&fakeSessions{}, &fakeUsers{}, &fakeGrants{})

	rec, _, ok := doRequest(t, a.Optional(), "")
	assert.False(t, ok) // no principal attached
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _, ok = doRequest(t, a.Optional(), "Bearer garbage")
	assert.False(t, ok)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOptionalAttachesPrincipalWhenValid(t *testing.T) {
	uid := "3f1c9a1e-5b7d-4c21-9f10-ffffffffffff"
	sessions := &fakeSessions{open: map[string]bool{uid: true}}
	users := &fakeUsers{byUUID: map[string]model.User{uid: activeUser(uid)}}
	a, issuer := newTestAuthenticator(sessions, users, &fakeGrants{})

	tok, err := issuer.IssueAccess(uid, "x")
	require.NoError(t, err)

	rec, principal, ok := doRequest(t, a.Optional(), "Bearer "+tok.Token)
	assert.True(t, ok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uid, principal.UUID)
}

func TestGrantsAreCachedPerRole(t *testing.T) {
	uid := "3f1c9a1e-5b7d-4c21-9f10-abcdefabcdef"
	sessions := &fakeSessions{open: map[string]bool{uid: true}}
	users := &fakeUsers{byUUID: map[string]model.User{uid: activeUser(uid)}}
	grants := &fakeGrants{byRole: map[uint64][]string{3: {"tour:read"}}}
	a, issuer := newTestAuthenticator(sessions, users, grants)

	tok, err := issuer.IssueAccess(uid, "x")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		rec, _, ok := doRequest(t, a.Require(), "Bearer "+tok.Token)
		require.True(t, ok)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 1, grants.calls)
}

func TestSanitizedPrincipalOmitsSecrets(t *testing.T) {
	u := activeUser("uid")
	p := u.Public([]string{"tour:read"})

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	s := string(raw)
	assert.NotContains(t, s, "password")
	assert.NotContains(t, s, "$2a$10$")
	assert.NotContains(t, s, "status")
	assert.NotContains(t, s, "login_type")
}
