package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssuer() *TokenIssuer {
	return NewTokenIssuer("access-secret", 15*time.Minute, "refresh-secret", 30*24*time.Hour)
}

func TestIssueAndParseAccess(t *testing.T) {
	iss := testIssuer()

	tok, err := iss.IssueAccess("uuid-1", "Nguyen Van A")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

	claims, err := iss.ParseAccess(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "uuid-1", claims.UUID)
	assert.Equal(t, "Nguyen Van A", claims.FullName)
}

func TestRefreshCarriesOnlyUUID(t *testing.T) {
	iss := testIssuer()

	tok, err := iss.IssueRefresh("uuid-2")
	require.NoError(t, err)

	claims, err := iss.ParseRefresh(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "uuid-2", claims.UUID)

	// A refresh token must not verify as an access token: the two kinds
	// use independent secrets.
	_, err = iss.ParseAccess(tok.Token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestParseExpired(t *testing.T) {
	iss := NewTokenIssuer("access-secret", -time.Minute, "refresh-secret", -time.Minute)

	tok, err := iss.IssueAccess("uuid-3", "x")
	require.NoError(t, err)

	_, err = iss.ParseAccess(tok.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	ref, err := iss.IssueRefresh("uuid-3")
	require.NoError(t, err)
	_, err = iss.ParseRefresh(ref.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseWrongSecret(t *testing.T) {
	iss := testIssuer()
	other := NewTokenIssuer("different", 15*time.Minute, "also-different", time.Hour)

	tok, err := iss.IssueAccess("uuid-4", "x")
	require.NoError(t, err)

	_, err = other.ParseAccess(tok.Token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestParseGarbage(t *testing.T) {
	_, err := testIssuer().ParseAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestParseRejectsNonHMAC(t *testing.T) {
	// alg=none token; the keyfunc pins HMAC so this must be malformed,
	// not expired or accepted.
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"uuid": "uuid-5",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = testIssuer().ParseAccess(raw)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}
