package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestIdentifyFromQuery(t *testing.T) {
	p := NewJWTProvider(testSecret)
	tok := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   "player-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	r := httptest.NewRequest("GET", "/ws?token="+tok, nil)
	identity, err := p.Identify(r)
	require.NoError(t, err)
	assert.Equal(t, "player-1", identity)
}

func TestIdentifyFromCookie(t *testing.T) {
	p := NewJWTProvider(testSecret)
	tok := signToken(t, testSecret, jwt.RegisteredClaims{Subject: "player-2"})

	r := httptest.NewRequest("GET", "/ws", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: tok})
	identity, err := p.Identify(r)
	require.NoError(t, err)
	assert.Equal(t, "player-2", identity)
}

func TestIdentifyAnonymous(t *testing.T) {
	p := NewJWTProvider(testSecret)
	r := httptest.NewRequest("GET", "/ws", nil)
	_, err := p.Identify(r)
	assert.ErrorIs(t, err, ErrAnonymous)
}

func TestIdentifyRejectsBadSignature(t *testing.T) {
	p := NewJWTProvider(testSecret)
	tok := signToken(t, "other-secret", jwt.RegisteredClaims{Subject: "player-3"})

	r := httptest.NewRequest("GET", "/ws?token="+tok, nil)
	_, err := p.Identify(r)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAnonymous)
}

func TestIdentifyRejectsExpiredToken(t *testing.T) {
	p := NewJWTProvider(testSecret)
	tok := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   "player-4",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})

	r := httptest.NewRequest("GET", "/ws?token="+tok, nil)
	_, err := p.Identify(r)
	assert.Error(t, err)
}

func TestIdentifyRejectsMissingSubject(t *testing.T) {
	p := NewJWTProvider(testSecret)
	tok := signToken(t, testSecret, jwt.RegisteredClaims{})

	r := httptest.NewRequest("GET", "/ws?token="+tok, nil)
	_, err := p.Identify(r)
	assert.Error(t, err)
}
