// Package auth resolves a stable identity for an incoming connection.
//
// The server accepts anonymous players, so identification is best effort:
// a provider either extracts a verified identity from the request or
// reports ErrAnonymous, in which case the caller mints a fresh one.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// ErrAnonymous means the request carried no credentials at all. It is not
// a failure; the caller should assign a generated identity instead.
var ErrAnonymous = errors.New("auth: no credentials presented")

// Provider extracts an identity from an HTTP request, typically the
// websocket upgrade request.
type Provider interface {
	Identify(r *http.Request) (string, error)
}

// JWTProvider validates HS256 tokens and uses the subject claim as the
// identity. Tokens are read from the "token" query parameter or, failing
// that, a cookie of the same name. This lets the same token work for both
// browser clients and plain websocket dialers.
type JWTProvider struct {
	secret []byte
}

func NewJWTProvider(secret string) *JWTProvider {
	return &JWTProvider{secret: []byte(secret)}
}

func (p *JWTProvider) Identify(r *http.Request) (string, error) {
	tokenStr := tokenFromRequest(r)
	if tokenStr == "" {
		return "", ErrAnonymous
	}

	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKey
		}
		return p.secret, nil
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, keyFunc)
	if err != nil || !token.Valid {
		return "", errors.New("auth: invalid or expired token")
	}
	if claims.Subject == "" {
		return "", errors.New("auth: token has no subject")
	}
	return claims.Subject, nil
}

func tokenFromRequest(r *http.Request) string {
	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok
	}
	if c, err := r.Cookie("token"); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}
