package crypto

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	cookieIssuer   = "notes-api"
	cookieAudience = "notes-web"
)

var ErrInvalidCookie = errors.New("invalid session cookie")

// cookieClaims carries the opaque session token inside the signed cookie.
// Expiry is tracked by the session store, not by the cookie.
type cookieClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// SignSessionToken wraps a session token in an HS256-signed value suitable
// for a cookie.
func SignSessionToken(token, secret string) (string, error) {
	claims := cookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   cookieIssuer,
			Audience: jwt.ClaimStrings{cookieAudience},
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		SessionID: token,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseSessionToken verifies a signed cookie value and returns the session
// token it carries.
func ParseSessionToken(value, secret string) (string, error) {
	parsed, err := jwt.ParseWithClaims(value, &cookieClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCookie
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(cookieIssuer), jwt.WithAudience(cookieAudience))
	if err != nil {
		return "", ErrInvalidCookie
	}

	claims, ok := parsed.Claims.(*cookieClaims)
	if !ok || !parsed.Valid || claims.SessionID == "" {
		return "", ErrInvalidCookie
	}

	return claims.SessionID, nil
}
