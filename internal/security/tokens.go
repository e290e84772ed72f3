package security

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed, expired, signed
// with the wrong secret, or of the wrong class (access vs refresh).
var ErrInvalidToken = errors.New("invalid token")

// TokenClaims is the claim set carried by both token classes. The subject is
// always a session id, never a user id: identity is recovered by
// dereferencing the session row. Refresh tokens carry Refresh=true; access
// tokens omit the field entirely.
type TokenClaims struct {
	Refresh bool `json:"refresh,omitempty"`
	jwt.RegisteredClaims
}

// TokenProvider issues and validates HS256 access and refresh tokens.
// The two classes are signed with distinct secrets so that compromise of one
// key cannot forge the other class.
type TokenProvider struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenProvider returns a TokenProvider with the given secrets and TTLs.
// accessSecret and refreshSecret must differ.
func NewTokenProvider(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// IssueAccess issues a short-lived access token whose subject is sessionID.
func (p *TokenProvider) IssueAccess(sessionID string) (string, error) {
	return p.sign(sessionID, false, p.accessSecret, p.accessTTL)
}

// IssueRefresh issues a long-lived refresh token whose subject is sessionID,
// marked with the refresh claim.
func (p *TokenProvider) IssueRefresh(sessionID string) (string, error) {
	return p.sign(sessionID, true, p.refreshSecret, p.refreshTTL)
}

func (p *TokenProvider) sign(sessionID string, refresh bool, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := TokenClaims{
		Refresh: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseAccess validates tokenString as an access token: HS256 signature with
// the access secret, unexpired, and not carrying the refresh marker. A
// refresh token is rejected here even if it were otherwise valid.
func (p *TokenProvider) ParseAccess(tokenString string) (*TokenClaims, error) {
	claims, err := p.parse(tokenString, p.accessSecret)
	if err != nil {
		return nil, err
	}
	if claims.Refresh {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseRefresh validates tokenString as a refresh token: HS256 signature
// with the refresh secret, unexpired, and carrying the refresh marker.
// Access tokens never satisfy it.
func (p *TokenProvider) ParseRefresh(tokenString string) (*TokenClaims, error) {
	claims, err := p.parse(tokenString, p.refreshSecret)
	if err != nil {
		return nil, err
	}
	if !claims.Refresh {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *TokenProvider) parse(tokenString string, secret []byte) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

const bearerPrefix = "bearer "

// StripBearer returns the token from an Authorization header value, or ""
// when the header is missing or not a Bearer credential.
func StripBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) <= len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
