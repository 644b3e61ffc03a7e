package stubapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	perr "fundlink/internal/platform/errors"
)

// tokens issues and verifies bearer tokens for the stub API
type tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokens(secret string, ttl time.Duration) *tokens {
	return &tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for userID and returns it with its expiry
func (t *tokens) Issue(userID string) (string, time.Time, error) {
	expires := t.now().Add(t.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(t.now()),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, perr.Wrap(err, perr.ErrorCodeUnknown, "sign token")
	}
	return value, expires, nil
}

// Parse implements middleware.AuthPort over the Authorization header
func (t *tokens) Parse(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", perr.Unauthorizedf("Authentication required")
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", perr.Unauthorizedf("Malformed authorization header")
	}

	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{},
		func(tok *jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return t.now() }),
	)
	if err != nil || !parsed.Valid {
		return "", perr.Unauthorizedf("Invalid or expired token")
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", perr.Unauthorizedf("Invalid or expired token")
	}
	return claims.Subject, nil
}
