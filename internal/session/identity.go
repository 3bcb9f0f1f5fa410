package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/xenking/salesledger/internal/domain/user"
)

// ErrMalformedToken is returned when an access token payload cannot be read.
var ErrMalformedToken = errors.New("malformed access token")

// Identity is the signed-in user as described by the access token payload.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      user.Role `json:"role"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// Expired reports whether the token carried an expiry that is already past.
func (id *Identity) Expired(now time.Time) bool {
	return !id.ExpiresAt.IsZero() && !now.Before(id.ExpiresAt)
}

// Can reports whether the identity's role may open route r.
func (id *Identity) Can(r Route) bool {
	return Allowed(id.Role, r)
}

// DecodeIdentity reads the identity claims from an access token without
// verifying its signature. The backend verifies tokens; the client only needs
// the claims to decide what to show.
func DecodeIdentity(token string) (*Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, errors.Wrap(ErrMalformedToken, err.Error())
	}

	id := &Identity{
		ID:    claimString(claims["sub"]),
		Email: claimString(claims["email"]),
		Role:  user.Role(claimString(claims["role"])),
	}
	if id.ID == "" {
		return nil, errors.Wrap(ErrMalformedToken, "missing subject")
	}

	id.Username = claimString(claims["username"])
	if id.Username == "" {
		id.Username, _, _ = strings.Cut(id.Email, "@")
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	return id, nil
}

// claimString renders string and numeric claims alike; user ids are numeric.
func claimString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
