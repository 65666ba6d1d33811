// Package auth derives the local user's identity from the bearer token the
// chat backend issued. The token is not verified here; the server does that
// during the handshake.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vovakirdan/wirechat-client/internal/core"
)

var (
	ErrTokenMalformed = errors.New("malformed token")
	ErrTokenExpired   = errors.New("token expired")
	ErrNoSubject      = errors.New("token carries no user")
)

// Claims mirrors the claims WireChat servers put into access tokens.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	IsGuest  bool   `json:"is_guest"`
	jwt.RegisteredClaims
}

// IdentityFromToken reads the user id and display name from token. The
// registered subject is used when user_id is absent.
func IdentityFromToken(token string, now time.Time) (core.Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return core.Identity{}, core.ErrCredentialMissing
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return core.Identity{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return core.Identity{}, fmt.Errorf("%w at %s", ErrTokenExpired, claims.ExpiresAt.Time.Format(time.RFC3339))
	}

	id := claims.Subject
	if claims.UserID != 0 {
		id = strconv.FormatInt(claims.UserID, 10)
	}
	if id == "" {
		return core.Identity{}, ErrNoSubject
	}
	return core.Identity{ID: id, DisplayName: claims.Username}, nil
}
