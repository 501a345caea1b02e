package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rebeliceyang/lazyca/internal/models"
)

// ErrTokenExpired is returned for a token past its expiry
var ErrTokenExpired = errors.New("token expired")

// tokenClaims are the claims issued by the backend: the login as subject and
// the authorities as a comma separated "auth" claim
type tokenClaims struct {
	Auth string `json:"auth"`
	jwt.RegisteredClaims
}

// AccountFromToken reads login and authorities from a bearer token without
// verifying the signature; the backend verifies it on every request.
func AccountFromToken(token string, now time.Time) (*models.Account, error) {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.ExpiresAt != nil && now.After(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}

	account := &models.Account{Login: claims.Subject, Authorities: []string{}}
	for _, a := range strings.Split(claims.Auth, ",") {
		if a = strings.TrimSpace(a); a != "" {
			account.Authorities = append(account.Authorities, a)
		}
	}
	return account, nil
}
