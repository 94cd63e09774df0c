// Package credentialtest mints signed credentials for tests.
package credentialtest

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// Secret signs every credential minted by this package.
var Secret = []byte("credentialtest-secret")

type Claims struct {
	Subject   string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string // Optional jti, used to make otherwise identical tokens distinct
}

// Mint returns an HS256 token for c.
func Mint(t testing.TB, c Claims) string {
	t.Helper()

	mc := jwtlib.MapClaims{
		"sub":  c.Subject,
		"role": c.Role,
		"iat":  c.IssuedAt.Unix(),
		"exp":  c.ExpiresAt.Unix(),
	}
	if c.ID != "" {
		mc["jti"] = c.ID
	}

	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, mc).SignedString(Secret)
	require.NoError(t, err)
	return raw
}

// Pair mints an access credential expiring at accessExp and a refresh
// credential expiring at refreshExp for the same subject, both issued at 0.
func Pair(t testing.TB, subject string, accessExp, refreshExp int64) (access, refresh string) {
	t.Helper()

	access = Mint(t, Claims{
		Subject:   subject,
		Role:      "GUEST",
		IssuedAt:  time.Unix(0, 0),
		ExpiresAt: time.Unix(accessExp, 0),
		ID:        "access",
	})
	refresh = Mint(t, Claims{
		Subject:   subject,
		Role:      "GUEST",
		IssuedAt:  time.Unix(0, 0),
		ExpiresAt: time.Unix(refreshExp, 0),
		ID:        "refresh",
	})
	return access, refresh
}

// Access mints a GUEST access credential for subject expiring at exp.
func Access(t testing.TB, subject string, exp int64) string {
	t.Helper()

	return Mint(t, Claims{
		Subject:   subject,
		Role:      "GUEST",
		IssuedAt:  time.Unix(0, 0),
		ExpiresAt: time.Unix(exp, 0),
		ID:        "access",
	})
}
