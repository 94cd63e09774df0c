package devserver

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/hotel-session/authapi"
	"github.com/jrsteele09/hotel-session/clock"
)

// Token types, carried in the typ claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are the claims the issuer puts in every token.
type Claims struct {
	Role string `json:"role"`
	Type string `json:"typ"`
	jwtlib.RegisteredClaims
}

// Issuer mints and verifies access and refresh tokens.
type Issuer struct {
	signer     Signer
	clock      clock.Clock
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewIssuer(signer Signer, clk clock.Clock, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		signer:     signer,
		clock:      clk,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssuePair mints a fresh access and refresh token for user.
func (i *Issuer) IssuePair(user *User) (*authapi.TokenPair, error) {
	access, err := i.Issue(user, TypeAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := i.Issue(user, TypeRefresh)
	if err != nil {
		return nil, err
	}
	return &authapi.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *Issuer) Issue(user *User, typ string) (string, error) {
	ttl := i.accessTTL
	if typ == TypeRefresh {
		ttl = i.refreshTTL
	}

	now := i.clock.Now()
	claims := jwtlib.MapClaims{
		"sub":  user.ID,             // The user the token was issued to
		"role": string(user.Role),   // Hotel role, used for authorization
		"typ":  typ,                 // access or refresh
		"iat":  now.Unix(),          // Issued At
		"exp":  now.Add(ttl).Unix(), // Expiry
		"jti":  uuid.New().String(), // Unique token ID
	}

	signed, err := i.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("[Issuer Issue] %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and that the token is of type typ.
func (i *Issuer) Verify(raw, typ string) (*Claims, error) {
	c := &Claims{}
	token, err := jwtlib.ParseWithClaims(raw, c, i.signer.GetVerificationKey,
		jwtlib.WithValidMethods([]string{i.signer.GetSigningMethod().Alg()}),
		jwtlib.WithTimeFunc(i.clock.Now),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if c.Type != typ {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, typ, c.Type)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	return c, nil
}
