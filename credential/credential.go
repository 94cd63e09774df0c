package credential

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	autherrors "github.com/jrsteele09/hotel-session/internal/errors"
)

// Credential is a decoded access or refresh token. Values are never mutated; a
// refresh always yields a new Credential.
type Credential struct {
	Raw       string    // The signed token string exactly as issued
	Subject   string    // User identifier (sub)
	Role      string    // Authorization tag (role)
	IssuedAt  time.Time // iat
	ExpiresAt time.Time // exp
}

// ValidAt reports whether the credential is still usable at t with margin to spare.
func (c Credential) ValidAt(t time.Time, margin time.Duration) bool {
	return c.ExpiresAt.After(t.Add(margin))
}

// ExpiredAt reports whether the credential's own expiry has passed at t.
func (c Credential) ExpiredAt(t time.Time) bool {
	return !c.ExpiresAt.After(t)
}

func (c Credential) IsZero() bool {
	return c.Raw == ""
}

// Decoder turns raw token strings into Credentials.
type Decoder interface {
	Decode(raw string) (Credential, error)
}

// claims is the shape of the hotel backend's tokens. Some issuers send a roles
// array instead of a single role.
type claims struct {
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwtlib.RegisteredClaims
}

type jwtDecoder struct {
	key    []byte
	parser *jwtlib.Parser
}

type DecoderOption func(*jwtDecoder)

// WithVerificationKey makes the decoder verify HMAC signatures with secret.
// Without it signatures are not checked, which is what a browser client does.
func WithVerificationKey(secret []byte) DecoderOption {
	return func(d *jwtDecoder) {
		d.key = secret
	}
}

func NewDecoder(options ...DecoderOption) Decoder {
	d := &jwtDecoder{}
	for _, opt := range options {
		opt(d)
	}

	// Expiry is the session's business, not the decoder's: an expired token
	// must still decode.
	parserOpts := []jwtlib.ParserOption{jwtlib.WithoutClaimsValidation()}
	if d.key != nil {
		parserOpts = append(parserOpts, jwtlib.WithValidMethods([]string{
			jwtlib.SigningMethodHS256.Alg(),
			jwtlib.SigningMethodHS384.Alg(),
			jwtlib.SigningMethodHS512.Alg(),
		}))
	}
	d.parser = jwtlib.NewParser(parserOpts...)
	return d
}

func (d *jwtDecoder) Decode(raw string) (Credential, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Credential{}, autherrors.Wrapf(autherrors.ErrMalformedCredential, "empty token")
	}

	c := &claims{}
	if d.key == nil {
		if _, _, err := d.parser.ParseUnverified(raw, c); err != nil {
			return Credential{}, malformed(err)
		}
	} else {
		token, err := d.parser.ParseWithClaims(raw, c, func(*jwtlib.Token) (any, error) {
			return d.key, nil
		})
		if err != nil || !token.Valid {
			return Credential{}, malformed(err)
		}
	}

	return fromClaims(raw, c)
}

func fromClaims(raw string, c *claims) (Credential, error) {
	role := c.Role
	if role == "" && len(c.Roles) > 0 {
		role = c.Roles[0]
	}

	switch {
	case c.Subject == "":
		return Credential{}, autherrors.Wrapf(autherrors.ErrMalformedCredential, "missing sub claim")
	case role == "":
		return Credential{}, autherrors.Wrapf(autherrors.ErrMalformedCredential, "missing role claim")
	case c.IssuedAt == nil:
		return Credential{}, autherrors.Wrapf(autherrors.ErrMalformedCredential, "missing iat claim")
	case c.ExpiresAt == nil:
		return Credential{}, autherrors.Wrapf(autherrors.ErrMalformedCredential, "missing exp claim")
	}

	return Credential{
		Raw:       raw,
		Subject:   c.Subject,
		Role:      role,
		IssuedAt:  c.IssuedAt.Time,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

func malformed(err error) error {
	if err == nil {
		return autherrors.ErrMalformedCredential
	}
	return autherrors.Join(autherrors.ErrMalformedCredential, err)
}
