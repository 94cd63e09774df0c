package gate

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// Transport is an http.RoundTripper that sends every request through a Gate.
type Transport struct {
	Gate *Gate
	// Base is the underlying RoundTripper. http.DefaultTransport when nil.
	Base http.RoundTripper
}

var _ http.RoundTripper = (*Transport)(nil)

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out, err := t.Gate.Prepare(req.Context(), req)
	if err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, err
	}
	return t.base().RoundTrip(out)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// Client returns an http.Client whose requests pass through the gate.
func (g *Gate) Client() *http.Client {
	return &http.Client{Transport: &Transport{Gate: g}}
}

// TokenSource adapts the gate for golang.org/x/oauth2 consumers. Each Token
// call applies the same fast path and refresh rules as Prepare.
func (g *Gate) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, gate: g}
}

type tokenSource struct {
	ctx  context.Context
	gate *Gate
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	cred, err := ts.gate.credential(ts.ctx)
	if err != nil {
		return nil, fmt.Errorf("[gate Token] %w", err)
	}
	return &oauth2.Token{
		AccessToken: cred.Raw,
		TokenType:   "Bearer",
		Expiry:      cred.ExpiresAt,
	}, nil
}
