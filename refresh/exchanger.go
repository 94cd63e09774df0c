package refresh

import (
	"context"

	"github.com/jrsteele09/hotel-session/authapi"
)

// Exchanger performs the network exchange of a refresh credential. refresh is
// empty when the server did not rotate the refresh credential.
type Exchanger interface {
	Exchange(ctx context.Context, refreshToken string) (access, refresh string, err error)
}

// ExchangerFunc adapts a function to Exchanger.
type ExchangerFunc func(ctx context.Context, refreshToken string) (string, string, error)

func (f ExchangerFunc) Exchange(ctx context.Context, refreshToken string) (string, string, error) {
	return f(ctx, refreshToken)
}

// HTTPExchanger calls POST /open/refresh through an authapi.Client.
type HTTPExchanger struct {
	client *authapi.Client
}

var _ Exchanger = (*HTTPExchanger)(nil)

func NewHTTPExchanger(client *authapi.Client) *HTTPExchanger {
	return &HTTPExchanger{client: client}
}

func (e *HTTPExchanger) Exchange(ctx context.Context, refreshToken string) (string, string, error) {
	pair, err := e.client.Refresh(ctx, refreshToken)
	if err != nil {
		return "", "", err
	}
	return pair.AccessToken, pair.RefreshToken, nil
}
