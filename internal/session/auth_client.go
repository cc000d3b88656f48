package session

import (
	"context"

	"github.com/krancour/guestflow/sdk/authx"
)

// AuthClient is the subset of the authentication API a Manager depends on.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (authx.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (authx.TokenPair, error)
	Me(ctx context.Context, token string) (authx.User, error)
}

type authClient struct {
	client authx.APIClient
}

// NewAuthClient adapts an authx.APIClient to the AuthClient interface.
func NewAuthClient(client authx.APIClient) AuthClient {
	return &authClient{
		client: client,
	}
}

func (a *authClient) Login(
	ctx context.Context,
	email string,
	password string,
) (authx.TokenPair, error) {
	return a.client.Sessions().Login(ctx, email, password)
}

func (a *authClient) Refresh(
	ctx context.Context,
	refreshToken string,
) (authx.TokenPair, error) {
	return a.client.Sessions().Refresh(ctx, refreshToken)
}

func (a *authClient) Me(ctx context.Context, token string) (authx.User, error) {
	return a.client.Users().Me(ctx, token)
}
