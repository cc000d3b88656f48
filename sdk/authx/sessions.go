package authx

import (
	"context"
	"net/http"

	"github.com/krancour/guestflow/sdk/internal/restmachinery"
	"github.com/pkg/errors"
)

// TokenPair is the pair of credentials issued by the API on login or refresh.
type TokenPair struct {
	AccessToken string `json:"access_token"`
	// RefreshToken may be empty in a refresh response, in which case the
	// previously issued refresh token remains valid.
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// SessionsClient is the specialized client for obtaining GuestFlow API
// credentials.
type SessionsClient interface {
	// Login exchanges an email address and password for a TokenPair.
	Login(ctx context.Context, email, password string) (TokenPair, error)
	// Refresh exchanges a refresh token for a new TokenPair.
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
}

type sessionsClient struct {
	*restmachinery.BaseClient
}

// NewSessionsClient returns a specialized client for obtaining GuestFlow API
// credentials.
func NewSessionsClient(apiAddress string, allowInsecure bool) SessionsClient {
	return &sessionsClient{
		BaseClient: restmachinery.NewBaseClient(apiAddress, allowInsecure),
	}
}

func (s *sessionsClient) Login(
	ctx context.Context,
	email string,
	password string,
) (TokenPair, error) {
	tokens := TokenPair{}
	if err := s.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method: http.MethodPost,
			Path:   "auth/login",
			ReqBodyObj: struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}{
				Email:    email,
				Password: password,
			},
			RespObj: &tokens,
		},
	); err != nil {
		return tokens, err
	}
	if tokens.AccessToken == "" {
		return tokens, errors.New("login response did not include an access token")
	}
	return tokens, nil
}

func (s *sessionsClient) Refresh(
	ctx context.Context,
	refreshToken string,
) (TokenPair, error) {
	tokens := TokenPair{}
	if err := s.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method: http.MethodPost,
			Path:   "auth/refresh",
			ReqBodyObj: struct {
				RefreshToken string `json:"refresh_token"`
			}{
				RefreshToken: refreshToken,
			},
			RespObj: &tokens,
		},
	); err != nil {
		return tokens, err
	}
	if tokens.AccessToken == "" {
		return tokens,
			errors.New("refresh response did not include an access token")
	}
	return tokens, nil
}
