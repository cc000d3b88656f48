package main

import (
	"github.com/krancour/guestflow/internal/credentials"
	"github.com/krancour/guestflow/internal/session"
	"github.com/krancour/guestflow/sdk"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// apiSession bundles a client for the GuestFlow API with the session that
// supplies its access tokens.
type apiSession struct {
	client  sdk.APIClient
	manager session.Manager
}

// getAPIAddress returns the address given by the --server flag, or else the
// one saved at login, or else the default.
func getAPIAddress(c *cli.Context) (string, error) {
	if address := c.String(flagServer); address != "" {
		return address, nil
	}
	config, err := getConfig()
	if err != nil {
		return "", errors.Wrapf(err, "error retrieving configuration")
	}
	if config.APIAddress != "" {
		return config.APIAddress, nil
	}
	return sdk.DefaultAPIAddress, nil
}

// newAPISession returns an apiSession backed by the credentials file in the
// guestflow home directory. The session is not started.
func newAPISession(c *cli.Context) (*apiSession, error) {
	address, err := getAPIAddress(c)
	if err != nil {
		return nil, err
	}
	store, err := credentials.NewHomeFileStore()
	if err != nil {
		return nil, errors.Wrap(err, "error opening credentials store")
	}
	client := sdk.NewAPIClient(address, c.Bool(flagInsecure))
	return &apiSession{
		client: client,
		manager: session.NewManager(
			session.NewAuthClient(client.Authx()),
			store,
			nil,
		),
	}, nil
}

// getAPISession returns a started apiSession. It fails if the saved
// credentials are missing or no longer accepted by the API.
func getAPISession(c *cli.Context) (*apiSession, error) {
	s, err := newAPISession(c)
	if err != nil {
		return nil, err
	}
	s.manager.Start(c.Context)
	if s.manager.AccessToken() == "" {
		return nil, errors.New(
			"you are not logged in; please use `guestflow login` to continue",
		)
	}
	return s, nil
}
