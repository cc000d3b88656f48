// Package sdk is the root of the GuestFlow API client. APIClient bundles the
// specialized clients for authentication, restaurant resources, and system
// operations.
package sdk

import (
	"github.com/krancour/guestflow/sdk/authx"
	"github.com/krancour/guestflow/sdk/core"
	"github.com/krancour/guestflow/sdk/system"
)

// DefaultAPIAddress is the API origin used when none is configured.
const DefaultAPIAddress = "http://localhost:8000"

// APIClient is the root client for the GuestFlow API.
type APIClient interface {
	// Authx returns the client for authentication and identity.
	Authx() authx.APIClient
	// Core returns the client for guests, tables, and bookings.
	Core() core.APIClient
	// Health returns the client for API health checks.
	Health() system.HealthClient
}

type apiClient struct {
	authxClient  authx.APIClient
	coreClient   core.APIClient
	healthClient system.HealthClient
}

// NewAPIClient returns the root client for the GuestFlow API at the given
// address. An empty address selects DefaultAPIAddress.
func NewAPIClient(apiAddress string, allowInsecure bool) APIClient {
	if apiAddress == "" {
		apiAddress = DefaultAPIAddress
	}
	return &apiClient{
		authxClient:  authx.NewAPIClient(apiAddress, allowInsecure),
		coreClient:   core.NewAPIClient(apiAddress, allowInsecure),
		healthClient: system.NewHealthClient(apiAddress, allowInsecure),
	}
}

func (a *apiClient) Authx() authx.APIClient {
	return a.authxClient
}

func (a *apiClient) Core() core.APIClient {
	return a.coreClient
}

func (a *apiClient) Health() system.HealthClient {
	return a.healthClient
}
