package system

import (
	"context"
	"net/http"

	"github.com/krancour/guestflow/sdk/internal/restmachinery"
)

// Health is the result of an API health check.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// OK returns true if the API reported itself healthy.
func (h Health) OK() bool {
	return h.Status == "ok"
}

// HealthClient is the specialized client for checking the health of the API.
type HealthClient interface {
	// Check checks the health of the API. It requires no credentials.
	Check(context.Context) (Health, error)
}

type healthClient struct {
	*restmachinery.BaseClient
}

// NewHealthClient returns a specialized client for checking the health of the
// API.
func NewHealthClient(apiAddress string, allowInsecure bool) HealthClient {
	return &healthClient{
		BaseClient: restmachinery.NewBaseClient(apiAddress, allowInsecure),
	}
}

func (h *healthClient) Check(ctx context.Context) (Health, error) {
	health := Health{}
	return health, h.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:  http.MethodGet,
			Path:    "health",
			RespObj: &health,
		},
	)
}
