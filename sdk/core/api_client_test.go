package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAPIClient(t *testing.T) {
	client := NewAPIClient("http://localhost:8000", testClientAllowInsecure)
	require.IsType(t, &apiClient{}, client)
	require.NotNil(t, client.(*apiClient).guestsClient)
	require.NotNil(t, client.Guests())
	require.NotNil(t, client.(*apiClient).tablesClient)
	require.NotNil(t, client.Tables())
	require.NotNil(t, client.(*apiClient).bookingsClient)
	require.NotNil(t, client.Bookings())
}
