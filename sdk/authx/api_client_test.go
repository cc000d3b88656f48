package authx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAPIClient(t *testing.T) {
	client := NewAPIClient("http://localhost:8000", testClientAllowInsecure)
	require.IsType(t, &apiClient{}, client)
	require.NotNil(t, client.(*apiClient).sessionsClient)
	require.NotNil(t, client.Sessions())
	require.NotNil(t, client.(*apiClient).usersClient)
	require.NotNil(t, client.Users())
}
