package authx

// APIClient is the root client for authentication and identity.
type APIClient interface {
	// Sessions returns a specialized client for obtaining credentials.
	Sessions() SessionsClient
	// Users returns a specialized client for identity hydration.
	Users() UsersClient
}

type apiClient struct {
	sessionsClient SessionsClient
	usersClient    UsersClient
}

// NewAPIClient returns the root client for authentication and identity.
func NewAPIClient(apiAddress string, allowInsecure bool) APIClient {
	return &apiClient{
		sessionsClient: NewSessionsClient(apiAddress, allowInsecure),
		usersClient:    NewUsersClient(apiAddress, allowInsecure),
	}
}

func (a *apiClient) Sessions() SessionsClient {
	return a.sessionsClient
}

func (a *apiClient) Users() UsersClient {
	return a.usersClient
}
