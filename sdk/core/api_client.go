package core

// APIClient is the root client for restaurant resources.
type APIClient interface {
	// Guests returns a specialized client for Guest management.
	Guests() GuestsClient
	// Tables returns a specialized client for Table management.
	Tables() TablesClient
	// Bookings returns a specialized client for Booking management.
	Bookings() BookingsClient
}

type apiClient struct {
	guestsClient   GuestsClient
	tablesClient   TablesClient
	bookingsClient BookingsClient
}

// NewAPIClient returns the root client for restaurant resources.
func NewAPIClient(apiAddress string, allowInsecure bool) APIClient {
	return &apiClient{
		guestsClient:   NewGuestsClient(apiAddress, allowInsecure),
		tablesClient:   NewTablesClient(apiAddress, allowInsecure),
		bookingsClient: NewBookingsClient(apiAddress, allowInsecure),
	}
}

func (a *apiClient) Guests() GuestsClient {
	return a.guestsClient
}

func (a *apiClient) Tables() TablesClient {
	return a.tablesClient
}

func (a *apiClient) Bookings() BookingsClient {
	return a.bookingsClient
}
