package core

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/krancour/guestflow/sdk/internal/restmachinery"
	"github.com/krancour/guestflow/sdk/meta"
)

// Guest represents a restaurant guest.
type Guest struct {
	ID           string                 `json:"id"`
	RestaurantID string                 `json:"restaurant_id"`
	Phone        string                 `json:"phone"`
	Name         *string                `json:"name"`
	Birthday     *string                `json:"birthday"`
	Preferences  map[string]interface{} `json:"preferences"`
	TelegramID   *int64                 `json:"telegram_id"`
	VisitCount   int                    `json:"visit_count"`
	FirstVisitAt *time.Time             `json:"first_visit_at"`
	LastVisitAt  *time.Time             `json:"last_visit_at"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// DisplayName returns the Guest's name, or their phone number if they have
// no name on record.
func (g Guest) DisplayName() string {
	if g.Name != nil && *g.Name != "" {
		return *g.Name
	}
	return g.Phone
}

// GuestCreateInput is the body of a request to create a Guest.
type GuestCreateInput struct {
	Phone       string                 `json:"phone"`
	Name        *string                `json:"name,omitempty"`
	Birthday    *string                `json:"birthday,omitempty"`
	Preferences map[string]interface{} `json:"preferences,omitempty"`
}

// GuestUpdateInput is the body of a request to update a Guest. Nil fields are
// left unchanged.
type GuestUpdateInput struct {
	Phone       *string                `json:"phone,omitempty"`
	Name        *string                `json:"name,omitempty"`
	Birthday    *string                `json:"birthday,omitempty"`
	Preferences map[string]interface{} `json:"preferences,omitempty"`
}

// GuestsSelector represents useful filter criteria when selecting multiple
// Guests for API group operations like list.
type GuestsSelector struct {
	// Search matches guests by phone number or name.
	Search string
	// Page is a 1-based page number. Zero means "unspecified".
	Page int
	// Limit is the maximum page size. Zero means "unspecified".
	Limit int
}

// GuestList is an ordered and pageable list of Guests.
type GuestList struct {
	meta.ListMeta `json:",inline"`
	Items         []Guest `json:"items"`
}

// UnmarshalJSON accepts either a bare array of Guests or a page of the form
// {"items": [...], "total": n}.
func (g *GuestList) UnmarshalJSON(data []byte) error {
	items := []Guest{}
	listMeta, err := meta.UnmarshalList(data, &items)
	if err != nil {
		return err
	}
	g.ListMeta = listMeta
	g.Items = items
	return nil
}

// GuestsClient is the specialized client for managing Guests.
type GuestsClient interface {
	// List returns a GuestList.
	List(context.Context, string, GuestsSelector) (GuestList, error)
	// Get retrieves a single Guest specified by its identifier.
	Get(ctx context.Context, token, id string) (Guest, error)
	// Create creates a new Guest.
	Create(context.Context, string, GuestCreateInput) (Guest, error)
	// Update updates an existing Guest.
	Update(ctx context.Context, token, id string, input GuestUpdateInput) (Guest, error)
}

type guestsClient struct {
	*restmachinery.BaseClient
}

// NewGuestsClient returns a specialized client for managing Guests.
func NewGuestsClient(apiAddress string, allowInsecure bool) GuestsClient {
	return &guestsClient{
		BaseClient: restmachinery.NewBaseClient(apiAddress, allowInsecure),
	}
}

func (g *guestsClient) List(
	ctx context.Context,
	token string,
	selector GuestsSelector,
) (GuestList, error) {
	queryParams := map[string]string{}
	if selector.Search != "" {
		queryParams["search"] = selector.Search
	}
	if selector.Page > 0 {
		queryParams["page"] = strconv.Itoa(selector.Page)
	}
	if selector.Limit > 0 {
		queryParams["limit"] = strconv.Itoa(selector.Limit)
	}
	guests := GuestList{}
	return guests, g.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        "guests",
			AuthHeaders: g.BearerTokenAuthHeaders(token),
			QueryParams: queryParams,
			RespObj:     &guests,
		},
	)
}

func (g *guestsClient) Get(
	ctx context.Context,
	token string,
	id string,
) (Guest, error) {
	guest := Guest{}
	return guest, g.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        fmt.Sprintf("guests/%s", id),
			AuthHeaders: g.BearerTokenAuthHeaders(token),
			RespObj:     &guest,
		},
	)
}

func (g *guestsClient) Create(
	ctx context.Context,
	token string,
	input GuestCreateInput,
) (Guest, error) {
	guest := Guest{}
	return guest, g.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodPost,
			Path:        "guests",
			AuthHeaders: g.BearerTokenAuthHeaders(token),
			ReqBodyObj:  input,
			RespObj:     &guest,
		},
	)
}

func (g *guestsClient) Update(
	ctx context.Context,
	token string,
	id string,
	input GuestUpdateInput,
) (Guest, error) {
	guest := Guest{}
	return guest, g.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodPatch,
			Path:        fmt.Sprintf("guests/%s", id),
			AuthHeaders: g.BearerTokenAuthHeaders(token),
			ReqBodyObj:  input,
			RespObj:     &guest,
		},
	)
}
