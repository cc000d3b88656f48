package core

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/krancour/guestflow/sdk/internal/restmachinery"
	"github.com/krancour/guestflow/sdk/meta"
	"github.com/pkg/errors"
)

// BookingSource represents where a Booking originated.
type BookingSource string

const (
	// BookingSourceBot represents a Booking made through the messaging bot.
	BookingSourceBot BookingSource = "bot"
	// BookingSourceManual represents a Booking entered by staff.
	BookingSourceManual BookingSource = "manual"
	// BookingSourceWalkIn represents guests who arrived without a Booking.
	BookingSourceWalkIn BookingSource = "walk_in"
)

// BookingGuest is the abbreviated Guest the API may embed in a Booking.
type BookingGuest struct {
	ID    string  `json:"id"`
	Name  *string `json:"name"`
	Phone string  `json:"phone"`
}

// BookingTable is the abbreviated Table the API may embed in a Booking.
type BookingTable struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Booking represents a reservation of a Table by a Guest.
type Booking struct {
	ID              string        `json:"id"`
	RestaurantID    string        `json:"restaurant_id"`
	GuestID         string        `json:"guest_id"`
	TableID         *string       `json:"table_id"`
	BookedAt        time.Time     `json:"booked_at"`
	DurationMinutes int           `json:"duration_minutes"`
	BufferMinutes   int           `json:"buffer_minutes"`
	GuestsCount     int           `json:"guests_count"`
	Status          BookingStatus `json:"status"`
	Source          BookingSource `json:"source"`
	ConfirmedAt     *time.Time    `json:"confirmed_at"`
	ArrivedAt       *time.Time    `json:"arrived_at"`
	CompletedAt     *time.Time    `json:"completed_at"`
	CreatedByUserID *string       `json:"created_by_user_id"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	Guest           *BookingGuest `json:"guest,omitempty"`
	Table           *BookingTable `json:"table,omitempty"`
}

// BookingCreateInput is the body of a request to create a Booking.
type BookingCreateInput struct {
	GuestID         string        `json:"guest_id"`
	TableID         *string       `json:"table_id,omitempty"`
	BookedAt        time.Time     `json:"booked_at"`
	DurationMinutes *int          `json:"duration_minutes,omitempty"`
	BufferMinutes   *int          `json:"buffer_minutes,omitempty"`
	GuestsCount     int           `json:"guests_count"`
	Source          BookingSource `json:"source,omitempty"`
}

// BookingUpdateInput is the body of a request to update a Booking. Nil fields
// are left unchanged.
type BookingUpdateInput struct {
	TableID         *string    `json:"table_id,omitempty"`
	BookedAt        *time.Time `json:"booked_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	BufferMinutes   *int       `json:"buffer_minutes,omitempty"`
	GuestsCount     *int       `json:"guests_count,omitempty"`
}

// BookingsSelector represents useful filter criteria when selecting multiple
// Bookings for API group operations like list. Empty fields are not applied.
type BookingsSelector struct {
	// DateFrom and DateTo bound the booked_at of selected Bookings. Each is a
	// date (2006-01-02) or a full RFC 3339 timestamp.
	DateFrom string
	DateTo   string
	Status   BookingStatus
	TableID  string
	GuestID  string
}

// BookingList is an ordered list of Bookings.
type BookingList struct {
	meta.ListMeta `json:",inline"`
	Items         []Booking `json:"items"`
}

// UnmarshalJSON accepts either a bare array of Bookings or a page of the form
// {"items": [...], "total": n}.
func (b *BookingList) UnmarshalJSON(data []byte) error {
	items := []Booking{}
	listMeta, err := meta.UnmarshalList(data, &items)
	if err != nil {
		return err
	}
	b.ListMeta = listMeta
	b.Items = items
	return nil
}

// BookingCalendar is the slot grid for a single day.
type BookingCalendar struct {
	Slots []map[string]interface{} `json:"slots"`
}

// BookingsClient is the specialized client for managing Bookings.
type BookingsClient interface {
	// List returns a BookingList.
	List(context.Context, string, BookingsSelector) (BookingList, error)
	// Calendar returns the slot grid for the given date (2006-01-02).
	Calendar(ctx context.Context, token, date string) (BookingCalendar, error)
	// Get retrieves a single Booking specified by its identifier.
	Get(ctx context.Context, token, id string) (Booking, error)
	// Create creates a new Booking.
	Create(context.Context, string, BookingCreateInput) (Booking, error)
	// Update updates an existing Booking.
	Update(ctx context.Context, token, id string, input BookingUpdateInput) (Booking, error)
	// Confirm confirms a Booking, optionally assigning a Table to it.
	Confirm(ctx context.Context, token, id, tableID string) (Booking, error)
	// MarkArrived records that a Booking's guests have arrived.
	MarkArrived(ctx context.Context, token, id string) (Booking, error)
	// Complete records that a Booking's visit has ended.
	Complete(ctx context.Context, token, id string) (Booking, error)
	// Cancel cancels a Booking.
	Cancel(ctx context.Context, token, id string) (Booking, error)
	// Act applies the given action to the given Booking, but only if the
	// Booking's current status offers it. Otherwise it returns
	// *ErrActionUnavailable without contacting the API. The tableID is only
	// used by BookingActionConfirm.
	Act(
		ctx context.Context,
		token string,
		booking Booking,
		action BookingAction,
		tableID string,
	) (Booking, error)
}

type bookingsClient struct {
	*restmachinery.BaseClient
}

// NewBookingsClient returns a specialized client for managing Bookings.
func NewBookingsClient(apiAddress string, allowInsecure bool) BookingsClient {
	return &bookingsClient{
		BaseClient: restmachinery.NewBaseClient(apiAddress, allowInsecure),
	}
}

func (b *bookingsClient) List(
	ctx context.Context,
	token string,
	selector BookingsSelector,
) (BookingList, error) {
	queryParams := map[string]string{}
	if selector.DateFrom != "" {
		queryParams["date_from"] = selector.DateFrom
	}
	if selector.DateTo != "" {
		queryParams["date_to"] = selector.DateTo
	}
	if selector.Status != "" {
		queryParams["status"] = string(selector.Status)
	}
	if selector.TableID != "" {
		queryParams["table_id"] = selector.TableID
	}
	if selector.GuestID != "" {
		queryParams["guest_id"] = selector.GuestID
	}
	bookings := BookingList{}
	return bookings, b.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        "bookings",
			AuthHeaders: b.BearerTokenAuthHeaders(token),
			QueryParams: queryParams,
			RespObj:     &bookings,
		},
	)
}

func (b *bookingsClient) Calendar(
	ctx context.Context,
	token string,
	date string,
) (BookingCalendar, error) {
	calendar := BookingCalendar{}
	return calendar, b.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        "bookings/calendar",
			AuthHeaders: b.BearerTokenAuthHeaders(token),
			QueryParams: map[string]string{"date": date},
			RespObj:     &calendar,
		},
	)
}

func (b *bookingsClient) Get(
	ctx context.Context,
	token string,
	id string,
) (Booking, error) {
	booking := Booking{}
	return booking, b.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        fmt.Sprintf("bookings/%s", id),
			AuthHeaders: b.BearerTokenAuthHeaders(token),
			RespObj:     &booking,
		},
	)
}

func (b *bookingsClient) Create(
	ctx context.Context,
	token string,
	input BookingCreateInput,
) (Booking, error) {
	booking := Booking{}
	return booking, b.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodPost,
			Path:        "bookings",
			AuthHeaders: b.BearerTokenAuthHeaders(token),
			ReqBodyObj:  input,
			RespObj:     &booking,
		},
	)
}

func (b *bookingsClient) Update(
	ctx context.Context,
	token string,
	id string,
	input BookingUpdateInput,
) (Booking, error) {
	booking := Booking{}
	return booking, b.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodPatch,
			Path:        fmt.Sprintf("bookings/%s", id),
			AuthHeaders: b.BearerTokenAuthHeaders(token),
			ReqBodyObj:  input,
			RespObj:     &booking,
		},
	)
}

func (b *bookingsClient) Confirm(
	ctx context.Context,
	token string,
	id string,
	tableID string,
) (Booking, error) {
	body := map[string]string{}
	if tableID != "" {
		body["table_id"] = tableID
	}
	return b.transition(ctx, token, id, BookingActionConfirm, body)
}

func (b *bookingsClient) MarkArrived(
	ctx context.Context,
	token string,
	id string,
) (Booking, error) {
	return b.transition(ctx, token, id, BookingActionArrived, nil)
}

func (b *bookingsClient) Complete(
	ctx context.Context,
	token string,
	id string,
) (Booking, error) {
	return b.transition(ctx, token, id, BookingActionComplete, nil)
}

func (b *bookingsClient) Cancel(
	ctx context.Context,
	token string,
	id string,
) (Booking, error) {
	return b.transition(ctx, token, id, BookingActionCancel, nil)
}

func (b *bookingsClient) Act(
	ctx context.Context,
	token string,
	booking Booking,
	action BookingAction,
	tableID string,
) (Booking, error) {
	if !booking.Status.Allows(action) {
		return booking, &ErrActionUnavailable{
			Status: booking.Status,
			Action: action,
		}
	}
	switch action {
	case BookingActionConfirm:
		return b.Confirm(ctx, token, booking.ID, tableID)
	case BookingActionArrived:
		return b.MarkArrived(ctx, token, booking.ID)
	case BookingActionComplete:
		return b.Complete(ctx, token, booking.ID)
	case BookingActionCancel:
		return b.Cancel(ctx, token, booking.ID)
	}
	return booking, errors.Errorf("unrecognized booking action %q", action)
}

func (b *bookingsClient) transition(
	ctx context.Context,
	token string,
	id string,
	action BookingAction,
	body interface{},
) (Booking, error) {
	booking := Booking{}
	return booking, b.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodPost,
			Path:        fmt.Sprintf("bookings/%s/%s", id, action),
			AuthHeaders: b.BearerTokenAuthHeaders(token),
			ReqBodyObj:  body,
			RespObj:     &booking,
		},
	)
}
