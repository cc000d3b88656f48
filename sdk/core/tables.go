package core

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/krancour/guestflow/sdk/internal/restmachinery"
	"github.com/krancour/guestflow/sdk/meta"
)

// Table represents a table in a restaurant's dining room.
type Table struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	Name         string    `json:"name"`
	Capacity     *int      `json:"capacity"`
	SortOrder    int       `json:"sort_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableCreateInput is the body of a request to create a Table.
type TableCreateInput struct {
	Name      string `json:"name"`
	Capacity  *int   `json:"capacity,omitempty"`
	SortOrder *int   `json:"sort_order,omitempty"`
}

// TableUpdateInput is the body of a request to update a Table. Nil fields are
// left unchanged.
type TableUpdateInput struct {
	Name      *string `json:"name,omitempty"`
	Capacity  *int    `json:"capacity,omitempty"`
	SortOrder *int    `json:"sort_order,omitempty"`
}

// TableList is an ordered list of Tables.
type TableList struct {
	meta.ListMeta `json:",inline"`
	Items         []Table `json:"items"`
}

// UnmarshalJSON accepts either a bare array of Tables or a page of the form
// {"items": [...], "total": n}.
func (t *TableList) UnmarshalJSON(data []byte) error {
	items := []Table{}
	listMeta, err := meta.UnmarshalList(data, &items)
	if err != nil {
		return err
	}
	t.ListMeta = listMeta
	t.Items = items
	return nil
}

// TablesClient is the specialized client for managing Tables.
type TablesClient interface {
	// List returns all of the restaurant's Tables.
	List(ctx context.Context, token string) (TableList, error)
	// Get retrieves a single Table specified by its identifier.
	Get(ctx context.Context, token, id string) (Table, error)
	// Create creates a new Table.
	Create(context.Context, string, TableCreateInput) (Table, error)
	// Update updates an existing Table.
	Update(ctx context.Context, token, id string, input TableUpdateInput) (Table, error)
	// Delete deletes a single Table specified by its identifier.
	Delete(ctx context.Context, token, id string) error
}

type tablesClient struct {
	*restmachinery.BaseClient
}

// NewTablesClient returns a specialized client for managing Tables.
func NewTablesClient(apiAddress string, allowInsecure bool) TablesClient {
	return &tablesClient{
		BaseClient: restmachinery.NewBaseClient(apiAddress, allowInsecure),
	}
}

func (t *tablesClient) List(
	ctx context.Context,
	token string,
) (TableList, error) {
	tables := TableList{}
	return tables, t.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        "tables",
			AuthHeaders: t.BearerTokenAuthHeaders(token),
			RespObj:     &tables,
		},
	)
}

func (t *tablesClient) Get(
	ctx context.Context,
	token string,
	id string,
) (Table, error) {
	table := Table{}
	return table, t.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        fmt.Sprintf("tables/%s", id),
			AuthHeaders: t.BearerTokenAuthHeaders(token),
			RespObj:     &table,
		},
	)
}

func (t *tablesClient) Create(
	ctx context.Context,
	token string,
	input TableCreateInput,
) (Table, error) {
	table := Table{}
	return table, t.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodPost,
			Path:        "tables",
			AuthHeaders: t.BearerTokenAuthHeaders(token),
			ReqBodyObj:  input,
			RespObj:     &table,
		},
	)
}

func (t *tablesClient) Update(
	ctx context.Context,
	token string,
	id string,
	input TableUpdateInput,
) (Table, error) {
	table := Table{}
	return table, t.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodPatch,
			Path:        fmt.Sprintf("tables/%s", id),
			AuthHeaders: t.BearerTokenAuthHeaders(token),
			ReqBodyObj:  input,
			RespObj:     &table,
		},
	)
}

func (t *tablesClient) Delete(
	ctx context.Context,
	token string,
	id string,
) error {
	return t.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodDelete,
			Path:        fmt.Sprintf("tables/%s", id),
			AuthHeaders: t.BearerTokenAuthHeaders(token),
		},
	)
}
