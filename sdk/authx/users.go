package authx

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/krancour/guestflow/sdk/internal/restmachinery"
)

// Role represents the role of a staff member.
type Role string

const (
	// RoleSuperAdmin is the role of a platform-level administrator.
	RoleSuperAdmin Role = "super_admin"
	// RoleOwner is the role of a restaurant owner.
	RoleOwner Role = "owner"
	// RoleAdmin is the role of a restaurant administrator.
	RoleAdmin Role = "admin"
	// RoleManager is the role of a restaurant manager. It is also the role
	// assumed when the API does not report one.
	RoleManager Role = "manager"
)

// Known returns true if the Role is one of the roles defined by the API.
func (r Role) Known() bool {
	switch r {
	case RoleSuperAdmin, RoleOwner, RoleAdmin, RoleManager:
		return true
	}
	return false
}

// User represents the authenticated staff member.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	// RestaurantID is nil for platform-level roles.
	RestaurantID *string `json:"restaurant_id"`
	IsActive     bool    `json:"is_active"`
}

// UsersClient is the specialized client for retrieving the identity of the
// authenticated user.
type UsersClient interface {
	// Me returns the profile of the user the given access token belongs to.
	// Missing optional fields are replaced with defaults instead of failing.
	Me(ctx context.Context, token string) (User, error)
}

type usersClient struct {
	*restmachinery.BaseClient
}

// NewUsersClient returns a specialized client for retrieving the identity of
// the authenticated user.
func NewUsersClient(apiAddress string, allowInsecure bool) UsersClient {
	return &usersClient{
		BaseClient: restmachinery.NewBaseClient(apiAddress, allowInsecure),
	}
}

func (u *usersClient) Me(ctx context.Context, token string) (User, error) {
	profile := map[string]interface{}{}
	if err := u.ExecuteRequest(
		ctx,
		restmachinery.OutboundRequest{
			Method:      http.MethodGet,
			Path:        "auth/me",
			AuthHeaders: u.BearerTokenAuthHeaders(token),
			RespObj:     &profile,
		},
	); err != nil {
		return User{}, err
	}
	return UserFromProfile(profile), nil
}

// UserFromProfile coerces a loosely typed profile document into a User.
// Absent fields become zero values, except for role, which defaults to
// RoleManager.
func UserFromProfile(profile map[string]interface{}) User {
	user := User{
		ID:       stringify(profile["id"]),
		Email:    stringify(profile["email"]),
		Role:     Role(stringify(profile["role"])),
		IsActive: truthy(profile["is_active"]),
	}
	if user.Role == "" {
		user.Role = RoleManager
	}
	if restaurantID, ok := profile["restaurant_id"]; ok && restaurantID != nil {
		id := stringify(restaurantID)
		user.RestaurantID = &id
	}
	return user
}

func stringify(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func truthy(val interface{}) bool {
	switch v := val.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		return true
	}
}
