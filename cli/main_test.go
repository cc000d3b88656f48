package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/krancour/guestflow/internal/credentials"
	"github.com/krancour/guestflow/sdk/core"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a stand-in for the GuestFlow API that accepts the credentials
// host@cafe.tj / secret and the access tokens it has issued.
type fakeAPI struct {
	*httptest.Server
	mux *http.ServeMux

	mu          sync.Mutex
	validTokens map[string]bool
	refreshTo   string
	calls       []string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	api := &fakeAPI{
		mux:         http.NewServeMux(),
		validTokens: map[string]bool{},
	}
	api.mux.HandleFunc(
		"/api/v1/auth/login",
		func(w http.ResponseWriter, r *http.Request) {
			body := map[string]string{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["email"] != "host@cafe.tj" || body["password"] != "secret" {
				writeJSON(w, http.StatusUnauthorized, `{"detail":"Invalid credentials"}`)
				return
			}
			api.accept("T1")
			writeJSON(w, http.StatusOK, `{"access_token":"T1","refresh_token":"R1"}`)
		},
	)
	api.mux.HandleFunc(
		"/api/v1/auth/refresh",
		func(w http.ResponseWriter, r *http.Request) {
			if api.refreshTo == "" {
				writeJSON(w, http.StatusUnauthorized, `{"detail":"Invalid refresh token"}`)
				return
			}
			api.accept(api.refreshTo)
			writeJSON(w, http.StatusOK, fmt.Sprintf(`{"access_token":%q}`, api.refreshTo))
		},
	)
	api.mux.HandleFunc(
		"/api/v1/auth/me",
		func(w http.ResponseWriter, r *http.Request) {
			if !api.authorized(r) {
				writeJSON(w, http.StatusUnauthorized, `{"detail":"Not authenticated"}`)
				return
			}
			writeJSON(
				w,
				http.StatusOK,
				`{"id":"u-1","email":"host@cafe.tj","role":"owner","restaurant_id":"r-1","is_active":true}`,
			)
		},
	)
	api.mux.HandleFunc(
		"/api/v1/health",
		func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"status":"ok","service":"guestflow-api"}`)
		},
	)
	api.Server = httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			api.mu.Lock()
			api.calls = append(api.calls, r.Method+" "+r.URL.Path)
			api.mu.Unlock()
			api.mux.ServeHTTP(w, r)
		}),
	)
	return api
}

func (f *fakeAPI) accept(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validTokens[token] = true
}

func (f *fakeAPI) authorized(r *http.Request) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validTokens[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
}

func (f *fakeAPI) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	fmt.Fprint(w, body)
}

// withHome points the guestflow home directory at a fresh temporary directory
// and returns that directory.
func withHome(t *testing.T) string {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	return path.Join(home, ".guestflow")
}

// loggedIn stores credentials the given API accepts.
func loggedIn(t *testing.T, api *fakeAPI, guestflowHome string) {
	require.NoError(
		t,
		credentials.NewFileStore(guestflowHome).Write(
			credentials.Pair{Access: "T1", Refresh: "R1"},
		),
	)
	api.accept("T1")
}

func run(api *fakeAPI, args ...string) (string, error) {
	app := newApp()
	out := &bytes.Buffer{}
	app.Writer = out
	app.ErrWriter = out
	err := app.Run(
		append([]string{"guestflow", "--server", api.URL}, args...),
	)
	return out.String(), err
}

func TestLogin(t *testing.T) {
	guestflowHome := withHome(t)
	api := newFakeAPI(t)
	defer api.Close()

	out, err := run(api, "login", "--email", "host@cafe.tj", "--password", "secret")
	require.NoError(t, err)
	require.Contains(t, out, "as host@cafe.tj (owner)")

	pair, err := credentials.NewFileStore(guestflowHome).Read()
	require.NoError(t, err)
	require.Equal(t, credentials.Pair{Access: "T1", Refresh: "R1"}, pair)

	cfg, err := getConfig()
	require.NoError(t, err)
	require.Equal(t, api.URL, cfg.APIAddress)
}

func TestLoginRejected(t *testing.T) {
	guestflowHome := withHome(t)
	api := newFakeAPI(t)
	defer api.Close()

	_, err := run(api, "login", "--email", "host@cafe.tj", "--password", "wrong")
	require.Error(t, err)
	require.Contains(t, errorMessage(err), "Invalid credentials")

	pair, err := credentials.NewFileStore(guestflowHome).Read()
	require.NoError(t, err)
	require.True(t, pair.Empty())
}

func TestLoginRequiresPasswordWithoutTerminal(t *testing.T) {
	withHome(t)
	api := newFakeAPI(t)
	defer api.Close()

	_, err := run(api, "login", "--email", "host@cafe.tj")
	require.Error(t, err)
	require.Contains(t, err.Error(), "--password")
	require.False(t, api.called("POST /api/v1/auth/login"))
}

func TestLogout(t *testing.T) {
	guestflowHome := withHome(t)
	api := newFakeAPI(t)
	defer api.Close()
	loggedIn(t, api, guestflowHome)

	for i := 0; i < 2; i++ {
		out, err := run(api, "logout")
		require.NoError(t, err)
		require.Contains(t, out, "You are logged out.")
	}
	pair, err := credentials.NewFileStore(guestflowHome).Read()
	require.NoError(t, err)
	require.True(t, pair.Empty())

	_, err = run(api, "whoami")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not logged in")
}

func TestWhoami(t *testing.T) {
	guestflowHome := withHome(t)
	api := newFakeAPI(t)
	defer api.Close()
	loggedIn(t, api, guestflowHome)

	out, err := run(api, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "host@cafe.tj")
	require.Contains(t, out, "owner")
}

func TestStoredTokenIsRefreshed(t *testing.T) {
	guestflowHome := withHome(t)
	api := newFakeAPI(t)
	defer api.Close()
	api.refreshTo = "T2"
	require.NoError(
		t,
		credentials.NewFileStore(guestflowHome).Write(
			credentials.Pair{Access: "T0", Refresh: "R1"},
		),
	)

	_, err := run(api, "whoami")
	require.NoError(t, err)
	pair, err := credentials.NewFileStore(guestflowHome).Read()
	require.NoError(t, err)
	require.Equal(t, credentials.Pair{Access: "T2", Refresh: "R1"}, pair)
}

func TestHealth(t *testing.T) {
	withHome(t)
	api := newFakeAPI(t)
	defer api.Close()
	out, err := run(api, "health")
	require.NoError(t, err)
	require.Contains(t, out, "guestflow-api is up.")
}

func TestGuestList(t *testing.T) {
	guestflowHome := withHome(t)
	api := newFakeAPI(t)
	defer api.Close()
	loggedIn(t, api, guestflowHome)
	api.mux.HandleFunc(
		"/api/v1/guests",
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "am", r.URL.Query().Get("search"))
			writeJSON(
				w,
				http.StatusOK,
				`[{"id":"g1","phone":"+992900000001","name":"Amir"},`+
					`{"id":"g2","phone":"+992900000002","name":"Amina"}]`,
			)
		},
	)

	out, err := run(api, "guest", "list", "--search", "am")
	require.NoError(t, err)
	require.Contains(t, out, "Amir")
	require.Contains(t, out, "Amina")
	require.Contains(t, out, "Total: 2")

	out, err = run(api, "guest", "list", "--search", "am", "-o", "json")
	require.NoError(t, err)
	guests := core.GuestList{}
	require.NoError(t, json.Unmarshal([]byte(out), &guests))
	require.Len(t, guests.Items, 2)
	require.Equal(t, 2, guests.Total)
}

func TestGuestCreateFromFile(t *testing.T) {
	guestflowHome := withHome(t)
	api := newFakeAPI(t)
	defer api.Close()
	loggedIn(t, api, guestflowHome)
	var received map[string]interface{}
	api.mux.HandleFunc(
		"/api/v1/guests",
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			writeJSON(w, http.StatusCreated, `{"id":"g9","phone":"+992900000009"}`)
		},
	)
	filename := path.Join(t.TempDir(), "guest.yaml")
	require.NoError(
		t,
		ioutil.WriteFile(
			filename,
			[]byte("phone: \"+992900000009\"\nname: Farrukh\nbirthday: 1990-05-17\n"),
			0600,
		),
	)

	out, err := run(api, "guest", "create", "--file", filename)
	require.NoError(t, err)
	require.Contains(t, out, `Created guest "g9".`)
	require.Equal(
		t,
		map[string]interface{}{
			"phone":    "+992900000009",
			"name":     "Farrukh",
			"birthday": "1990-05-17",
		},
		received,
	)
}

func TestTableDeleteRequiresConfirmation(t *testing.T) {
	guestflowHome := withHome(t)
	api := newFakeAPI(t)
	defer api.Close()
	loggedIn(t, api, guestflowHome)
	api.mux.HandleFunc(
		"/api/v1/tables/t1",
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		},
	)

	_, err := run(api, "table", "delete", "--id", "t1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "--yes")
	require.False(t, api.called("DELETE /api/v1/tables/t1"))

	out, err := run(api, "table", "delete", "--id", "t1", "--yes")
	require.NoError(t, err)
	require.Contains(t, out, `Table "t1" deleted.`)
	require.True(t, api.called("DELETE /api/v1/tables/t1"))
}

func TestBookingActions(t *testing.T) {
	guestflowHome := withHome(t)
	api := newFakeAPI(t)
	defer api.Close()
	loggedIn(t, api, guestflowHome)
	api.mux.HandleFunc(
		"/api/v1/bookings/b1",
		func(w http.ResponseWriter, r *http.Request) {
			writeJSON(
				w,
				http.StatusOK,
				`{"id":"b1","guest_id":"g1","status":"new","booked_at":"2025-03-01T19:00:00Z"}`,
			)
		},
	)
	api.mux.HandleFunc(
		"/api/v1/bookings/b1/confirm",
		func(w http.ResponseWriter, r *http.Request) {
			body := map[string]interface{}{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "t1", body["table_id"])
			writeJSON(
				w,
				http.StatusOK,
				`{"id":"b1","guest_id":"g1","status":"confirmed","booked_at":"2025-03-01T19:00:00Z"}`,
			)
		},
	)

	_, err := run(api, "booking", "complete", "--id", "b1")
	require.Error(t, err)
	_, ok := errors.Cause(err).(*core.ErrActionUnavailable)
	require.True(t, ok)
	require.False(t, api.called("POST /api/v1/bookings/b1/complete"))

	out, err := run(api, "booking", "confirm", "--id", "b1", "--table", "t1")
	require.NoError(t, err)
	require.Contains(t, out, `Confirmed booking "b1".`)
	require.True(t, api.called("POST /api/v1/bookings/b1/confirm"))
}

func TestBookingCreateValidatesFlags(t *testing.T) {
	guestflowHome := withHome(t)
	api := newFakeAPI(t)
	defer api.Close()
	loggedIn(t, api, guestflowHome)

	_, err := run(
		api,
		"booking", "create",
		"--guest", "g1",
		"--at", "2025-03-01 19:30",
		"--source", "carrier-pigeon",
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "input failed JSON validation")
	require.False(t, api.called("POST /api/v1/bookings"))

	_, err = run(api, "booking", "create", "--guest", "g1", "--at", "tonight")
	require.Error(t, err)
	require.Contains(t, err.Error(), "could not understand the time")
}
