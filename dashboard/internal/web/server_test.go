package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/krancour/guestflow/internal/credentials"
	"github.com/krancour/guestflow/sdk"
	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/require"
)

var formTokenRegex = regexp.MustCompile(`name="form_token" value="([^"]+)"`)

// fakeAPI is a stand-in for the GuestFlow API.
type fakeAPI struct {
	*httptest.Server
	mux *http.ServeMux

	mu          sync.Mutex
	validTokens map[string]bool
	// refreshTo is the access token issued on refresh. Refresh is rejected
	// when it is empty.
	refreshTo string
	// meGate, if not nil, delays identity lookups until it is closed.
	meGate chan struct{}
	calls  []string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	api := &fakeAPI{
		mux:         http.NewServeMux(),
		validTokens: map[string]bool{},
	}
	api.mux.HandleFunc(
		"/api/v1/auth/login",
		func(w http.ResponseWriter, r *http.Request) {
			body := struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body.Email != "host@cafe.tj" || body.Password != "secret" {
				writeJSON(w, http.StatusUnauthorized, `{"detail":"Invalid credentials"}`)
				return
			}
			api.accept("T1")
			writeJSON(
				w,
				http.StatusOK,
				`{"access_token":"T1","refresh_token":"R1","token_type":"bearer"}`,
			)
		},
	)
	api.mux.HandleFunc(
		"/api/v1/auth/refresh",
		func(w http.ResponseWriter, r *http.Request) {
			api.mu.Lock()
			refreshTo := api.refreshTo
			api.mu.Unlock()
			if refreshTo == "" {
				writeJSON(w, http.StatusUnauthorized, `{"detail":"Invalid refresh token"}`)
				return
			}
			api.accept(refreshTo)
			writeJSON(w, http.StatusOK, fmt.Sprintf(`{"access_token":%q}`, refreshTo))
		},
	)
	api.mux.HandleFunc(
		"/api/v1/auth/me",
		func(w http.ResponseWriter, r *http.Request) {
			api.mu.Lock()
			gate := api.meGate
			api.mu.Unlock()
			if gate != nil {
				<-gate
			}
			if !api.authorized(r) {
				writeJSON(w, http.StatusUnauthorized, `{"detail":"Not authenticated"}`)
				return
			}
			writeJSON(
				w,
				http.StatusOK,
				`{"id":1,"email":"host@cafe.tj","role":"owner","restaurant_id":7,"is_active":true}`,
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

func (f *fakeAPI) revoke(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.validTokens, token)
}

func (f *fakeAPI) authorized(r *http.Request) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validTokens[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
}

func (f *fakeAPI) called(call string) bool {
	return f.count(call) > 0
}

func (f *fakeAPI) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func writeJSON(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	fmt.Fprint(w, body)
}

func newTestServer(
	t *testing.T,
	api *fakeAPI,
	storeFactory credentials.StoreFactory,
) *server {
	return newTestServerWithDebounce(t, api, storeFactory, 20*time.Millisecond)
}

func newTestServerWithDebounce(
	t *testing.T,
	api *fakeAPI,
	storeFactory credentials.StoreFactory,
	searchDebounce time.Duration,
) *server {
	return newTestServerWithConfig(
		t,
		api,
		storeFactory,
		func(cfg *config) {
			cfg.SearchDebounceAttr = searchDebounce
		},
	)
}

func newTestServerWithConfig(
	t *testing.T,
	api *fakeAPI,
	storeFactory credentials.StoreFactory,
	configure func(*config),
) *server {
	cfg := NewConfigWithDefaults().(*config)
	cfg.SearchDebounceAttr = 20 * time.Millisecond
	configure(cfg)
	s, err := newServer(
		cfg,
		sdk.NewAPIClient(api.URL, false),
		storeFactory,
		func() time.Time {
			return time.Date(2026, time.March, 1, 18, 30, 0, 0, time.UTC)
		},
	)
	require.NoError(t, err)
	return s
}

// browser keeps a session cookie across requests the way a real browser
// would.
type browser struct {
	t         *testing.T
	server    *server
	sessionID string
}

func newBrowser(t *testing.T, s *server) *browser {
	return &browser{
		t:         t,
		server:    s,
		sessionID: uuid.NewV4().String(),
	}
}

func (b *browser) do(
	method string,
	path string,
	form url.Values,
) *httptest.ResponseRecorder {
	var req *http.Request
	var err error
	if form != nil {
		req, err = http.NewRequest(method, path, strings.NewReader(form.Encode()))
		require.NoError(b.t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req, err = http.NewRequest(method, path, nil)
		require.NoError(b.t, err)
	}
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: b.sessionID})
	rr := httptest.NewRecorder()
	b.server.router.ServeHTTP(rr, req)
	return rr
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, path, nil)
}

// waitInitialized blocks until the browser's session has been restored.
func (b *browser) waitInitialized() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(b.t, b.server.sessionFilter.get(b.sessionID).manager.Wait(ctx))
}

// formToken fetches the page at path and returns the form token in it.
func (b *browser) formToken(path string) string {
	rr := b.get(path)
	require.Equal(b.t, http.StatusOK, rr.Code)
	matches := formTokenRegex.FindStringSubmatch(rr.Body.String())
	require.Len(b.t, matches, 2)
	return matches[1]
}

// signedIn returns a browser whose stored credentials are accepted.
func signedIn(
	t *testing.T,
	s *server,
	api *fakeAPI,
	storeFactory credentials.StoreFactory,
) *browser {
	b := newBrowser(t, s)
	require.NoError(
		t,
		storeFactory.Store(b.sessionID).Write(
			credentials.Pair{Access: "T1", Refresh: "R1"},
		),
	)
	api.accept("T1")
	b.get("/")
	b.waitInitialized()
	return b
}

func TestHealthz(t *testing.T) {
	api := newFakeAPI(t)
	defer api.Close()
	s := newTestServer(t, api, credentials.NewMemoryStoreFactory())
	rr := newBrowser(t, s).get("/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok\n", rr.Body.String())
}

func TestSessionCookie(t *testing.T) {
	api := newFakeAPI(t)
	defer api.Close()
	s := newTestServer(t, api, credentials.NewMemoryStoreFactory())
	b := newBrowser(t, s)
	b.sessionID = "not-a-uuid"
	rr := b.get("/")
	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, sessionCookieName, cookies[0].Name)
	require.NotEqual(t, "not-a-uuid", cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
}

func TestGuardWhileInitializing(t *testing.T) {
	api := newFakeAPI(t)
	defer api.Close()
	gate := make(chan struct{})
	api.meGate = gate
	storeFactory := credentials.NewMemoryStoreFactory()
	s := newTestServer(t, api, storeFactory)
	b := newBrowser(t, s)
	require.NoError(
		t,
		storeFactory.Store(b.sessionID).Write(
			credentials.Pair{Access: "T1", Refresh: "R1"},
		),
	)
	api.accept("T1")

	rr := b.get("/dashboard")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Loading")
	require.Contains(t, rr.Body.String(), `http-equiv="refresh"`)
	require.NotContains(t, rr.Body.String(), "host@cafe.tj")

	close(gate)
	b.waitInitialized()
	rr = b.get("/dashboard")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "host@cafe.tj")
	require.Contains(t, rr.Body.String(), "guestflow-api is up")
}

func TestGuardRedirectsAnonymous(t *testing.T) {
	api := newFakeAPI(t)
	defer api.Close()
	s := newTestServer(t, api, credentials.NewMemoryStoreFactory())
	b := newBrowser(t, s)
	b.get("/")
	b.waitInitialized()
	for _, path := range []string{
		"/dashboard",
		"/dashboard/guests",
		"/dashboard/tables",
		"/dashboard/bookings",
	} {
		rr := b.get(path)
		require.Equal(t, http.StatusSeeOther, rr.Code, path)
		require.Equal(t, "/login", rr.Header().Get("Location"), path)
	}
}

func TestGuardDemotesRejectedCredentials(t *testing.T) {
	api := newFakeAPI(t)
	defer api.Close()
	storeFactory := credentials.NewMemoryStoreFactory()
	s := newTestServer(t, api, storeFactory)
	b := newBrowser(t, s)
	// Neither the stored token nor the refresh token is accepted
	require.NoError(
		t,
		storeFactory.Store(b.sessionID).Write(
			credentials.Pair{Access: "T0", Refresh: "R0"},
		),
	)
	b.get("/")
	b.waitInitialized()
	rr := b.get("/dashboard")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Equal(t, "/login", rr.Header().Get("Location"))
	pair, err := storeFactory.Store(b.sessionID).Read()
	require.NoError(t, err)
	require.True(t, pair.Empty())
}

func TestLogin(t *testing.T) {
	api := newFakeAPI(t)
	defer api.Close()
	storeFactory := credentials.NewMemoryStoreFactory()
	s := newTestServer(t, api, storeFactory)
	b := newBrowser(t, s)

	rr := b.do(
		http.MethodPost,
		"/login",
		url.Values{
			"form_token": []string{b.formToken("/login")},
			"email":      []string{"host@cafe.tj"},
			"password":   []string{"secret"},
		},
	)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Equal(t, "/dashboard", rr.Header().Get("Location"))
	pair, err := storeFactory.Store(b.sessionID).Read()
	require.NoError(t, err)
	require.Equal(t, credentials.Pair{Access: "T1", Refresh: "R1"}, pair)

	b.waitInitialized()
	rr = b.get("/login")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Equal(t, "/dashboard", rr.Header().Get("Location"))

	rr = b.get("/dashboard")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Signed in")
	require.Contains(t, rr.Body.String(), "host@cafe.tj")
}

func TestLoginRejected(t *testing.T) {
	api := newFakeAPI(t)
	defer api.Close()
	s := newTestServer(t, api, credentials.NewMemoryStoreFactory())
	b := newBrowser(t, s)
	rr := b.do(
		http.MethodPost,
		"/login",
		url.Values{
			"form_token": []string{b.formToken("/login")},
			"email":      []string{"host@cafe.tj"},
			"password":   []string{"wrong"},
		},
	)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Invalid credentials")
	require.Contains(t, rr.Body.String(), `value="host@cafe.tj"`)
}

func TestLoginThrottled(t *testing.T) {
	api := newFakeAPI(t)
	defer api.Close()
	s := newTestServerWithConfig(
		t,
		api,
		credentials.NewMemoryStoreFactory(),
		func(cfg *config) {
			cfg.LoginAttemptBurstAttr = 2
			cfg.LoginAttemptIntervalAttr = time.Hour
		},
	)
	b := newBrowser(t, s)
	attempt := func(password string) *httptest.ResponseRecorder {
		return b.do(
			http.MethodPost,
			"/login",
			url.Values{
				"form_token": []string{b.formToken("/login")},
				"email":      []string{"host@cafe.tj"},
				"password":   []string{password},
			},
		)
	}
	for i := 0; i < 2; i++ {
		rr := attempt("wrong")
		require.Equal(t, http.StatusOK, rr.Code)
		require.Contains(t, rr.Body.String(), "Invalid credentials")
	}

	// Even the right password is refused until the limiter allows another
	// attempt, and the API never sees it.
	rr := attempt("secret")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Contains(t, rr.Body.String(), "Too many sign-in attempts")
	require.Equal(t, 2, api.count("POST /api/v1/auth/login"))

	// Other browsers are unaffected.
	other := newBrowser(t, s)
	rr = other.do(
		http.MethodPost,
		"/login",
		url.Values{
			"form_token": []string{other.formToken("/login")},
			"email":      []string{"host@cafe.tj"},
			"password":   []string{"secret"},
		},
	)
	require.Equal(t, "/dashboard", rr.Header().Get("Location"))
}

func TestDuplicateSubmission(t *testing.T) {
	api := newFakeAPI(t)
	defer api.Close()
	s := newTestServer(t, api, credentials.NewMemoryStoreFactory())
	b := newBrowser(t, s)
	form := url.Values{
		"form_token": []string{b.formToken("/login")},
		"email":      []string{"host@cafe.tj"},
		"password":   []string{"secret"},
	}
	rr := b.do(http.MethodPost, "/login", form)
	require.Equal(t, "/dashboard", rr.Header().Get("Location"))
	b.waitInitialized()
	rr = b.do(http.MethodPost, "/login", form)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Equal(t, "/login", rr.Header().Get("Location"))
	require.Contains(
		t,
		b.get("/dashboard").Body.String(),
		"This form was already submitted",
	)
}

func TestLogout(t *testing.T) {
	api := newFakeAPI(t)
	defer api.Close()
	storeFactory := credentials.NewMemoryStoreFactory()
	s := newTestServer(t, api, storeFactory)
	b := signedIn(t, s, api, storeFactory)
	require.Equal(t, http.StatusOK, b.get("/dashboard").Code)

	for i := 0; i < 2; i++ {
		rr := b.do(http.MethodPost, "/logout", url.Values{})
		require.Equal(t, http.StatusSeeOther, rr.Code)
		require.Equal(t, "/login", rr.Header().Get("Location"))
	}
	pair, err := storeFactory.Store(b.sessionID).Read()
	require.NoError(t, err)
	require.True(t, pair.Empty())
	rr := b.get("/dashboard")
	require.Equal(t, http.StatusSeeOther, rr.Code)
}

func TestGuestsList(t *testing.T) {
	api := newFakeAPI(t)
	defer api.Close()
	api.mux.HandleFunc(
		"/api/v1/guests",
		func(w http.ResponseWriter, r *http.Request) {
			if !api.authorized(r) {
				writeJSON(w, http.StatusUnauthorized, `{"detail":"Not authenticated"}`)
				return
			}
			require.Equal(t, "50", r.URL.Query().Get("limit"))
			writeJSON(
				w,
				http.StatusOK,
				`[{"id":"g1","phone":"+992900000001","name":"Amir","visit_count":3},`+
					`{"id":"g2","phone":"+992900000002","name":null,"visit_count":0},`+
					`{"id":"g3","phone":"+992900000003","name":"Zarina","visit_count":1}]`,
			)
		},
	)
	storeFactory := credentials.NewMemoryStoreFactory()
	s := newTestServer(t, api, storeFactory)
	b := signedIn(t, s, api, storeFactory)
	rr := b.get("/dashboard/guests")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	require.Contains(t, body, "Amir")
	require.Contains(t, body, "Zarina")
	require.Contains(t, body, "Total: 3")
}

func TestGuestsListRefreshesExpiredToken(t *testing.T) {
	api := newFakeAPI(t)
	defer api.Close()
	api.refreshTo = "T2"
	api.mux.HandleFunc(
		"/api/v1/guests",
		func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer T2" {
				writeJSON(w, http.StatusUnauthorized, `{"detail":"Token expired"}`)
				return
			}
			writeJSON(w, http.StatusOK, `{"items":[{"id":"g1","phone":"1","name":"Amir"}],"total":2}`)
		},
	)
	storeFactory := credentials.NewMemoryStoreFactory()
	s := newTestServer(t, api, storeFactory)
	b := signedIn(t, s, api, storeFactory)
	rr := b.get("/dashboard/guests")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Amir")
	require.Contains(t, rr.Body.String(), "Total: 2")
	pair, err := storeFactory.Store(b.sessionID).Read()
	require.NoError(t, err)
	require.Equal(t, credentials.Pair{Access: "T2", Refresh: "R1"}, pair)
}

func TestGuestsListLosesSession(t *testing.T) {
	api := newFakeAPI(t)
	defer api.Close()
	api.mux.HandleFunc(
		"/api/v1/guests",
		func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, `{"detail":"Token expired"}`)
		},
	)
	storeFactory := credentials.NewMemoryStoreFactory()
	s := newTestServer(t, api, storeFactory)
	b := signedIn(t, s, api, storeFactory)
	rr := b.get("/dashboard/guests")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Equal(t, "/login", rr.Header().Get("Location"))
	pair, err := storeFactory.Store(b.sessionID).Read()
	require.NoError(t, err)
	require.True(t, pair.Empty())
}

func TestGuestSearchDiscardsStaleResults(t *testing.T) {
	api := newFakeAPI(t)
	defer api.Close()
	release := make(chan struct{})
	started := make(chan struct{})
	api.mux.HandleFunc(
		"/api/v1/guests",
		func(w http.ResponseWriter, r *http.Request) {
			search := r.URL.Query().Get("search")
			if search == "a" {
				close(started)
				<-release
			}
			writeJSON(
				w,
				http.StatusOK,
				fmt.Sprintf(`[{"id":"g1","phone":"1","name":"match for %s"}]`, search),
			)
		},
	)
	storeFactory := credentials.NewMemoryStoreFactory()
	s := newTestServer(t, api, storeFactory)
	b := signedIn(t, s, api, storeFactory)

	slow := make(chan *httptest.ResponseRecorder)
	go func() {
		slow <- b.get("/dashboard/guests/search?search=a")
	}()
	<-started
	rr := b.get("/dashboard/guests/search?search=ab")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "match for ab")
	require.NotContains(t, rr.Body.String(), "<html")

	close(release)
	rr = <-slow
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Empty(t, rr.Body.String())
}

func TestGuestSearchDebounce(t *testing.T) {
	api := newFakeAPI(t)
	defer api.Close()
	api.mux.HandleFunc(
		"/api/v1/guests",
		func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `[]`)
		},
	)
	storeFactory := credentials.NewMemoryStoreFactory()
	s := newTestServerWithDebounce(t, api, storeFactory, 200*time.Millisecond)
	b := signedIn(t, s, api, storeFactory)

	first := make(chan *httptest.ResponseRecorder)
	go func() {
		first <- b.get("/dashboard/guests/search?search=a")
	}()
	time.Sleep(20 * time.Millisecond)
	rr := b.get("/dashboard/guests/search?search=am")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Nothing found")
	require.Equal(t, http.StatusNoContent, (<-first).Code)
}

func TestTables(t *testing.T) {
	api := newFakeAPI(t)
	defer api.Close()
	var created map[string]interface{}
	api.mux.HandleFunc(
		"/api/v1/tables",
		func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				writeJSON(w, http.StatusOK, `[{"id":"t1","name":"Window","capacity":4,"sort_order":1}]`)
			case http.MethodPost:
				require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
				writeJSON(w, http.StatusCreated, `{"id":"t2","name":"Terrace"}`)
			}
		},
	)
	api.mux.HandleFunc(
		"/api/v1/tables/t1",
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(http.StatusNoContent)
		},
	)
	storeFactory := credentials.NewMemoryStoreFactory()
	s := newTestServer(t, api, storeFactory)
	b := signedIn(t, s, api, storeFactory)

	rr := b.get("/dashboard/tables")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `value="Window"`)

	rr = b.do(
		http.MethodPost,
		"/dashboard/tables",
		url.Values{
			"form_token": []string{b.formToken("/dashboard/tables")},
			"name":       []string{"Terrace"},
			"capacity":   []string{"6"},
			"sort_order": []string{""},
		},
	)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Equal(t, "/dashboard/tables", rr.Header().Get("Location"))
	require.Equal(
		t,
		map[string]interface{}{"name": "Terrace", "capacity": float64(6)},
		created,
	)

	rr = b.do(
		http.MethodPost,
		"/dashboard/tables",
		url.Values{
			"form_token": []string{b.formToken("/dashboard/tables")},
			"name":       []string{"Bar"},
			"capacity":   []string{"many"},
		},
	)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Contains(
		t,
		b.get("/dashboard/tables").Body.String(),
		"Seats must be a whole number.",
	)

	rr = b.do(
		http.MethodPost,
		"/dashboard/tables/t1/delete",
		url.Values{"form_token": []string{b.formToken("/dashboard/tables")}},
	)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Contains(t, b.get("/dashboard/tables").Body.String(), "Table deleted")
}

func TestBookingActions(t *testing.T) {
	api := newFakeAPI(t)
	defer api.Close()
	api.mux.HandleFunc(
		"/api/v1/bookings",
		func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.Query()
			require.Equal(t, "2026-03-01", query.Get("date_from"))
			require.Equal(t, "2026-03-08", query.Get("date_to"))
			writeJSON(
				w,
				http.StatusOK,
				`[{"id":"b1","guest_id":"g1","status":"new","booked_at":"2026-03-01T19:00:00Z",`+
					`"guests_count":2,"guest":{"id":"g1","name":"Amir","phone":"1"}}]`,
			)
		},
	)
	api.mux.HandleFunc(
		"/api/v1/bookings/b1",
		func(w http.ResponseWriter, r *http.Request) {
			writeJSON(
				w,
				http.StatusOK,
				`{"id":"b1","guest_id":"g1","status":"new","booked_at":"2026-03-01T19:00:00Z"}`,
			)
		},
	)
	api.mux.HandleFunc(
		"/api/v1/bookings/b1/confirm",
		func(w http.ResponseWriter, r *http.Request) {
			writeJSON(
				w,
				http.StatusOK,
				`{"id":"b1","guest_id":"g1","status":"confirmed","booked_at":"2026-03-01T19:00:00Z"}`,
			)
		},
	)
	storeFactory := credentials.NewMemoryStoreFactory()
	s := newTestServer(t, api, storeFactory)
	b := signedIn(t, s, api, storeFactory)

	rr := b.get("/dashboard/bookings")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	require.Contains(t, body, "Amir")
	require.Contains(t, body, "/dashboard/bookings/b1/confirm?")
	require.Contains(t, body, "/dashboard/bookings/b1/cancel?")
	require.NotContains(t, body, "/dashboard/bookings/b1/complete")
	require.NotContains(t, body, "/dashboard/bookings/b1/arrived")

	// Completing a new booking is refused without asking the API
	rr = b.do(
		http.MethodPost,
		"/dashboard/bookings/b1/complete",
		url.Values{"form_token": []string{b.formToken("/dashboard/bookings")}},
	)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.False(t, api.called("POST /api/v1/bookings/b1/complete"))
	require.Contains(
		t,
		b.get("/dashboard/bookings").Body.String(),
		"is not available for a booking with status",
	)

	rr = b.do(
		http.MethodPost,
		"/dashboard/bookings/b1/confirm?view=grid",
		url.Values{"form_token": []string{b.formToken("/dashboard/bookings")}},
	)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Equal(t, "/dashboard/bookings?view=grid", rr.Header().Get("Location"))
	require.True(t, api.called("POST /api/v1/bookings/b1/confirm"))
	require.Contains(t, b.get("/dashboard/bookings").Body.String(), "Booking confirmed")
}

func TestCreateBookingRejected(t *testing.T) {
	api := newFakeAPI(t)
	defer api.Close()
	api.mux.HandleFunc(
		"/api/v1/guests",
		func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `[{"id":"g1","phone":"1","name":"Amir"}]`)
		},
	)
	api.mux.HandleFunc(
		"/api/v1/tables",
		func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `[{"id":"t1","name":"Window"}]`)
		},
	)
	api.mux.HandleFunc(
		"/api/v1/bookings",
		func(w http.ResponseWriter, r *http.Request) {
			writeJSON(
				w,
				http.StatusUnprocessableEntity,
				`{"detail":[{"msg":"Table is already booked","loc":["body","table_id"]}]}`,
			)
		},
	)
	storeFactory := credentials.NewMemoryStoreFactory()
	s := newTestServer(t, api, storeFactory)
	b := signedIn(t, s, api, storeFactory)

	rr := b.do(
		http.MethodPost,
		"/dashboard/bookings",
		url.Values{
			"form_token":   []string{b.formToken("/dashboard/bookings/new")},
			"guest_id":     []string{"g1"},
			"table_id":     []string{"t1"},
			"booked_at":    []string{"2026-03-01T20:00"},
			"guests_count": []string{"4"},
		},
	)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	require.Contains(t, body, "Table is already booked")
	require.Contains(t, body, `value="2026-03-01T20:00"`)
}

func TestEvictIdle(t *testing.T) {
	api := newFakeAPI(t)
	defer api.Close()
	storeFactory := credentials.NewMemoryStoreFactory()
	s := newTestServer(t, api, storeFactory)
	now := time.Date(2026, time.March, 1, 18, 30, 0, 0, time.UTC)
	s.sessionFilter.now = func() time.Time { return now }
	b := newBrowser(t, s)
	b.get("/")
	b.waitInitialized()
	require.Zero(t, s.sessionFilter.evictIdle())
	now = now.Add(25 * time.Hour)
	require.Equal(t, 1, s.sessionFilter.evictIdle())
	require.Empty(t, s.sessionFilter.sessions)
}
