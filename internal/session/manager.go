// Package session owns the authentication lifecycle of a single client
// session: restoring it from stored credentials, logging in and out, silently
// refreshing the access token and hydrating the identity of the authenticated
// user.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/krancour/guestflow/internal/credentials"
	"github.com/krancour/guestflow/sdk/authx"
	"github.com/krancour/guestflow/sdk/meta"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

const (
	// expiryLeeway is subtracted from a token's expiry when deciding whether
	// to refresh it before use.
	expiryLeeway = 10 * time.Second
	// refreshTimeout bounds a shared refresh, which outlives the context of
	// the caller that started it.
	refreshTimeout = 30 * time.Second
)

var (
	// ErrNotAuthenticated is returned when an operation requires an access
	// token and the session has none.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSuperseded is returned by Login when the session was logged out, or
	// logged in again, while the login request was in flight.
	ErrSuperseded = errors.New("session changed while the request was in flight")
)

// Manager is the interface for a component that manages one client session.
// All methods are safe for concurrent use.
type Manager interface {
	// Start restores the session from stored credentials. Only the first call
	// has any effect. When Start returns, the session is initialized.
	Start(ctx context.Context)
	// Wait blocks until the session is initialized or the context is done.
	Wait(ctx context.Context) error
	// Login exchanges credentials for tokens, stores them and hydrates the
	// user's identity. Errors from the API are returned unchanged.
	Login(ctx context.Context, email, password string) error
	// Refresh silently exchanges the stored refresh token for a new access
	// token and returns it. On any failure it returns an empty string.
	Refresh(ctx context.Context) string
	// Logout discards stored and in-memory credentials. It never fails and
	// may be called any number of times.
	Logout()
	// AuthorizedToken returns an access token suitable for an API call,
	// refreshing it first if it is known to have expired.
	AuthorizedToken(ctx context.Context) (string, error)
	// Do invokes fn with an access token. If fn fails because the token was
	// rejected, the token is refreshed and fn is invoked once more. If that
	// also fails authentication, the session is logged out.
	Do(ctx context.Context, fn func(token string) error) error
	// Observe registers a function to be called with a Snapshot after every
	// change to the session. The returned function unregisters it.
	Observe(fn func(Snapshot)) func()
	// Snapshot returns the current state of the session.
	Snapshot() Snapshot
	// AccessToken returns the active access token or an empty string.
	AccessToken() string
	// User returns the identity of the authenticated user or nil.
	User() *authx.User
	// Initialized returns true once the session has been restored. It never
	// reverts to false.
	Initialized() bool
	// State returns the current phase of the session's lifecycle.
	State() State
}

// ManagerOptions represents optional configuration for a Manager.
type ManagerOptions struct {
	// Logger, if set, receives diagnostic messages.
	Logger func(format string, args ...interface{})
	// Now returns the current time. It defaults to time.Now.
	Now func() time.Time
}

type manager struct {
	authClient AuthClient
	store      credentials.Store
	logf       func(format string, args ...interface{})
	now        func() time.Time

	startOnce     sync.Once
	initializedCh chan struct{}
	refreshGroup  singleflight.Group

	mu          sync.Mutex
	accessToken string
	user        *authx.User
	initialized bool
	state       State
	// epoch is incremented by every login and logout. Results of requests
	// that began in an earlier epoch are discarded.
	epoch          uint64
	observers      map[int]func(Snapshot)
	nextObserverID int
}

// NewManager returns a Manager that authenticates using the given AuthClient
// and persists tokens in the given Store.
func NewManager(
	authClient AuthClient,
	store credentials.Store,
	opts *ManagerOptions,
) Manager {
	if opts == nil {
		opts = &ManagerOptions{}
	}
	m := &manager{
		authClient:    authClient,
		store:         store,
		logf:          opts.Logger,
		now:           opts.Now,
		initializedCh: make(chan struct{}),
		state:         StateUnstarted,
		observers:     map[int]func(Snapshot){},
	}
	if m.logf == nil {
		m.logf = func(string, ...interface{}) {}
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

func (m *manager) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		m.initialize(ctx)
	})
}

func (m *manager) initialize(ctx context.Context) {
	m.mu.Lock()
	if m.state == StateUnstarted {
		m.state = StateInitializing
	}
	epoch := m.epoch
	m.mu.Unlock()
	m.changed()

	defer func() {
		if r := recover(); r != nil {
			m.logf("session initialization panicked: %v", r)
			m.demote(epoch)
		}
		m.mu.Lock()
		if m.state == StateInitializing {
			m.state = StateAnonymous
			m.accessToken = ""
			m.user = nil
		}
		m.initialized = true
		close(m.initializedCh)
		m.mu.Unlock()
		m.changed()
	}()

	pair, err := m.store.Read()
	if err != nil {
		m.logf("error reading stored credentials: %s", err)
		m.demote(epoch)
		return
	}
	if pair.Access == "" {
		m.setState(epoch, StateAnonymous)
		return
	}

	// The stored token is used optimistically until the API says otherwise.
	if !m.setToken(epoch, pair.Access) {
		return
	}
	user, err := m.authClient.Me(ctx, pair.Access)
	if err == nil {
		m.authenticate(epoch, &user)
		return
	}
	m.logf("stored access token was not accepted: %s", err)

	token, err := m.awaitRefresh(ctx)
	if err != nil {
		m.logf("session restore abandoned: %s", err)
		return
	}
	if token == "" {
		m.demote(epoch)
		return
	}
	if user, err = m.authClient.Me(ctx, token); err != nil {
		m.logf("refreshed access token was not accepted: %s", err)
		m.demote(epoch)
		return
	}
	m.authenticate(epoch, &user)
}

func (m *manager) Wait(ctx context.Context) error {
	select {
	case <-m.initializedCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *manager) Login(ctx context.Context, email, password string) error {
	m.mu.Lock()
	epoch := m.epoch
	m.mu.Unlock()

	// A failed attempt leaves the session, and anything in flight for it,
	// untouched. Only a successful one starts a new epoch.
	tokens, err := m.authClient.Login(ctx, email, password)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.logf("discarding login result from a superseded session")
		return ErrSuperseded
	}
	if err = m.store.Write(
		credentials.Pair{
			Access:  tokens.AccessToken,
			Refresh: tokens.RefreshToken,
		},
	); err != nil {
		m.mu.Unlock()
		return errors.Wrap(err, "error storing credentials")
	}
	m.epoch++
	epoch = m.epoch
	m.accessToken = tokens.AccessToken
	m.user = nil
	m.state = StateAuthenticated
	m.mu.Unlock()
	m.changed()

	user, err := m.authClient.Me(ctx, tokens.AccessToken)
	if err != nil {
		m.logf("error retrieving identity after login: %s", err)
		return err
	}
	m.authenticate(epoch, &user)
	return nil
}

func (m *manager) Refresh(ctx context.Context) string {
	token, _ := m.awaitRefresh(ctx)
	return token
}

// awaitRefresh joins the shared refresh and waits for its outcome for as long
// as ctx allows. The refresh itself is not bound to any one caller's context,
// so a caller that gives up does not fail it for the others. An error is
// returned only when ctx ended first; an empty token with a nil error means
// the refresh itself failed.
func (m *manager) awaitRefresh(ctx context.Context) (string, error) {
	resultCh := m.refreshGroup.DoChan("refresh", func() (interface{}, error) {
		refreshCtx, cancel := context.WithTimeout(
			context.WithoutCancel(ctx),
			refreshTimeout,
		)
		defer cancel()
		return m.refresh(refreshCtx), nil
	})
	select {
	case result := <-resultCh:
		return result.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *manager) refresh(ctx context.Context) string {
	m.mu.Lock()
	epoch := m.epoch
	m.mu.Unlock()

	pair, err := m.store.Read()
	if err != nil {
		m.logf("error reading stored credentials: %s", err)
		return ""
	}
	if pair.Refresh == "" {
		return ""
	}
	tokens, err := m.authClient.Refresh(ctx, pair.Refresh)
	if err != nil {
		m.logf("error refreshing access token: %s", err)
		return ""
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = pair.Refresh
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.logf("discarding refreshed token from a superseded session")
		return ""
	}
	if err = m.store.Write(
		credentials.Pair{
			Access:  tokens.AccessToken,
			Refresh: tokens.RefreshToken,
		},
	); err != nil {
		m.mu.Unlock()
		m.logf("error storing refreshed credentials: %s", err)
		return ""
	}
	m.accessToken = tokens.AccessToken
	m.mu.Unlock()
	m.changed()
	return tokens.AccessToken
}

func (m *manager) Logout() {
	m.mu.Lock()
	if err := m.store.Clear(); err != nil {
		m.logf("error clearing stored credentials: %s", err)
	}
	m.accessToken = ""
	m.user = nil
	m.state = StateAnonymous
	m.epoch++
	m.mu.Unlock()
	m.changed()
}

func (m *manager) AuthorizedToken(ctx context.Context) (string, error) {
	token := m.AccessToken()
	if token == "" {
		return "", ErrNotAuthenticated
	}
	if !m.expired(token) {
		return token, nil
	}
	token, err := m.awaitRefresh(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		m.Logout()
		return "", ErrNotAuthenticated
	}
	return token, nil
}

// expired returns true if the token is a JWT whose expiry has passed. Tokens
// that cannot be parsed are left for the API to judge.
func (m *manager) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !m.now().Add(expiryLeeway).Before(exp.Time)
}

func (m *manager) Do(ctx context.Context, fn func(token string) error) error {
	token, err := m.AuthorizedToken(ctx)
	if err != nil {
		return err
	}
	if err = fn(token); !meta.IsAuthentication(err) {
		return err
	}
	refreshed, ctxErr := m.awaitRefresh(ctx)
	if ctxErr != nil {
		return ctxErr
	}
	if token = refreshed; token == "" {
		m.Logout()
		return err
	}
	if err = fn(token); meta.IsAuthentication(err) {
		m.Logout()
	}
	return err
}

func (m *manager) Observe(fn func(Snapshot)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextObserverID
	m.nextObserverID++
	m.observers[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.observers, id)
	}
}

func (m *manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

func (m *manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accessToken
}

func (m *manager) User() *authx.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	user := *m.user
	return &user
}

func (m *manager) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

func (m *manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// snapshot must be called with mu held.
func (m *manager) snapshot() Snapshot {
	snapshot := Snapshot{
		State:       m.state,
		AccessToken: m.accessToken,
		Initialized: m.initialized,
	}
	if m.user != nil {
		user := *m.user
		snapshot.User = &user
	}
	return snapshot
}

// changed notifies observers of the current state. Observers are invoked
// without holding mu so they may call back into the Manager.
func (m *manager) changed() {
	m.mu.Lock()
	snapshot := m.snapshot()
	observers := make([]func(Snapshot), 0, len(m.observers))
	for _, fn := range m.observers {
		observers = append(observers, fn)
	}
	m.mu.Unlock()
	for _, fn := range observers {
		fn(snapshot)
	}
}

func (m *manager) setState(epoch uint64, state State) {
	m.mu.Lock()
	if m.epoch == epoch {
		m.state = state
	}
	m.mu.Unlock()
	m.changed()
}

func (m *manager) setToken(epoch uint64, token string) bool {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return false
	}
	m.accessToken = token
	m.mu.Unlock()
	m.changed()
	return true
}

func (m *manager) authenticate(epoch uint64, user *authx.User) {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.logf("discarding identity from a superseded session")
		return
	}
	m.user = user
	m.state = StateAuthenticated
	m.mu.Unlock()
	m.changed()
}

// demote clears stored credentials and makes the session anonymous, unless
// the session has since moved on to another epoch.
func (m *manager) demote(epoch uint64) {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return
	}
	if err := m.store.Clear(); err != nil {
		m.logf("error clearing stored credentials: %s", err)
	}
	m.accessToken = ""
	m.user = nil
	m.state = StateAnonymous
	m.mu.Unlock()
	m.changed()
}
