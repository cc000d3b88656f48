package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/krancour/guestflow/internal/credentials"
	"github.com/krancour/guestflow/internal/listing"
	"github.com/krancour/guestflow/internal/session"
	uuid "github.com/satori/go.uuid"
	"golang.org/x/time/rate"
)

const (
	sessionCookieName = "guestflow_session"
	// maxFormTokens bounds the number of outstanding form tokens per browser
	// session. The oldest are forgotten first.
	maxFormTokens = 64
)

type browserSessionContextKey struct{}

type flashKind string

const (
	flashSuccess flashKind = "success"
	flashError   flashKind = "error"
)

type flash struct {
	Kind    flashKind
	Message string
}

// browserSession is the server-side state of one browser. Its Manager plays
// the part of the browser's auth state and is backed by a credentials.Store
// scoped to the browser's session cookie.
type browserSession struct {
	id          string
	manager     session.Manager
	guestSearch *listing.Debouncer
	// loginLimiter throttles sign-in attempts so that one browser cannot
	// hammer the API with password guesses.
	loginLimiter *rate.Limiter

	mu         sync.Mutex
	lastSeen   time.Time
	flashes    []flash
	formTokens []string
}

func (b *browserSession) addFlash(kind flashKind, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flashes = append(b.flashes, flash{Kind: kind, Message: message})
}

// takeFlashes returns pending flash messages and forgets them.
func (b *browserSession) takeFlashes() []flash {
	b.mu.Lock()
	defer b.mu.Unlock()
	flashes := b.flashes
	b.flashes = nil
	return flashes
}

// issueFormToken returns a one-shot token to embed in a form.
func (b *browserSession) issueFormToken() string {
	token := uuid.NewV4().String()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.formTokens = append(b.formTokens, token)
	if len(b.formTokens) > maxFormTokens {
		b.formTokens = b.formTokens[len(b.formTokens)-maxFormTokens:]
	}
	return token
}

// claimFormToken consumes the given form token. It returns false if the token
// was never issued or was already claimed by an earlier submission.
func (b *browserSession) claimFormToken(token string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, t := range b.formTokens {
		if t == token {
			b.formTokens = append(b.formTokens[:i], b.formTokens[i+1:]...)
			return true
		}
	}
	return false
}

func (b *browserSession) touch(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastSeen = now
}

func (b *browserSession) idleSince() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSeen
}

func browserSessionFromContext(ctx context.Context) *browserSession {
	bs, _ := ctx.Value(browserSessionContextKey{}).(*browserSession)
	return bs
}

// sessionFilter resolves the browser session named by the session cookie,
// creating one if necessary, and makes it available to the decorated handler
// through the request context.
type sessionFilter struct {
	storeFactory   credentials.StoreFactory
	newManager     func(credentials.Store) session.Manager
	searchDebounce time.Duration
	loginInterval  time.Duration
	loginBurst     int
	idleTimeout    time.Duration
	cookieSecure   bool
	now            func() time.Time

	mu       sync.Mutex
	sessions map[string]*browserSession
}

func newSessionFilter(
	storeFactory credentials.StoreFactory,
	newManager func(credentials.Store) session.Manager,
	config Config,
) *sessionFilter {
	return &sessionFilter{
		storeFactory:   storeFactory,
		newManager:     newManager,
		searchDebounce: config.SearchDebounce(),
		loginInterval:  config.LoginAttemptInterval(),
		loginBurst:     config.LoginAttemptBurst(),
		idleTimeout:    config.SessionIdleTimeout(),
		cookieSecure:   config.CookieSecure(),
		now:            time.Now,
		sessions:       map[string]*browserSession{},
	}
}

func (s *sessionFilter) Decorate(handle http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id string
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			// Only ids we could have issued are honored. Anything else would
			// otherwise become part of a storage key.
			if _, err = uuid.FromString(cookie.Value); err == nil {
				id = cookie.Value
			}
		}
		if id == "" {
			id = uuid.NewV4().String()
		}
		http.SetCookie(
			w,
			&http.Cookie{
				Name:     sessionCookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cookieSecure,
				SameSite: http.SameSiteLaxMode,
			},
		)
		bs := s.get(id)
		bs.touch(s.now())
		handle(
			w,
			r.WithContext(
				context.WithValue(r.Context(), browserSessionContextKey{}, bs),
			),
		)
	}
}

// get returns the browser session with the given id. A new session starts
// restoring its credentials in the background, the same way a freshly loaded
// page does.
func (s *sessionFilter) get(id string) *browserSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if bs, ok := s.sessions[id]; ok {
		return bs
	}
	bs := &browserSession{
		id:           id,
		manager:      s.newManager(s.storeFactory.Store(id)),
		guestSearch:  listing.NewDebouncer(s.searchDebounce),
		loginLimiter: rate.NewLimiter(rate.Every(s.loginInterval), s.loginBurst),
		lastSeen:     s.now(),
	}
	s.sessions[id] = bs
	go bs.manager.Start(context.Background())
	return bs
}

// evictIdle forgets browser sessions that have not been seen for longer than
// the idle timeout and returns how many were evicted.
func (s *sessionFilter) evictIdle() int {
	cutoff := s.now().Add(-s.idleTimeout)
	s.mu.Lock()
	defer s.mu.Unlock()
	var evicted int
	for id, bs := range s.sessions {
		if bs.idleSince().Before(cutoff) {
			delete(s.sessions, id)
			s.storeFactory.Release(id)
			evicted++
		}
	}
	return evicted
}

// runEvictions periodically evicts idle browser sessions until the context
// is canceled.
func (s *sessionFilter) runEvictions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if evicted := s.evictIdle(); evicted > 0 {
				glog.Infof("evicted %d idle browser session(s)", evicted)
			}
		case <-ctx.Done():
			return
		}
	}
}
