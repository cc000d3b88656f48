package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/krancour/guestflow/internal/credentials"
	"github.com/krancour/guestflow/internal/session"
	"github.com/krancour/guestflow/sdk"
	"github.com/pkg/errors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const (
	evictionInterval = time.Minute
	shutdownTimeout  = 10 * time.Second
)

// Server is an interface for the component that serves the dashboard
type Server interface {
	// ListenAndServe causes the dashboard to start serving HTTP requests. It
	// blocks until the context is canceled or an error occurs.
	ListenAndServe(ctx context.Context) error
}

type server struct {
	config        Config
	sessionFilter *sessionFilter
	router        *mux.Router
}

// NewServer returns a dashboard server that talks to the GuestFlow API
// through the given client and keeps each browser's credentials in a Store
// obtained from the given factory.
func NewServer(
	config Config,
	apiClient sdk.APIClient,
	storeFactory credentials.StoreFactory,
) (Server, error) {
	return newServer(config, apiClient, storeFactory, time.Now)
}

func newServer(
	config Config,
	apiClient sdk.APIClient,
	storeFactory credentials.StoreFactory,
	now func() time.Time,
) (*server, error) {
	v, err := newViews()
	if err != nil {
		return nil, err
	}

	authClient := session.NewAuthClient(apiClient.Authx())
	sf := newSessionFilter(
		storeFactory,
		func(store credentials.Store) session.Manager {
			return session.NewManager(
				authClient,
				store,
				&session.ManagerOptions{
					Logger: glog.Infof,
				},
			)
		},
		config,
	)
	sf.now = now

	baseEndpoints := &baseEndpoints{
		views:         v,
		sessionFilter: sf,
		guardFilter:   &guardFilter{views: v},
		appRecoverFilter: &recoverFilter{
			region:   "application",
			views:    v,
			pageName: "error",
		},
		dashboardRecoverFilter: &recoverFilter{
			region:      "dashboard",
			views:       v,
			pageName:    "dashboard_error",
			withAccount: true,
		},
	}

	endpoints := []Endpoints{
		&authEndpoints{
			baseEndpoints: baseEndpoints,
		},
		&homeEndpoints{
			baseEndpoints: baseEndpoints,
			healthClient:  apiClient.Health(),
		},
		&guestsEndpoints{
			baseEndpoints: baseEndpoints,
			client:        apiClient.Core().Guests(),
		},
		&tablesEndpoints{
			baseEndpoints: baseEndpoints,
			client:        apiClient.Core().Tables(),
		},
		&bookingsEndpoints{
			baseEndpoints:  baseEndpoints,
			bookingsClient: apiClient.Core().Bookings(),
			guestsClient:   apiClient.Core().Guests(),
			tablesClient:   apiClient.Core().Tables(),
			now:            now,
		},
	}

	router := mux.NewRouter()
	router.StrictSlash(true)
	for _, eps := range endpoints {
		eps.Register(router)
	}

	// Health check
	router.HandleFunc(
		"/healthz",
		func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprintln(w, "ok")
		}, // No filters applied to this request
	).Methods(http.MethodGet)

	router.PathPrefix("/static/").Handler(
		http.FileServer(http.FS(staticFS)),
	).Methods(http.MethodGet)

	return &server{
		config:        config,
		sessionFilter: sf,
		router:        router,
	}, nil
}

func (s *server) ListenAndServe(ctx context.Context) error {
	go s.sessionFilter.runEvictions(ctx, evictionInterval)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port()),
		Handler: h2c.NewHandler(s.router, &http2.Server{}),
	}
	errCh := make(chan error, 1)
	go func() {
		glog.Infof(
			"Dashboard is listening without TLS on 0.0.0.0:%d",
			s.config.Port(),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "error shutting down dashboard")
	}
	return nil
}
