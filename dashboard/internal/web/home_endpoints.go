package web

import (
	"context"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/krancour/guestflow/sdk/system"
)

const healthCheckTimeout = 2 * time.Second

// homeEndpoints serves the landing page of the authenticated area.
type homeEndpoints struct {
	*baseEndpoints
	healthClient system.HealthClient
}

func (h *homeEndpoints) Register(router *mux.Router) {
	router.HandleFunc(
		"/dashboard",
		h.protected(h.dashboard),
	).Methods(http.MethodGet)
}

func (h *homeEndpoints) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()
	health, err := h.healthClient.Check(ctx)
	if err != nil {
		glog.Errorf("error checking API health: %s", err)
		health = system.Health{}
	}
	h.renderDashboardPage(w, r, "dashboard", "home", "Dashboard", health)
}
