package web

import (
	"net/http"
)

// guardFilter keeps anonymous browsers out of the dashboard. While a browser
// session is still restoring its credentials, a placeholder that reloads
// itself is rendered instead of any protected content.
type guardFilter struct {
	views *views
}

func (g *guardFilter) Decorate(handle http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bs := browserSessionFromContext(r.Context())
		if !bs.manager.Initialized() {
			g.views.renderPage(
				w,
				http.StatusOK,
				"loading",
				page{
					Title:   "Loading",
					Refresh: 1,
				},
			)
			return
		}
		if bs.manager.AccessToken() == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		handle(w, r)
	}
}
