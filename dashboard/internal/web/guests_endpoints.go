package web

import (
	"net/http"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/krancour/guestflow/sdk/core"
	"github.com/pkg/errors"
)

// guestsPageSize is the number of guests listed at once.
const guestsPageSize = 50

type guestsPage struct {
	Search         string
	Items          []core.Guest
	Total          int
	DebounceMillis int64
}

type guestForm struct {
	Phone    string
	Name     string
	Birthday string
}

// guestsEndpoints serves the guest directory.
type guestsEndpoints struct {
	*baseEndpoints
	client core.GuestsClient
}

func (g *guestsEndpoints) Register(router *mux.Router) {
	router.HandleFunc(
		"/dashboard/guests",
		g.protected(g.list),
	).Methods(http.MethodGet)

	router.HandleFunc(
		"/dashboard/guests/search",
		g.protected(g.search),
	).Methods(http.MethodGet)

	router.HandleFunc(
		"/dashboard/guests/new",
		g.protected(g.newGuest),
	).Methods(http.MethodGet)

	router.HandleFunc(
		"/dashboard/guests",
		g.protected(g.create),
	).Methods(http.MethodPost)

	router.HandleFunc(
		"/dashboard/guests/{id}",
		g.protected(g.get),
	).Methods(http.MethodGet)

	router.HandleFunc(
		"/dashboard/guests/{id}",
		g.protected(g.update),
	).Methods(http.MethodPost)
}

func (g *guestsEndpoints) fetch(
	r *http.Request,
	search string,
) (core.GuestList, error) {
	bs := browserSessionFromContext(r.Context())
	var guests core.GuestList
	err := bs.manager.Do(r.Context(), func(token string) error {
		var err error
		guests, err = g.client.List(
			r.Context(),
			token,
			core.GuestsSelector{
				Search: search,
				Limit:  guestsPageSize,
			},
		)
		return err
	})
	return guests, err
}

func (g *guestsEndpoints) list(w http.ResponseWriter, r *http.Request) {
	bs := browserSessionFromContext(r.Context())
	search := r.URL.Query().Get("search")
	// A full page load supersedes any search still waiting out its debounce.
	seq := bs.guestSearch.TriggerNow()
	guests, err := g.fetch(r, search)
	if err != nil {
		if g.lostSession(w, r, err) {
			return
		}
		bs.addFlash(flashError, errorMessage(err))
		guests = core.GuestList{}
	}
	bs.guestSearch.Publish(seq)
	g.renderDashboardPage(
		w,
		r,
		"guests",
		"guests",
		"Guests",
		guestsPage{
			Search:         search,
			Items:          guests.Items,
			Total:          guests.Total,
			DebounceMillis: bs.guestSearch.Delay().Milliseconds(),
		},
	)
}

// search answers search-as-you-type requests with the rows of the guest
// table. Requests overtaken by newer ones from the same browser are answered
// with 204 No Content and must be ignored by the page.
func (g *guestsEndpoints) search(w http.ResponseWriter, r *http.Request) {
	bs := browserSessionFromContext(r.Context())
	search := r.URL.Query().Get("search")
	var seq uint64
	if search == "" {
		seq = bs.guestSearch.TriggerNow()
	} else {
		var err error
		if seq, err = bs.guestSearch.Trigger(r.Context()); err != nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	guests, err := g.fetch(r, search)
	if err != nil {
		if g.lostSession(w, r, err) {
			return
		}
		http.Error(w, errorMessage(err), http.StatusBadGateway)
		return
	}
	if !bs.guestSearch.Publish(seq) {
		glog.V(2).Infof("discarding stale guest search results for %q", search)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	g.views.render(
		w,
		http.StatusOK,
		"guests",
		"guest_rows",
		guestsPage{
			Search: search,
			Items:  guests.Items,
			Total:  guests.Total,
		},
	)
}

func (g *guestsEndpoints) newGuest(w http.ResponseWriter, r *http.Request) {
	g.renderDashboardPage(w, r, "guest_new", "guests", "New guest", guestForm{})
}

func (g *guestsEndpoints) create(w http.ResponseWriter, r *http.Request) {
	if !g.claimForm(w, r, "/dashboard/guests/new") {
		return
	}
	bs := browserSessionFromContext(r.Context())
	form := guestForm{
		Phone:    formString(r, "phone"),
		Name:     formString(r, "name"),
		Birthday: formString(r, "birthday"),
	}
	var guest core.Guest
	err := bs.manager.Do(r.Context(), func(token string) error {
		var err error
		guest, err = g.client.Create(
			r.Context(),
			token,
			core.GuestCreateInput{
				Phone:    form.Phone,
				Name:     formStringPtr(r, "name"),
				Birthday: formStringPtr(r, "birthday"),
			},
		)
		return err
	})
	if err != nil {
		if g.lostSession(w, r, err) {
			return
		}
		// The form is shown again with what was entered.
		bs.addFlash(flashError, errorMessage(err))
		g.renderDashboardPage(w, r, "guest_new", "guests", "New guest", form)
		return
	}
	g.succeedAndRedirect(w, r, "Guest added", "/dashboard/guests/"+guest.ID)
}

func (g *guestsEndpoints) get(w http.ResponseWriter, r *http.Request) {
	bs := browserSessionFromContext(r.Context())
	id := mux.Vars(r)["id"]
	var guest core.Guest
	if err := bs.manager.Do(r.Context(), func(token string) error {
		var err error
		guest, err = g.client.Get(r.Context(), token, id)
		return err
	}); err != nil {
		g.failAndRedirect(w, r, err, "/dashboard/guests")
		return
	}
	g.renderDashboardPage(w, r, "guest", "guests", guest.DisplayName(), guest)
}

func (g *guestsEndpoints) update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	backTo := "/dashboard/guests/" + id
	if !g.claimForm(w, r, backTo) {
		return
	}
	bs := browserSessionFromContext(r.Context())
	phone := formString(r, "phone")
	if phone == "" {
		g.failAndRedirect(
			w,
			r,
			errors.WithStack(&formError{message: "Phone is required."}),
			backTo,
		)
		return
	}
	name := formString(r, "name")
	birthday := formStringPtr(r, "birthday")
	if err := bs.manager.Do(r.Context(), func(token string) error {
		_, err := g.client.Update(
			r.Context(),
			token,
			id,
			core.GuestUpdateInput{
				Phone:    &phone,
				Name:     &name,
				Birthday: birthday,
			},
		)
		return err
	}); err != nil {
		g.failAndRedirect(w, r, err, backTo)
		return
	}
	g.succeedAndRedirect(w, r, "Guest updated", backTo)
}
