package web

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/krancour/guestflow/sdk/core"
)

const tablesPath = "/dashboard/tables"

// tablesEndpoints serves the floor plan setup.
type tablesEndpoints struct {
	*baseEndpoints
	client core.TablesClient
}

func (t *tablesEndpoints) Register(router *mux.Router) {
	router.HandleFunc(
		tablesPath,
		t.protected(t.list),
	).Methods(http.MethodGet)

	router.HandleFunc(
		tablesPath,
		t.protected(t.create),
	).Methods(http.MethodPost)

	router.HandleFunc(
		tablesPath+"/{id}",
		t.protected(t.update),
	).Methods(http.MethodPost)

	router.HandleFunc(
		tablesPath+"/{id}/delete",
		t.protected(t.delete),
	).Methods(http.MethodPost)
}

func (t *tablesEndpoints) list(w http.ResponseWriter, r *http.Request) {
	bs := browserSessionFromContext(r.Context())
	var tables core.TableList
	if err := bs.manager.Do(r.Context(), func(token string) error {
		var err error
		tables, err = t.client.List(r.Context(), token)
		return err
	}); err != nil {
		if t.lostSession(w, r, err) {
			return
		}
		bs.addFlash(flashError, errorMessage(err))
		tables = core.TableList{}
	}
	t.renderDashboardPage(w, r, "tables", "tables", "Tables", tables)
}

func (t *tablesEndpoints) create(w http.ResponseWriter, r *http.Request) {
	if !t.claimForm(w, r, tablesPath) {
		return
	}
	bs := browserSessionFromContext(r.Context())
	input := core.TableCreateInput{
		Name: formString(r, "name"),
	}
	var err error
	if input.Capacity, err = formIntPtr(r, "capacity", "Seats"); err != nil {
		t.failAndRedirect(w, r, err, tablesPath)
		return
	}
	if input.SortOrder, err = formIntPtr(r, "sort_order", "Order"); err != nil {
		t.failAndRedirect(w, r, err, tablesPath)
		return
	}
	if err = bs.manager.Do(r.Context(), func(token string) error {
		_, err := t.client.Create(r.Context(), token, input)
		return err
	}); err != nil {
		t.failAndRedirect(w, r, err, tablesPath)
		return
	}
	t.succeedAndRedirect(w, r, "Table added", tablesPath)
}

func (t *tablesEndpoints) update(w http.ResponseWriter, r *http.Request) {
	if !t.claimForm(w, r, tablesPath) {
		return
	}
	bs := browserSessionFromContext(r.Context())
	id := mux.Vars(r)["id"]
	input := core.TableUpdateInput{
		Name: formStringPtr(r, "name"),
	}
	var err error
	if input.Capacity, err = formIntPtr(r, "capacity", "Seats"); err != nil {
		t.failAndRedirect(w, r, err, tablesPath)
		return
	}
	if input.SortOrder, err = formIntPtr(r, "sort_order", "Order"); err != nil {
		t.failAndRedirect(w, r, err, tablesPath)
		return
	}
	if err = bs.manager.Do(r.Context(), func(token string) error {
		_, err := t.client.Update(r.Context(), token, id, input)
		return err
	}); err != nil {
		t.failAndRedirect(w, r, err, tablesPath)
		return
	}
	t.succeedAndRedirect(w, r, "Table updated", tablesPath)
}

func (t *tablesEndpoints) delete(w http.ResponseWriter, r *http.Request) {
	if !t.claimForm(w, r, tablesPath) {
		return
	}
	bs := browserSessionFromContext(r.Context())
	id := mux.Vars(r)["id"]
	if err := bs.manager.Do(r.Context(), func(token string) error {
		return t.client.Delete(r.Context(), token, id)
	}); err != nil {
		t.failAndRedirect(w, r, err, tablesPath)
		return
	}
	t.succeedAndRedirect(w, r, "Table deleted", tablesPath)
}
