package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/krancour/guestflow/internal/session"
	"github.com/krancour/guestflow/sdk/core"
	"github.com/krancour/guestflow/sdk/meta"
	"github.com/pkg/errors"
)

const unreachableAPIMessage = "Could not reach the GuestFlow API"

// Endpoints is an interface for components that register HTTP handlers with
// the dashboard's router.
type Endpoints interface {
	Register(router *mux.Router)
}

// baseEndpoints holds what every group of endpoints shares: the views and
// the filters that make up the application's two fallible regions.
type baseEndpoints struct {
	views                  *views
	sessionFilter          Filter
	guardFilter            Filter
	appRecoverFilter       Filter
	dashboardRecoverFilter Filter
}

// public decorates a handler that anyone may reach.
func (b *baseEndpoints) public(handle http.HandlerFunc) http.HandlerFunc {
	return chain(handle, b.appRecoverFilter, b.sessionFilter)
}

// protected decorates a handler that only authenticated browsers may reach.
func (b *baseEndpoints) protected(handle http.HandlerFunc) http.HandlerFunc {
	return chain(
		handle,
		b.appRecoverFilter,
		b.sessionFilter,
		b.guardFilter,
		b.dashboardRecoverFilter,
	)
}

// renderDashboardPage renders a page of the authenticated area, consuming any
// pending flash messages and issuing a fresh form token.
func (b *baseEndpoints) renderDashboardPage(
	w http.ResponseWriter,
	r *http.Request,
	pageName string,
	nav string,
	title string,
	data interface{},
) {
	bs := browserSessionFromContext(r.Context())
	b.views.renderPage(
		w,
		http.StatusOK,
		pageName,
		page{
			Title:     title,
			Nav:       nav,
			User:      bs.manager.User(),
			Flashes:   bs.takeFlashes(),
			FormToken: bs.issueFormToken(),
			Data:      data,
		},
	)
}

// claimForm parses the submitted form and consumes its form token. A form
// whose token was already used is a duplicate submission; the browser is
// sent back to backTo and false is returned.
func (b *baseEndpoints) claimForm(
	w http.ResponseWriter,
	r *http.Request,
	backTo string,
) bool {
	bs := browserSessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		bs.addFlash(flashError, "The form could not be read.")
		http.Redirect(w, r, backTo, http.StatusSeeOther)
		return false
	}
	if !bs.claimFormToken(r.PostForm.Get("form_token")) {
		bs.addFlash(
			flashError,
			"This form was already submitted. Please check the result and try "+
				"again if needed.",
		)
		http.Redirect(w, r, backTo, http.StatusSeeOther)
		return false
	}
	return true
}

// lostSession returns true if the error means the browser session is no
// longer authenticated, in which case the browser has been sent to the login
// page.
func (b *baseEndpoints) lostSession(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) bool {
	bs := browserSessionFromContext(r.Context())
	if errors.Cause(err) == session.ErrNotAuthenticated ||
		bs.manager.AccessToken() == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return true
	}
	return false
}

// failAndRedirect reports a failed mutation as a flash message and sends the
// browser back to backTo with data unchanged.
func (b *baseEndpoints) failAndRedirect(
	w http.ResponseWriter,
	r *http.Request,
	err error,
	backTo string,
) {
	if b.lostSession(w, r, err) {
		return
	}
	browserSessionFromContext(r.Context()).addFlash(flashError, errorMessage(err))
	http.Redirect(w, r, backTo, http.StatusSeeOther)
}

// succeedAndRedirect reports a successful mutation as a flash message and
// sends the browser on to next.
func (b *baseEndpoints) succeedAndRedirect(
	w http.ResponseWriter,
	r *http.Request,
	message string,
	next string,
) {
	browserSessionFromContext(r.Context()).addFlash(flashSuccess, message)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// errorMessage returns the message to show a person for the given error.
func errorMessage(err error) string {
	switch e := errors.Cause(err).(type) {
	case *meta.ErrAPI:
		return e.Message
	case *core.ErrActionUnavailable:
		return e.Error()
	case *formError:
		return e.message
	}
	glog.Errorf("error calling GuestFlow API: %s", err)
	return unreachableAPIMessage
}

// formError describes a form field that could not be parsed.
type formError struct {
	message string
}

func (f *formError) Error() string {
	return f.message
}

func formString(r *http.Request, field string) string {
	return strings.TrimSpace(r.PostForm.Get(field))
}

// formStringPtr returns nil for a blank field.
func formStringPtr(r *http.Request, field string) *string {
	val := formString(r, field)
	if val == "" {
		return nil
	}
	return &val
}

// formIntPtr returns nil for a blank field.
func formIntPtr(r *http.Request, field, label string) (*int, error) {
	val := formString(r, field)
	if val == "" {
		return nil, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return nil, &formError{message: label + " must be a whole number."}
	}
	return &i, nil
}
