package web

import (
	"net/http"
	"strings"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/krancour/guestflow/sdk/meta"
	"github.com/pkg/errors"
)

type loginForm struct {
	Email string
	Error string
}

// authEndpoints serves the public pages and the login and logout actions.
type authEndpoints struct {
	*baseEndpoints
}

func (a *authEndpoints) Register(router *mux.Router) {
	router.HandleFunc("/", a.public(a.home)).Methods(http.MethodGet)

	router.HandleFunc("/login", a.public(a.loginPage)).Methods(http.MethodGet)

	router.HandleFunc("/login", a.public(a.login)).Methods(http.MethodPost)

	router.HandleFunc("/logout", a.public(a.logout)).Methods(http.MethodPost)
}

func (a *authEndpoints) home(w http.ResponseWriter, r *http.Request) {
	a.views.renderPage(w, http.StatusOK, "home", page{})
}

func (a *authEndpoints) loginPage(w http.ResponseWriter, r *http.Request) {
	bs := browserSessionFromContext(r.Context())
	if bs.manager.Initialized() && bs.manager.AccessToken() != "" {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	a.renderLogin(w, r, http.StatusOK, loginForm{})
}

func (a *authEndpoints) login(w http.ResponseWriter, r *http.Request) {
	if !a.claimForm(w, r, "/login") {
		return
	}
	bs := browserSessionFromContext(r.Context())
	form := loginForm{
		Email: strings.TrimSpace(r.PostForm.Get("email")),
	}
	if !bs.loginLimiter.Allow() {
		glog.Infof("throttled sign-in attempt from browser session %s", bs.id)
		form.Error = "Too many sign-in attempts. Wait a moment and try again."
		a.renderLogin(w, r, http.StatusTooManyRequests, form)
		return
	}
	if err := bs.manager.Login(
		r.Context(),
		form.Email,
		r.PostForm.Get("password"),
	); err != nil {
		form.Error = loginErrorMessage(err)
		a.renderLogin(w, r, http.StatusOK, form)
		return
	}
	a.succeedAndRedirect(w, r, "Signed in", "/dashboard")
}

func (a *authEndpoints) logout(w http.ResponseWriter, r *http.Request) {
	browserSessionFromContext(r.Context()).manager.Logout()
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (a *authEndpoints) renderLogin(
	w http.ResponseWriter,
	r *http.Request,
	statusCode int,
	form loginForm,
) {
	bs := browserSessionFromContext(r.Context())
	a.views.renderPage(
		w,
		statusCode,
		"login",
		page{
			Title:     "Sign in",
			Flashes:   bs.takeFlashes(),
			FormToken: bs.issueFormToken(),
			Data:      form,
		},
	)
}

// loginErrorMessage turns a failed login into a message for the login form.
// Field validation failures on the email or password are reported in terms
// of the field.
func loginErrorMessage(err error) string {
	apiErr, ok := errors.Cause(err).(*meta.ErrAPI)
	if !ok {
		return errorMessage(err)
	}
	if len(apiErr.Details) > 0 {
		first := apiErr.Details[0]
		switch {
		case mentions(first, "email"):
			return "Enter a valid email address"
		case mentions(first, "password"):
			return "Enter your password"
		}
	}
	return apiErr.Message
}

func mentions(fieldErr meta.FieldError, field string) bool {
	if strings.Contains(fieldErr.Msg, field) {
		return true
	}
	for _, loc := range fieldErr.Loc {
		if s, ok := loc.(string); ok && s == field {
			return true
		}
	}
	return false
}
