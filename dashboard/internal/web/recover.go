package web

import (
	"net/http"
	"runtime/debug"

	"github.com/golang/glog"
)

// recoverFilter isolates failures within a region of the application. A
// panic in the decorated handler is logged and answered with the region's
// recovery view instead of taking down the connection.
type recoverFilter struct {
	region string
	views  *views
	// pageName is the view rendered after a panic. It receives the panic
	// value's message as its data.
	pageName string
	// withAccount includes the signed-in user's navigation in the recovery
	// view.
	withAccount bool
}

func (f *recoverFilter) Decorate(handle http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				glog.Errorf(
					"recovered from panic in %s region serving %s %s: %v\n%s",
					f.region,
					r.Method,
					r.URL.Path,
					err,
					debug.Stack(),
				)
				f.renderRecovery(w, r, err)
			}
		}()
		handle(w, r)
	}
}

func (f *recoverFilter) renderRecovery(
	w http.ResponseWriter,
	r *http.Request,
	cause interface{},
) {
	// If rendering the recovery view fails too, fall back to plain text so
	// the outermost region always answers.
	defer func() {
		if err := recover(); err != nil {
			glog.Errorf("error rendering %s recovery view: %v", f.region, err)
			http.Error(
				w,
				http.StatusText(http.StatusInternalServerError),
				http.StatusInternalServerError,
			)
		}
	}()
	p := page{
		Title: "Error",
		Data:  panicMessage(cause),
	}
	if bs := browserSessionFromContext(r.Context()); f.withAccount && bs != nil {
		p.User = bs.manager.User()
	}
	f.views.renderPage(w, http.StatusInternalServerError, f.pageName, p)
}

func panicMessage(cause interface{}) string {
	if err, ok := cause.(error); ok {
		return err.Error()
	}
	if msg, ok := cause.(string); ok {
		return msg
	}
	return "unexpected error"
}
