package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/krancour/guestflow/sdk/authx"
	"github.com/krancour/guestflow/sdk/core"
	"github.com/pkg/errors"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

const displayTimeLayout = "02.01.2006 15:04"

// page is the data every full page template is executed with.
type page struct {
	Title     string
	Nav       string
	User      *authx.User
	Flashes   []flash
	FormToken string
	// Refresh, if non-zero, asks the browser to reload the page after that
	// many seconds.
	Refresh int
	Data    interface{}
}

var statusLabels = map[core.BookingStatus]string{
	core.BookingStatusNew:       "New",
	core.BookingStatusConfirmed: "Confirmed",
	core.BookingStatusArrived:   "Arrived",
	core.BookingStatusCompleted: "Completed",
	core.BookingStatusCancelled: "Cancelled",
	core.BookingStatusNoShow:    "No-show",
}

var actionLabels = map[core.BookingAction]string{
	core.BookingActionConfirm:  "Confirm",
	core.BookingActionArrived:  "Arrived",
	core.BookingActionComplete: "Complete",
	core.BookingActionCancel:   "Cancel",
}

var actionSuccessMessages = map[core.BookingAction]string{
	core.BookingActionConfirm:  "Booking confirmed",
	core.BookingActionArrived:  "Guest marked as arrived",
	core.BookingActionComplete: "Visit completed",
	core.BookingActionCancel:   "Booking cancelled",
}

var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		return t.Local().Format(displayTimeLayout)
	},
	"formatTimePtr": func(t *time.Time) string {
		if t == nil {
			return "—"
		}
		return t.Local().Format(displayTimeLayout)
	},
	"deref": func(s *string, fallback string) string {
		if s == nil || *s == "" {
			return fallback
		}
		return *s
	},
	"derefInt": func(i *int) string {
		if i == nil {
			return ""
		}
		return strconv.Itoa(*i)
	},
	"deref64": func(i *int64) string {
		if i == nil {
			return ""
		}
		return strconv.FormatInt(*i, 10)
	},
	"statusLabel": func(status core.BookingStatus) string {
		if label, ok := statusLabels[status]; ok {
			return label
		}
		return string(status)
	},
	"actionLabel": func(action core.BookingAction) string {
		if label, ok := actionLabels[action]; ok {
			return label
		}
		return string(action)
	},
	"bookingGuest": func(booking core.Booking) string {
		if booking.Guest != nil && booking.Guest.Name != nil &&
			*booking.Guest.Name != "" {
			return *booking.Guest.Name
		}
		return booking.GuestID
	},
	"bookingTable": func(booking core.Booking) string {
		if booking.Table != nil {
			return booking.Table.Name
		}
		if booking.TableID != nil && *booking.TableID != "" {
			return *booking.TableID
		}
		return "—"
	},
	"dict": func(pairs ...interface{}) (map[string]interface{}, error) {
		if len(pairs)%2 != 0 {
			return nil, errors.New("dict requires an even number of arguments")
		}
		dict := make(map[string]interface{}, len(pairs)/2)
		for i := 0; i < len(pairs); i += 2 {
			key, ok := pairs[i].(string)
			if !ok {
				return nil, errors.Errorf("dict key %v is not a string", pairs[i])
			}
			dict[key] = pairs[i+1]
		}
		return dict, nil
	},
}

// pageTemplates maps each page to the template files it is assembled from,
// in addition to the layout.
var pageTemplates = map[string][]string{
	"home":            {"home.html"},
	"login":           {"login.html"},
	"loading":         {"loading.html"},
	"error":           {"error.html"},
	"dashboard_error": {"dashboard_error.html"},
	"dashboard":       {"dashboard.html"},
	"guests":          {"guests.html", "guest_rows.html"},
	"guest":           {"guest.html"},
	"guest_new":       {"guest_new.html"},
	"tables":          {"tables.html"},
	"bookings":        {"bookings.html"},
	"booking_new":     {"booking_new.html"},
	"calendar":        {"calendar.html"},
}

// views renders pages. Output is buffered so that a template error never
// leaves a partially written response behind.
type views struct {
	templates map[string]*template.Template
}

func newViews() (*views, error) {
	v := &views{
		templates: map[string]*template.Template{},
	}
	for name, files := range pageTemplates {
		patterns := []string{"templates/layout.html"}
		for _, file := range files {
			patterns = append(patterns, "templates/"+file)
		}
		tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(
			templatesFS,
			patterns...,
		)
		if err != nil {
			return nil, errors.Wrapf(err, "error parsing templates for page %q", name)
		}
		v.templates[name] = tmpl
	}
	return v, nil
}

// render executes the named template from the named page's template set.
func (v *views) render(
	w http.ResponseWriter,
	statusCode int,
	pageName string,
	templateName string,
	data interface{},
) {
	tmpl, ok := v.templates[pageName]
	if !ok {
		panic(errors.Errorf("no such page %q", pageName))
	}
	buf := &bytes.Buffer{}
	if err := tmpl.ExecuteTemplate(buf, templateName, data); err != nil {
		panic(errors.Wrapf(err, "error rendering page %q", pageName))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	if _, err := buf.WriteTo(w); err != nil {
		glog.Errorf("error writing page %q: %s", pageName, err)
	}
}

// renderPage renders a full page within the layout.
func (v *views) renderPage(
	w http.ResponseWriter,
	statusCode int,
	pageName string,
	p page,
) {
	v.render(w, statusCode, pageName, "layout", p)
}
