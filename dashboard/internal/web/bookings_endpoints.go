package web

import (
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/krancour/guestflow/sdk/core"
	"github.com/pkg/errors"
)

const (
	bookingsPath = "/dashboard/bookings"
	dateLayout   = "2006-01-02"
	// datetimeLocalLayout is the format of an HTML datetime-local input.
	datetimeLocalLayout = "2006-01-02T15:04"
	// bookingGuestsLimit is the number of guests offered when creating a
	// booking.
	bookingGuestsLimit = 200
	// defaultBookingRange is how far ahead of today the booking log looks by
	// default.
	defaultBookingRange = 7 * 24 * time.Hour
)

type bookingsPage struct {
	DateFrom string
	DateTo   string
	Status   core.BookingStatus
	View     string
	Items    []core.Booking
	Statuses []core.BookingStatus
	// Query carries the current filters so that actions return to the same
	// view of the log.
	Query template.URL
}

type bookingForm struct {
	Guests          []core.Guest
	Tables          []core.Table
	Sources         []core.BookingSource
	GuestID         string
	TableID         string
	BookedAt        string
	DurationMinutes string
	BufferMinutes   string
	GuestsCount     string
	Source          core.BookingSource
}

type calendarPage struct {
	Date  string
	Slots []map[string]interface{}
}

// bookingsEndpoints serves the booking log and booking status actions.
type bookingsEndpoints struct {
	*baseEndpoints
	bookingsClient core.BookingsClient
	guestsClient   core.GuestsClient
	tablesClient   core.TablesClient
	now            func() time.Time
}

func (b *bookingsEndpoints) Register(router *mux.Router) {
	router.HandleFunc(
		bookingsPath,
		b.protected(b.list),
	).Methods(http.MethodGet)

	router.HandleFunc(
		bookingsPath+"/new",
		b.protected(b.newBooking),
	).Methods(http.MethodGet)

	router.HandleFunc(
		bookingsPath+"/calendar",
		b.protected(b.calendar),
	).Methods(http.MethodGet)

	router.HandleFunc(
		bookingsPath,
		b.protected(b.create),
	).Methods(http.MethodPost)

	router.HandleFunc(
		bookingsPath+"/{id}/{action:confirm|arrived|complete|cancel}",
		b.protected(b.act),
	).Methods(http.MethodPost)
}

func (b *bookingsEndpoints) list(w http.ResponseWriter, r *http.Request) {
	bs := browserSessionFromContext(r.Context())
	query := r.URL.Query()
	today := b.now()
	p := bookingsPage{
		DateFrom: query.Get("date_from"),
		DateTo:   query.Get("date_to"),
		Status:   core.BookingStatus(query.Get("status")),
		View:     query.Get("view"),
		Statuses: core.BookingStatuses,
	}
	if p.DateFrom == "" {
		p.DateFrom = today.Format(dateLayout)
	}
	if p.DateTo == "" {
		p.DateTo = today.Add(defaultBookingRange).Format(dateLayout)
	}
	if !p.Status.Valid() {
		p.Status = ""
	}
	if p.View != "grid" {
		p.View = "list"
	}
	p.Query = template.URL(
		url.Values{
			"date_from": []string{p.DateFrom},
			"date_to":   []string{p.DateTo},
			"status":    []string{string(p.Status)},
			"view":      []string{p.View},
		}.Encode(),
	)
	if err := bs.manager.Do(r.Context(), func(token string) error {
		bookings, err := b.bookingsClient.List(
			r.Context(),
			token,
			core.BookingsSelector{
				DateFrom: p.DateFrom,
				DateTo:   p.DateTo,
				Status:   p.Status,
			},
		)
		p.Items = bookings.Items
		return err
	}); err != nil {
		if b.lostSession(w, r, err) {
			return
		}
		bs.addFlash(flashError, errorMessage(err))
		p.Items = nil
	}
	b.renderDashboardPage(w, r, "bookings", "bookings", "Bookings", p)
}

func (b *bookingsEndpoints) newBooking(w http.ResponseWriter, r *http.Request) {
	form := bookingForm{
		BookedAt:        b.now().Format(datetimeLocalLayout),
		DurationMinutes: "90",
		BufferMinutes:   "0",
		GuestsCount:     "2",
		Source:          core.BookingSourceManual,
	}
	b.renderBookingForm(w, r, form)
}

// renderBookingForm loads the guests and tables to choose from and renders
// the booking form. Failing to load them leaves the choices empty.
func (b *bookingsEndpoints) renderBookingForm(
	w http.ResponseWriter,
	r *http.Request,
	form bookingForm,
) {
	bs := browserSessionFromContext(r.Context())
	if err := bs.manager.Do(r.Context(), func(token string) error {
		guests, err := b.guestsClient.List(
			r.Context(),
			token,
			core.GuestsSelector{Limit: bookingGuestsLimit},
		)
		if err != nil {
			return err
		}
		tables, err := b.tablesClient.List(r.Context(), token)
		if err != nil {
			return err
		}
		form.Guests = guests.Items
		form.Tables = tables.Items
		return nil
	}); err != nil {
		if b.lostSession(w, r, err) {
			return
		}
		bs.addFlash(flashError, errorMessage(err))
	}
	form.Sources = []core.BookingSource{
		core.BookingSourceManual,
		core.BookingSourceWalkIn,
		core.BookingSourceBot,
	}
	b.renderDashboardPage(w, r, "booking_new", "bookings", "New booking", form)
}

func (b *bookingsEndpoints) create(w http.ResponseWriter, r *http.Request) {
	if !b.claimForm(w, r, bookingsPath+"/new") {
		return
	}
	bs := browserSessionFromContext(r.Context())
	form := bookingForm{
		GuestID:         formString(r, "guest_id"),
		TableID:         formString(r, "table_id"),
		BookedAt:        formString(r, "booked_at"),
		DurationMinutes: formString(r, "duration_minutes"),
		BufferMinutes:   formString(r, "buffer_minutes"),
		GuestsCount:     formString(r, "guests_count"),
		Source:          core.BookingSource(formString(r, "source")),
	}
	input, err := b.bookingInput(r, form)
	if err == nil {
		err = bs.manager.Do(r.Context(), func(token string) error {
			_, err := b.bookingsClient.Create(r.Context(), token, input)
			return err
		})
	}
	if err != nil {
		if b.lostSession(w, r, err) {
			return
		}
		bs.addFlash(flashError, errorMessage(err))
		b.renderBookingForm(w, r, form)
		return
	}
	b.succeedAndRedirect(w, r, "Booking created", bookingsPath)
}

func (b *bookingsEndpoints) bookingInput(
	r *http.Request,
	form bookingForm,
) (core.BookingCreateInput, error) {
	input := core.BookingCreateInput{
		GuestID:     form.GuestID,
		TableID:     formStringPtr(r, "table_id"),
		GuestsCount: 1,
		Source:      form.Source,
	}
	if input.GuestID == "" {
		return input, &formError{message: "Choose a guest."}
	}
	bookedAt, err := time.ParseInLocation(
		datetimeLocalLayout,
		form.BookedAt,
		b.now().Location(),
	)
	if err != nil {
		return input, &formError{message: "Enter the date and time of the booking."}
	}
	input.BookedAt = bookedAt
	if input.DurationMinutes, err =
		formIntPtr(r, "duration_minutes", "Duration"); err != nil {
		return input, err
	}
	if input.BufferMinutes, err =
		formIntPtr(r, "buffer_minutes", "Buffer"); err != nil {
		return input, err
	}
	guestsCount, err := formIntPtr(r, "guests_count", "Guests")
	if err != nil {
		return input, err
	}
	if guestsCount != nil {
		input.GuestsCount = *guestsCount
	}
	if input.Source == "" {
		input.Source = core.BookingSourceManual
	}
	return input, nil
}

func (b *bookingsEndpoints) act(w http.ResponseWriter, r *http.Request) {
	backTo := bookingsPath
	if r.URL.RawQuery != "" {
		backTo += "?" + r.URL.RawQuery
	}
	if !b.claimForm(w, r, backTo) {
		return
	}
	bs := browserSessionFromContext(r.Context())
	vars := mux.Vars(r)
	action := core.BookingAction(vars["action"])
	if err := bs.manager.Do(r.Context(), func(token string) error {
		booking, err := b.bookingsClient.Get(r.Context(), token, vars["id"])
		if err != nil {
			return err
		}
		_, err = b.bookingsClient.Act(
			r.Context(),
			token,
			booking,
			action,
			formString(r, "table_id"),
		)
		return err
	}); err != nil {
		b.failAndRedirect(w, r, err, backTo)
		return
	}
	b.succeedAndRedirect(w, r, actionSuccessMessages[action], backTo)
}

func (b *bookingsEndpoints) calendar(w http.ResponseWriter, r *http.Request) {
	bs := browserSessionFromContext(r.Context())
	p := calendarPage{
		Date: r.URL.Query().Get("date"),
	}
	if _, err := time.Parse(dateLayout, p.Date); err != nil {
		p.Date = b.now().Format(dateLayout)
	}
	if err := bs.manager.Do(r.Context(), func(token string) error {
		calendar, err := b.bookingsClient.Calendar(r.Context(), token, p.Date)
		p.Slots = calendar.Slots
		return errors.Wrap(err, "error loading booking calendar")
	}); err != nil {
		if b.lostSession(w, r, err) {
			return
		}
		bs.addFlash(flashError, errorMessage(err))
		p.Slots = nil
	}
	b.renderDashboardPage(w, r, "calendar", "bookings", "Calendar", p)
}
