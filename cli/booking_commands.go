package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/gosuri/uitable"
	"github.com/krancour/guestflow/sdk/core"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const dateLayout = "2006-01-02"

// bookedAtLayouts are the accepted formats of the --at flag. All but the
// first are interpreted in local time.
var bookedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

var bookingActionMessages = map[core.BookingAction]string{
	core.BookingActionConfirm:  "Confirmed booking %q.\n",
	core.BookingActionArrived:  "Marked guests of booking %q as arrived.\n",
	core.BookingActionComplete: "Completed booking %q.\n",
	core.BookingActionCancel:   "Cancelled booking %q.\n",
}

var bookingCommand = &cli.Command{
	Name:    "booking",
	Aliases: []string{"bookings"},
	Usage:   "Manage bookings",
	Subcommands: []*cli.Command{
		{
			Name:  "arrived",
			Usage: "Record that the guests of a confirmed booking have arrived",
			Flags: []cli.Flag{
				cliFlagID("Update the specified booking (required)"),
			},
			Action: bookingAct(core.BookingActionArrived),
		},
		{
			Name:  "calendar",
			Usage: "Show the booking slots of a single day",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    flagDate,
					Aliases: []string{"d"},
					Usage:   "Show the specified day, e.g. 2025-03-01; defaults to today",
				},
				cliFlagOutput,
			},
			Action: bookingCalendar,
		},
		{
			Name:  "cancel",
			Usage: "Cancel a new or confirmed booking",
			Flags: []cli.Flag{
				cliFlagID("Cancel the specified booking (required)"),
				cliFlagYes,
			},
			Action: bookingAct(core.BookingActionCancel),
		},
		{
			Name:  "complete",
			Usage: "Record that the visit of a booking has ended",
			Flags: []cli.Flag{
				cliFlagID("Update the specified booking (required)"),
			},
			Action: bookingAct(core.BookingActionComplete),
		},
		{
			Name:  "confirm",
			Usage: "Confirm a new booking",
			Flags: []cli.Flag{
				cliFlagID("Confirm the specified booking (required)"),
				&cli.StringFlag{
					Name:    flagTable,
					Aliases: []string{"t"},
					Usage:   "Assign the specified table to the booking",
				},
			},
			Action: bookingAct(core.BookingActionConfirm),
		},
		{
			Name:  "create",
			Usage: "Create a booking",
			Flags: []cli.Flag{
				cliFlagFile("booking"),
				&cli.StringFlag{
					Name:    flagGuest,
					Aliases: []string{"g"},
					Usage:   "Book for the specified guest (required unless --file is used)",
				},
				&cli.StringFlag{
					Name:    flagTable,
					Aliases: []string{"t"},
					Usage:   "Book the specified table",
				},
				&cli.StringFlag{
					Name: flagAt,
					Usage: "When the booking starts, e.g. \"2025-03-01 19:30\" (required " +
						"unless --file is used)",
				},
				&cli.IntFlag{
					Name:  flagDuration,
					Usage: "The length of the booking in minutes",
				},
				&cli.IntFlag{
					Name:  flagBuffer,
					Usage: "Minutes to keep the table free after the booking",
				},
				&cli.IntFlag{
					Name:  flagGuests,
					Usage: "The number of people",
					Value: 2,
				},
				&cli.StringFlag{
					Name:  flagSource,
					Usage: "Where the booking came from; one of manual, walk_in, bot",
					Value: string(core.BookingSourceManual),
				},
			},
			Action: bookingCreate,
		},
		{
			Name:  "get",
			Usage: "Retrieve a booking",
			Flags: []cli.Flag{
				cliFlagID("Retrieve the specified booking (required)"),
				cliFlagOutput,
			},
			Action: bookingGet,
		},
		{
			Name:  "list",
			Usage: "Retrieve many bookings",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  flagFrom,
					Usage: "Retrieve bookings from the specified date; defaults to today",
				},
				&cli.StringFlag{
					Name: flagTo,
					Usage: "Retrieve bookings up to the specified date; defaults to a " +
						"week after --from",
				},
				&cli.StringFlag{
					Name:  flagStatus,
					Usage: "Retrieve only bookings with the specified status",
				},
				&cli.StringFlag{
					Name:    flagTable,
					Aliases: []string{"t"},
					Usage:   "Retrieve only bookings of the specified table",
				},
				&cli.StringFlag{
					Name:    flagGuest,
					Aliases: []string{"g"},
					Usage:   "Retrieve only bookings of the specified guest",
				},
				cliFlagOutput,
			},
			Action: bookingList,
		},
		{
			Name:  "update",
			Usage: "Update a booking",
			Flags: []cli.Flag{
				cliFlagID("Update the specified booking (required)"),
				cliFlagFile("booking"),
				&cli.StringFlag{
					Name:    flagTable,
					Aliases: []string{"t"},
					Usage:   "Move the booking to the specified table",
				},
				&cli.StringFlag{
					Name:  flagAt,
					Usage: "Move the booking to the specified time",
				},
				&cli.IntFlag{
					Name:  flagDuration,
					Usage: "Change the length of the booking in minutes",
				},
				&cli.IntFlag{
					Name:  flagBuffer,
					Usage: "Change the minutes kept free after the booking",
				},
				&cli.IntFlag{
					Name:  flagGuests,
					Usage: "Change the number of people",
				},
			},
			Action: bookingUpdate,
		},
	},
}

func parseBookedAt(value string) (time.Time, error) {
	for i, layout := range bookedAtLayouts {
		var t time.Time
		var err error
		if i == 0 {
			t, err = time.Parse(layout, value)
		} else {
			t, err = time.ParseInLocation(layout, value, time.Local)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf(
		"could not understand the time %q; use a format like \"2025-03-01 19:30\"",
		value,
	)
}

func bookingsTable(bookings ...core.Booking) *uitable.Table {
	table := uitable.New()
	table.AddRow("ID", "AT", "GUEST", "PEOPLE", "TABLE", "STATUS")
	for _, booking := range bookings {
		guest := booking.GuestID
		if booking.Guest != nil {
			guest = booking.Guest.Phone
			if booking.Guest.Name != nil && *booking.Guest.Name != "" {
				guest = *booking.Guest.Name
			}
		}
		tableName := deref(booking.TableID)
		if booking.Table != nil {
			tableName = booking.Table.Name
		}
		table.AddRow(
			booking.ID,
			formatTime(booking.BookedAt),
			guest,
			booking.GuestsCount,
			tableName,
			formatStatus(booking.Status),
		)
	}
	return table
}

func bookingList(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	status := core.BookingStatus(c.String(flagStatus))
	if status != "" && !status.Valid() {
		return errors.Errorf("unknown booking status %q", status)
	}
	selector := core.BookingsSelector{
		DateFrom: c.String(flagFrom),
		DateTo:   c.String(flagTo),
		Status:   status,
		TableID:  c.String(flagTable),
		GuestID:  c.String(flagGuest),
	}
	if selector.DateFrom == "" {
		selector.DateFrom = time.Now().Format(dateLayout)
	}
	if selector.DateTo == "" {
		from, err := time.Parse(dateLayout, selector.DateFrom)
		if err != nil {
			return errors.Errorf(
				"could not understand the date %q; use a format like 2025-03-01",
				selector.DateFrom,
			)
		}
		selector.DateTo = from.AddDate(0, 0, 7).Format(dateLayout)
	}

	s, err := getAPISession(c)
	if err != nil {
		return err
	}

	var bookings core.BookingList
	if err = s.manager.Do(c.Context, func(token string) error {
		bookings, err = s.client.Core().Bookings().List(c.Context, token, selector)
		return err
	}); err != nil {
		return err
	}

	if len(bookings.Items) == 0 {
		fmt.Fprintln(c.App.Writer, "No bookings found.")
		return nil
	}

	return printOutput(
		c.App.Writer,
		output,
		bookings,
		func() *uitable.Table {
			return bookingsTable(bookings.Items...)
		},
	)
}

func bookingGet(c *cli.Context) error {
	id := c.String(flagID)
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	s, err := getAPISession(c)
	if err != nil {
		return err
	}

	var booking core.Booking
	if err = s.manager.Do(c.Context, func(token string) error {
		booking, err = s.client.Core().Bookings().Get(c.Context, token, id)
		return err
	}); err != nil {
		return err
	}

	return printOutput(
		c.App.Writer,
		output,
		booking,
		func() *uitable.Table {
			return bookingsTable(booking)
		},
	)
}

func bookingCreate(c *cli.Context) error {
	input := core.BookingCreateInput{}
	if filename := c.String(flagFile); filename != "" {
		if err := readInputFile(filename, "booking-create", &input); err != nil {
			return err
		}
		if input.GuestsCount == 0 {
			input.GuestsCount = 1
		}
	} else {
		input.GuestID = c.String(flagGuest)
		input.TableID = stringFlagPtr(c, flagTable)
		input.DurationMinutes = intFlagPtr(c, flagDuration)
		input.BufferMinutes = intFlagPtr(c, flagBuffer)
		input.GuestsCount = c.Int(flagGuests)
		input.Source = core.BookingSource(c.String(flagSource))
		if input.GuestID == "" {
			return errors.Errorf("a guest is required; use --%s", flagGuest)
		}
		if !c.IsSet(flagAt) {
			return errors.Errorf("a time is required; use --%s", flagAt)
		}
		var err error
		if input.BookedAt, err = parseBookedAt(c.String(flagAt)); err != nil {
			return err
		}
		if err = validateInput("booking-create", mustJSON(input)); err != nil {
			return err
		}
	}

	s, err := getAPISession(c)
	if err != nil {
		return err
	}

	var booking core.Booking
	if err = s.manager.Do(c.Context, func(token string) error {
		booking, err = s.client.Core().Bookings().Create(c.Context, token, input)
		return err
	}); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Created booking %q.\n", booking.ID)
	return nil
}

func bookingUpdate(c *cli.Context) error {
	id := c.String(flagID)
	input := core.BookingUpdateInput{}
	if filename := c.String(flagFile); filename != "" {
		if err := readInputFile(filename, "booking-update", &input); err != nil {
			return err
		}
	} else {
		input.TableID = stringFlagPtr(c, flagTable)
		input.DurationMinutes = intFlagPtr(c, flagDuration)
		input.BufferMinutes = intFlagPtr(c, flagBuffer)
		input.GuestsCount = intFlagPtr(c, flagGuests)
		if c.IsSet(flagAt) {
			bookedAt, err := parseBookedAt(c.String(flagAt))
			if err != nil {
				return err
			}
			input.BookedAt = &bookedAt
		}
		if err := validateInput("booking-update", mustJSON(input)); err != nil {
			return err
		}
	}

	s, err := getAPISession(c)
	if err != nil {
		return err
	}

	if err = s.manager.Do(c.Context, func(token string) error {
		_, err := s.client.Core().Bookings().Update(c.Context, token, id, input)
		return err
	}); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Updated booking %q.\n", id)
	return nil
}

// bookingAct returns a command action that applies the given action to the
// booking named by --id. The booking is retrieved first so that an action its
// status does not offer is refused without asking the API.
func bookingAct(action core.BookingAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		id := c.String(flagID)

		if action == core.BookingActionCancel {
			confirmed, err := confirmed(
				c,
				fmt.Sprintf("Cancel booking %q?", id),
			)
			if err != nil {
				return err
			}
			if !confirmed {
				return nil
			}
		}

		s, err := getAPISession(c)
		if err != nil {
			return err
		}

		var tableID string
		if action == core.BookingActionConfirm {
			tableID = c.String(flagTable)
		}
		if err = s.manager.Do(c.Context, func(token string) error {
			booking, err := s.client.Core().Bookings().Get(c.Context, token, id)
			if err != nil {
				return err
			}
			_, err = s.client.Core().Bookings().Act(
				c.Context,
				token,
				booking,
				action,
				tableID,
			)
			return err
		}); err != nil {
			return err
		}

		fmt.Fprintf(c.App.Writer, bookingActionMessages[action], id)
		return nil
	}
}

func bookingCalendar(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}
	date := c.String(flagDate)
	if date == "" {
		date = time.Now().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return errors.Errorf(
			"could not understand the date %q; use a format like 2025-03-01",
			date,
		)
	}

	s, err := getAPISession(c)
	if err != nil {
		return err
	}

	var calendar core.BookingCalendar
	if err = s.manager.Do(c.Context, func(token string) error {
		calendar, err = s.client.Core().Bookings().Calendar(c.Context, token, date)
		return err
	}); err != nil {
		return err
	}

	if len(calendar.Slots) == 0 {
		fmt.Fprintf(c.App.Writer, "No slots on %s.\n", date)
		return nil
	}

	return printOutput(
		c.App.Writer,
		output,
		calendar,
		func() *uitable.Table {
			return slotsTable(calendar.Slots)
		},
	)
}

// slotsTable renders calendar slots, whose shape the API does not pin down,
// with one column per key found in any slot.
func slotsTable(slots []map[string]interface{}) *uitable.Table {
	keySet := map[string]struct{}{}
	for _, slot := range slots {
		for key := range slot {
			keySet[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(keySet))
	for key := range keySet {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	table := uitable.New()
	header := make([]interface{}, len(keys))
	for i, key := range keys {
		header[i] = key
	}
	table.AddRow(header...)
	for _, slot := range slots {
		row := make([]interface{}, len(keys))
		for i, key := range keys {
			if val, ok := slot[key]; ok && val != nil {
				row[i] = val
			} else {
				row[i] = ""
			}
		}
		table.AddRow(row...)
	}
	return table
}
