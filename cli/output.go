package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/ghodss/yaml"
	"github.com/gosuri/uitable"
	"github.com/krancour/guestflow/internal/session"
	"github.com/krancour/guestflow/sdk/core"
	"github.com/krancour/guestflow/sdk/meta"
	"github.com/pkg/errors"
)

const timeLayout = "2006-01-02 15:04"

var statusColors = map[core.BookingStatus]*color.Color{
	core.BookingStatusNew:       color.New(color.FgCyan),
	core.BookingStatusConfirmed: color.New(color.FgBlue),
	core.BookingStatusArrived:   color.New(color.FgGreen),
	core.BookingStatusCompleted: color.New(color.FgHiBlack),
	core.BookingStatusCancelled: color.New(color.FgRed),
	core.BookingStatusNoShow:    color.New(color.FgYellow),
}

func validateOutputFormat(output string) error {
	switch strings.ToLower(output) {
	case "table", "yaml", "json":
		return nil
	}
	return errors.Errorf("unknown output format %q", output)
}

// printOutput writes obj to w in the given format. The table format is
// produced by the given function.
func printOutput(
	w io.Writer,
	output string,
	obj interface{},
	table func() *uitable.Table,
) error {
	switch strings.ToLower(output) {
	case "table":
		fmt.Fprintln(w, table())
	case "yaml":
		yamlBytes, err := yaml.Marshal(obj)
		if err != nil {
			return errors.Wrap(err, "error formatting output")
		}
		fmt.Fprint(w, string(yamlBytes))
	case "json":
		prettyJSON, err := json.MarshalIndent(obj, "", "  ")
		if err != nil {
			return errors.Wrap(err, "error formatting output")
		}
		fmt.Fprintln(w, string(prettyJSON))
	}
	return nil
}

func formatStatus(status core.BookingStatus) string {
	if c, ok := statusColors[status]; ok {
		return c.Sprint(status)
	}
	return string(status)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timeLayout)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) string {
	if i == nil {
		return ""
	}
	return fmt.Sprintf("%d", *i)
}

// errorMessage returns the message to print for an error that ended a
// command.
func errorMessage(err error) string {
	switch e := errors.Cause(err).(type) {
	case *meta.ErrAPI:
		msg := color.RedString(e.Message)
		for _, detail := range e.Details[min(1, len(e.Details)):] {
			msg += "\n  " + detail.Msg
		}
		return msg
	case *core.ErrActionUnavailable:
		return color.RedString(e.Error())
	}
	if errors.Cause(err) == session.ErrNotAuthenticated {
		return "your session has ended; please use `guestflow login` to continue"
	}
	return err.Error()
}
