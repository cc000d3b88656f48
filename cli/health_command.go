package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/krancour/guestflow/sdk"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var healthCommand = &cli.Command{
	Name:   "health",
	Usage:  "Check the health of the GuestFlow API",
	Action: health,
}

func health(c *cli.Context) error {
	address, err := getAPIAddress(c)
	if err != nil {
		return err
	}
	h, err := sdk.NewAPIClient(address, c.Bool(flagInsecure)).Health().Check(
		c.Context,
	)
	if err != nil {
		return errors.Wrapf(err, "error checking health of %s", address)
	}
	if !h.OK() {
		return errors.Errorf("%s reports status %q", address, h.Status)
	}
	fmt.Fprintf(c.App.Writer, "%s %s is up.\n", color.GreenString("✔"), h.Service)
	return nil
}
