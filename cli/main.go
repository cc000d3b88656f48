package main

import (
	"fmt"
	"os"

	"github.com/krancour/guestflow/internal/signals"
	"github.com/krancour/guestflow/internal/version"
	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "guestflow"
	app.Usage = "Manage guests, tables and bookings of a GuestFlow restaurant"
	app.Version = fmt.Sprintf(
		"%s -- commit %s",
		version.Version(),
		version.Commit(),
	)
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    flagServer,
			Aliases: []string{"s"},
			Usage: "Use the GuestFlow API at the specified address instead of the " +
				"one saved at login",
			EnvVars: []string{"GUESTFLOW_API_ADDRESS"},
		},
		&cli.BoolFlag{
			Name:    flagInsecure,
			Aliases: []string{"k"},
			Usage:   "Allow insecure API server connections when using TLS",
		},
	}
	app.Commands = []*cli.Command{
		bookingCommand,
		guestCommand,
		healthCommand,
		loginCommand,
		logoutCommand,
		tableCommand,
		whoamiCommand,
	}
	return app
}

func main() {
	app := newApp()
	fmt.Println()
	if err := app.RunContext(signals.Context(), os.Args); err != nil {
		fmt.Printf("\n%s\n\n", errorMessage(err))
		os.Exit(1)
	}
	fmt.Println()
}
