package main

import (
	"flag"

	"github.com/golang/glog"
	"github.com/joho/godotenv"
	"github.com/krancour/guestflow/internal/signals"
	"github.com/krancour/guestflow/internal/version"
)

func main() {
	// We need to parse flags for glog-related options to take effect
	flag.Parse()

	// Local development settings are optional
	_ = godotenv.Load()

	glog.Infof(
		"Starting GuestFlow Dashboard -- version %s -- commit %s",
		version.Version(),
		version.Commit(),
	)

	ctx := signals.Context()

	server, err := getServerFromEnvironment(ctx)
	if err != nil {
		glog.Fatal(err)
	}

	if err := server.ListenAndServe(ctx); err != nil {
		glog.Fatal(err)
	}
	glog.Info("GuestFlow Dashboard stopped")
}
