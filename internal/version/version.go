package version

import "fmt"

// Values for these are injected by the build
var (
	version = "devel"
	commit  string
)

// Version returns the guestflow version. This is typically a semantic
// version, but in the case of unreleased code, could be another descriptor
// such as "edge".
func Version() string {
	return version
}

// Commit returns the git commit SHA for the code that guestflow was built
// from.
func Commit() string {
	return commit
}

// UserAgent returns the User-Agent header value that identifies GuestFlow
// clients to the API, e.g. "guestflow/v0.4.0 (a1b2c3d)".
func UserAgent() string {
	if commit == "" {
		return fmt.Sprintf("guestflow/%s", version)
	}
	short := commit
	if len(short) > 7 {
		short = short[:7]
	}
	return fmt.Sprintf("guestflow/%s (%s)", version, short)
}
