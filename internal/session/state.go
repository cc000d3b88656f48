package session

import "github.com/krancour/guestflow/sdk/authx"

// State represents the phase of a session's lifecycle.
type State int

const (
	// StateUnstarted is the state of a Manager whose Start method has not yet
	// been called.
	StateUnstarted State = iota
	// StateInitializing is the state of a Manager that is restoring a session
	// from stored credentials.
	StateInitializing
	// StateAuthenticated is the state of a Manager holding an access token.
	StateAuthenticated
	// StateAnonymous is the state of a Manager without an access token.
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	}
	return "unknown"
}

// Snapshot is a point-in-time copy of a session's observable state.
type Snapshot struct {
	State       State
	AccessToken string
	User        *authx.User
	Initialized bool
}

// Authenticated returns true if the snapshot holds an access token.
func (s Snapshot) Authenticated() bool {
	return s.AccessToken != ""
}
