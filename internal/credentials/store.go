// Package credentials provides durable storage for the access and refresh
// tokens of a single session. Every Store treats the two tokens as a pair:
// they are written together and cleared together.
//
// Stores are not secret-safe against other code running with the same
// privileges (the same OS user for file storage, the same Redis credentials
// for Redis storage). That is an accepted trust boundary.
package credentials

// Pair is the pair of tokens held by a Store. An empty field means the token
// is absent.
type Pair struct {
	Access  string `json:"access_token,omitempty"`
	Refresh string `json:"refresh_token,omitempty"`
}

// Empty returns true if neither token is present.
func (p Pair) Empty() bool {
	return p.Access == "" && p.Refresh == ""
}

// Store is the interface for components that durably persist a Pair. All
// operations are synchronous. Write and Clear must update both tokens
// atomically.
type Store interface {
	// Read returns the stored Pair. Either token may be absent. A Store that
	// has never been written returns an empty Pair and no error.
	Read() (Pair, error)
	// Write replaces the stored Pair.
	Write(Pair) error
	// Clear removes both tokens. Clearing an empty Store is not an error.
	Clear() error
}
