// Package listing coordinates fetches of list data that may be issued faster
// than they complete, such as search-as-you-type. Results of fetches that were
// overtaken by newer ones are discarded rather than displayed.
package listing

import (
	"sync"

	"github.com/pkg/errors"
)

var (
	// ErrSuperseded is returned by a Debouncer when a newer trigger arrived
	// while an older one was waiting.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrStale indicates a result was discarded because a result of a newer
	// fetch has already been published.
	ErrStale = errors.New("result is stale")
)

// Sequencer hands out monotonically increasing sequence numbers to fetches
// and decides which of their results may be published. A result may be
// published only if no result of a later fetch has been published before it.
// The zero value is ready to use.
type Sequencer struct {
	mu        sync.Mutex
	issued    uint64
	published uint64
}

// Next returns the sequence number for a new fetch.
func (s *Sequencer) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Current returns true if seq is the most recently issued sequence number.
func (s *Sequencer) Current(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq == s.issued
}

// Publish records that the result of the fetch numbered seq is being
// published and returns true, unless a later result was already published,
// in which case it returns false and the caller must discard its result.
func (s *Sequencer) Publish(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.published {
		return false
	}
	s.published = seq
	return true
}
