// Package idx generates the request identifiers the console attaches to every
// API call so client and server logs can be joined.
package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RequestID is a ULID rendered in its canonical 26 character form.
type RequestID string

// ErrInvalid reports a malformed request id.
var ErrInvalid = errors.New("idx: invalid request id")

var (
	once    sync.Once
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
)

func initEntropy() {
	entropy = ulid.Monotonic(rand.Reader, 0)
}

// New returns a request id stamped with the current UTC time. IDs created by
// one process sort in creation order.
func New() RequestID {
	return NewAt(time.Now().UTC())
}

// NewAt returns a request id stamped with t.
func NewAt(t time.Time) RequestID {
	once.Do(initEntropy)

	mu.Lock()
	defer mu.Unlock()
	return RequestID(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}

// Parse validates s as a request id. Servers may echo ids they did not mint,
// so callers should treat ErrInvalid as "not ours" rather than fatal.
func Parse(s string) (RequestID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalid
	}
	if _, err := ulid.ParseStrict(s); err != nil {
		return "", ErrInvalid
	}
	return RequestID(s), nil
}

// String returns the canonical form.
func (id RequestID) String() string { return string(id) }

// Time returns the timestamp embedded in the id, or the zero time when the id
// is not a valid ULID.
func (id RequestID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}
