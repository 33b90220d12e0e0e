// Package timestamp implements the strictly-monotonic millisecond clock
// every write in the storage engine is stamped with.
package timestamp

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SyncTimestamp is a millisecond-precision instant. It is rendered to
// clients as a decimal string with two fractional-second digits (10ms
// granularity externally) but compared and stored at millisecond
// granularity internally.
type SyncTimestamp int64

// Zero is the zero-value timestamp, used as a sentinel for "never
// written".
const Zero SyncTimestamp = 0

// FromTime truncates a time.Time down to millisecond precision.
func FromTime(t time.Time) SyncTimestamp {
	return SyncTimestamp(t.UnixMilli())
}

// AsHeader renders the timestamp as the two-decimal-second string
// clients expect in X-Last-Modified. Batch ids do not use this form;
// they are the bare millisecond integer.
func (s SyncTimestamp) AsHeader() string {
	whole := int64(s) / 1000
	frac := (int64(s) % 1000) / 10
	return fmt.Sprintf("%d.%02d", whole, frac)
}

func (s SyncTimestamp) String() string {
	return s.AsHeader()
}

// FromHeader parses a two-decimal-second header value (or a bare
// millisecond integer, as used internally for batch ids) back into a
// SyncTimestamp. It fails on malformed input.
func FromHeader(value string) (SyncTimestamp, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("timestamp: empty header value")
	}
	dot := strings.IndexByte(value, '.')
	if dot < 0 {
		ms, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("timestamp: invalid header %q: %w", value, err)
		}
		return SyncTimestamp(ms), nil
	}
	whole, err := strconv.ParseInt(value[:dot], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("timestamp: invalid header %q: %w", value, err)
	}
	fracStr := value[dot+1:]
	if len(fracStr) == 0 || len(fracStr) > 3 {
		return 0, fmt.Errorf("timestamp: invalid header %q", value)
	}
	for len(fracStr) < 3 {
		fracStr += "0"
	}
	frac, err := strconv.ParseInt(fracStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("timestamp: invalid header %q: %w", value, err)
	}
	return SyncTimestamp(whole*1000 + frac), nil
}

// Source produces strictly-increasing SyncTimestamps for one process.
// Successive calls to Now always return a value greater than every
// previous call, even across wall-clock regressions or repeats at
// millisecond granularity: the source advances its own counter by 1ms
// rather than trusting the clock (spec.md §9).
//
// A Source is not safe for concurrent use by itself; callers serialize
// access to it the same way they serialize access to everything else
// inside a single transaction (see pkg/syncstorage/db/boltdb, which owns
// one Source per pool and guards it with its own mutex).
type Source struct {
	last SyncTimestamp
}

// NewSource returns a Source seeded at the current wall-clock time.
func NewSource() *Source {
	return &Source{last: FromTime(time.Now())}
}

// Now returns a timestamp strictly greater than every timestamp
// previously returned by this Source.
func (s *Source) Now() SyncTimestamp {
	now := FromTime(time.Now())
	if now <= s.last {
		now = s.last + 1
	}
	s.last = now
	return now
}

// Observe records a timestamp obtained elsewhere (e.g. parsed from a
// precondition header) so a subsequent Now() still advances past it.
func (s *Source) Observe(ts SyncTimestamp) {
	if ts > s.last {
		s.last = ts
	}
}
