package timestamp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAsHeaderRoundTrip(t *testing.T) {
	ts := SyncTimestamp(1_700_000_123_450)
	header := ts.AsHeader()
	assert.Equal(t, "1700000123.45", header)

	parsed, err := FromHeader(header)
	assert.NoError(t, err)
	assert.Equal(t, ts, parsed)
}

func TestFromHeaderRejectsMalformed(t *testing.T) {
	for _, bad := range []string{"", "abc", "1.2.3", "1.2345"} {
		_, err := FromHeader(bad)
		assert.Errorf(t, err, "expected error for %q", bad)
	}
}

func TestSourceMonotonic(t *testing.T) {
	src := NewSource()
	prev := src.Now()
	for i := 0; i < 1000; i++ {
		next := src.Now()
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestSourceAdvancesOnClockRegression(t *testing.T) {
	src := &Source{last: FromTime(time.Now().Add(time.Hour))}
	before := src.last
	next := src.Now()
	assert.Equal(t, before+1, next)
}

func TestSourceObserveAdvancesFloor(t *testing.T) {
	src := NewSource()
	future := src.Now() + 10_000
	src.Observe(future)
	next := src.Now()
	assert.Greater(t, next, future)
}
