package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewTimer(t *testing.T) {
	timer := NewTimer()
	assert.NotNil(t, timer)
	assert.False(t, timer.start.IsZero())
	assert.Less(t, time.Since(timer.start), time.Second)
}

func TestTimerDuration(t *testing.T) {
	timer := NewTimer()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, timer.Duration(), 5*time.Millisecond)
}

func TestPrometheusSinkIncr(t *testing.T) {
	sink := NewPrometheusSink()
	counter := RequestsTotal.WithLabelValues("put_bso", "ok")
	before := testutil.ToFloat64(counter)
	sink.Incr("request.put_bso")
	after := testutil.ToFloat64(counter)
	assert.Equal(t, before+1, after)
}

func TestNoopSinkNeverPanics(t *testing.T) {
	var sink Sink = NoopSink{}
	assert.NotPanics(t, func() { sink.Incr("request.anything") })
}
