package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestWaitlist_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSignup("joined")
	m.ObserveSignup("joined")
	m.ObserveSignup("")
	m.Impression("lunch")
	m.Impression("")
	m.CappedSkip()
	m.QueueRebuilt()
	m.StreamOpened()
	m.StreamOpened()
	m.StreamClosed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.signups.WithLabelValues("joined")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.signups.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.impressions.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cappedSkips))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queueRebuilds))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.streams))
}

func TestWaitlist_NilSafe(t *testing.T) {
	var m *Waitlist
	assert.NotPanics(t, func() {
		m.ObserveSignup("joined")
		m.Impression("urgency")
		m.CappedSkip()
		m.QueueRebuilt()
		m.StreamOpened()
		m.StreamClosed()
		m.WatcherOpened()
		m.WatcherClosed()
	})
}
