package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Waitlist holds the service's collectors. Methods are nil-safe so callers
// may run without metrics.
type Waitlist struct {
	signups          *prometheus.CounterVec
	impressions      *prometheus.CounterVec
	cappedSkips      prometheus.Counter
	queueRebuilds    prometheus.Counter
	streams          prometheus.Gauge
	referralWatchers prometheus.Gauge
}

var (
	waitlistOnce     sync.Once
	waitlistRegistry *Waitlist
)

// Default returns the collectors registered on the default registry.
func Default() *Waitlist {
	waitlistOnce.Do(func() {
		waitlistRegistry = New(prometheus.DefaultRegisterer)
	})
	return waitlistRegistry
}

// New registers a fresh set of collectors on reg.
func New(reg prometheus.Registerer) *Waitlist {
	m := &Waitlist{
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waitlist_signups_total",
			Help: "Waitlist join attempts by outcome.",
		}, []string{"outcome"}),
		impressions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "social_proof_impressions_total",
			Help: "Social proof messages rendered by category.",
		}, []string{"category"}),
		cappedSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "social_proof_capped_skips_total",
			Help: "Queue positions skipped because the message hit its impression cap.",
		}),
		queueRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "social_proof_queue_rebuilds_total",
			Help: "Message queues composed.",
		}),
		streams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "social_proof_streams",
			Help: "Open social proof event streams.",
		}),
		referralWatchers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "referral_update_subscribers",
			Help: "Open referral update websockets.",
		}),
	}
	reg.MustRegister(m.signups, m.impressions, m.cappedSkips, m.queueRebuilds, m.streams, m.referralWatchers)
	return m
}

func (m *Waitlist) ObserveSignup(outcome string) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.signups.WithLabelValues(outcome).Inc()
}

// Impression, CappedSkip and QueueRebuilt satisfy socialproof.Observer.
func (m *Waitlist) Impression(category string) {
	if m == nil {
		return
	}
	if category == "" {
		category = "unknown"
	}
	m.impressions.WithLabelValues(category).Inc()
}

func (m *Waitlist) CappedSkip() {
	if m == nil {
		return
	}
	m.cappedSkips.Inc()
}

func (m *Waitlist) QueueRebuilt() {
	if m == nil {
		return
	}
	m.queueRebuilds.Inc()
}

func (m *Waitlist) StreamOpened() {
	if m == nil {
		return
	}
	m.streams.Inc()
}

func (m *Waitlist) StreamClosed() {
	if m == nil {
		return
	}
	m.streams.Dec()
}

func (m *Waitlist) WatcherOpened() {
	if m == nil {
		return
	}
	m.referralWatchers.Inc()
}

func (m *Waitlist) WatcherClosed() {
	if m == nil {
		return
	}
	m.referralWatchers.Dec()
}
