package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stream metrics. Labels are categories only, never event ids.

var (
	EventsGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_events_generated_total",
		Help: "Total events produced by category",
	}, []string{"category"})

	EventsEvictedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_events_evicted_total",
		Help: "Events dropped from the tail of a full log",
	}, []string{"category"})

	EventsDismissedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_events_dismissed_total",
		Help: "Events removed by explicit dismissal",
	}, []string{"category"})

	LogLength = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arena_event_log_length",
		Help: "Current length of each bounded event log",
	}, []string{"category"})

	BullCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_bull_count",
		Help: "Simulated number of bulls in the arena",
	})

	ParticipantCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_participant_count",
		Help: "Simulated number of participants in the arena",
	})

	SubscribersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_stream_subscribers_active",
		Help: "Current number of live event subscribers",
	})

	SubscriberDropsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_stream_subscriber_drops_total",
		Help: "Events not delivered because a subscriber buffer was full",
	})

	SinkDropsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_sink_drops_total",
		Help: "Events not handed to sinks because the sink queue was full",
	})

	SinkErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_sink_errors_total",
		Help: "Errors returned by event sinks",
	}, []string{"sink"})
)

func RecordGenerated(category string, logLen int) {
	EventsGeneratedTotal.WithLabelValues(category).Inc()
	LogLength.WithLabelValues(category).Set(float64(logLen))
}

func RecordEvicted(category string, count int) {
	if count > 0 {
		EventsEvictedTotal.WithLabelValues(category).Add(float64(count))
	}
}

func RecordDismissed(category string, logLen int) {
	EventsDismissedTotal.WithLabelValues(category).Inc()
	LogLength.WithLabelValues(category).Set(float64(logLen))
}

func SetCounters(bulls, participants int) {
	BullCount.Set(float64(bulls))
	ParticipantCount.Set(float64(participants))
}
