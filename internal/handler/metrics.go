package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "visualdilemma_sessions_started_total",
		Help: "Total number of started game sessions.",
	})

	choicesRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visualdilemma_choices_recorded_total",
			Help: "Total number of recorded choices by status.",
		},
		[]string{"status"},
	)

	deckPublicationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visualdilemma_deck_publications_total",
			Help: "Total number of admin deck operations by operation and status.",
		},
		[]string{"operation", "status"},
	)
)

func statusLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
