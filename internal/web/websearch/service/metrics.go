package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	taskGeneral    = "general"
	taskPreferred  = "preferred"
	taskDeepSearch = "deep_search"
)

var (
	// fetchAttempts counts every collaborator call by task and outcome
	fetchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diagnostics_websearch_fetch_attempts_total",
		Help: "Web search collaborator attempts by task and outcome",
	}, []string{"task", "outcome"})

	// searchOutcomes counts finished searches by final state
	searchOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "diagnostics_websearch_searches_total",
		Help: "Finished web searches by final state",
	}, []string{"state"})
)

func observeAttempt(task string) func(attempt int, err error) {
	return func(attempt int, err error) {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		fetchAttempts.WithLabelValues(task, outcome).Inc()
	}
}
