// Package metrics exposes prometheus counters for interaction traffic. The
// counters are incremented at the HTTP edge so the store core stays free of
// observability concerns.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InteractionsSaved counts new records by variant.
	InteractionsSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parley_interactions_saved_total",
		Help: "Interactions saved, labeled by record type.",
	}, []string{"type"})

	// InteractionsUpdated counts in-place merges, including responses and
	// plan review resolutions.
	InteractionsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parley_interactions_updated_total",
		Help: "In-place interaction updates.",
	})

	// InteractionsDeleted counts records removed by delete and clear calls.
	InteractionsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parley_interactions_deleted_total",
		Help: "Interactions removed by delete or clear operations.",
	})

	// ResolutionConflicts counts resolutions rejected because the target
	// already left the pending state.
	ResolutionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parley_resolution_conflicts_total",
		Help: "Plan review resolutions rejected as late or duplicate.",
	})
)
