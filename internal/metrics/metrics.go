package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Admission outcomes used as the "outcome" label value
const (
	OutcomeAdmitted             = "admitted"
	OutcomeInvalidRequest       = "invalid_request"
	OutcomeNotFound             = "not_found"
	OutcomeLockContention       = "lock_contention"
	OutcomeInsufficientCapacity = "insufficient_capacity"
	OutcomeConflict             = "conflict"
	OutcomeError                = "error"
)

var (
	// AdmissionsTotal counts CreateBooking calls by outcome
	AdmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "turnstile_admissions_total",
		Help: "Booking admission attempts by outcome.",
	}, []string{"outcome"})

	// AdmissionDuration observes the full admission path, lock wait included
	AdmissionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "turnstile_admission_duration_seconds",
		Help:    "Duration of the booking admission path.",
		Buckets: prometheus.DefBuckets,
	})

	// EnqueueFailuresTotal counts finalization enqueue failures after commit
	EnqueueFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "turnstile_enqueue_failures_total",
		Help: "Finalization enqueue failures; bookings left PENDING for reconciliation.",
	})

	// FinalizationsTotal counts worker transitions by result
	FinalizationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "turnstile_finalizations_total",
		Help: "Booking finalizations by result.",
	}, []string{"result"})

	// ReconcilerRequeuedTotal counts bookings re-enqueued by the sweep
	ReconcilerRequeuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "turnstile_reconciler_requeued_total",
		Help: "PENDING bookings re-enqueued by the reconciliation sweep.",
	})
)
