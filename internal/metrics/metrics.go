package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the pipeline counters
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics provides observability for the identity pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Enrollment outcomes
	Enrollments *prometheus.CounterVec

	// Embeddings averaged into each stored reference
	EnrollmentCaptures prometheus.Histogram

	// Verification results by confidence tier
	Verifications *prometheus.CounterVec

	// Similarity of the best face in each verification
	VerificationSimilarity prometheus.Histogram

	// Mask requests by mask type and outcome
	Masks *prometheus.CounterVec

	// End to end latency per operation
	OperationLatency *prometheus.HistogramVec
}

// New registers the pipeline metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Enrollments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "faceid_enrollments_total",
			Help: "Total enrollment attempts by outcome",
		}, []string{"outcome"}),

		EnrollmentCaptures: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "faceid_enrollment_captures",
			Help:    "Number of per-image embeddings averaged into a reference",
			Buckets: []float64{1, 2, 3, 4, 5},
		}),

		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "faceid_verifications_total",
			Help: "Total verifications by confidence tier",
		}, []string{"tier"}), // tier: "accurate", "ambiguous", "not_detected"

		VerificationSimilarity: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "faceid_verification_similarity",
			Help:    "Best cosine similarity observed per verification",
			Buckets: []float64{0, 0.2, 0.4, 0.5, 0.6, 0.65, 0.7, 0.8, 0.9, 1},
		}),

		Masks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "faceid_masks_total",
			Help: "Total mask requests by mask type and outcome",
		}, []string{"mask_type", "outcome"}),

		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "faceid_operation_duration_seconds",
			Help:    "Duration of pipeline operations including model inference",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}), // operation: "enroll", "verify", "mask"
	}
}

// ObserveEnrollment records an enrollment attempt. captures is ignored on failure.
func (m *Metrics) ObserveEnrollment(ok bool, captures int) {
	if m == nil {
		return
	}
	m.Enrollments.WithLabelValues(outcome(ok)).Inc()
	if ok {
		m.EnrollmentCaptures.Observe(float64(captures))
	}
}

// ObserveVerification records a completed verification.
func (m *Metrics) ObserveVerification(tier string, similarity float64) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(tier).Inc()
	m.VerificationSimilarity.Observe(similarity)
}

// ObserveMask records a mask request.
func (m *Metrics) ObserveMask(maskType string, ok bool) {
	if m != nil {
		m.Masks.WithLabelValues(maskType, outcome(ok)).Inc()
	}
}

// ObserveLatency records the duration of an operation.
func (m *Metrics) ObserveLatency(operation string, d time.Duration) {
	if m != nil {
		m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

func outcome(ok bool) string {
	if ok {
		return OutcomeSuccess
	}
	return OutcomeFailure
}
