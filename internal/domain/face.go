package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxCapture is the maximum number of per-image embeddings averaged into a reference.
	MaxCapture = 5

	// AccurateThreshold is the inclusive lower bound of the accurate tier.
	AccurateThreshold = 0.7
	// AmbiguousThreshold is the inclusive lower bound of the ambiguous tier.
	AmbiguousThreshold = 0.6

	// MaskMatchThreshold must be strictly exceeded for a face to be masked.
	MaskMatchThreshold = 0.7
)

// ConfidenceTier is the discrete outcome derived from a similarity score.
type ConfidenceTier string

const (
	TierAccurate    ConfidenceTier = "accurate"
	TierAmbiguous   ConfidenceTier = "ambiguous"
	TierNotDetected ConfidenceTier = "not_detected"
)

// ClassifyTier maps a cosine similarity to its confidence tier.
func ClassifyTier(similarity float64) ConfidenceTier {
	switch {
	case similarity >= AccurateThreshold:
		return TierAccurate
	case similarity >= AmbiguousThreshold:
		return TierAmbiguous
	default:
		return TierNotDetected
	}
}

// MatchPolicy names how a face is selected among several detections.
type MatchPolicy string

const (
	// PolicyBestMatch evaluates every face and keeps the highest similarity.
	PolicyBestMatch MatchPolicy = "best_match"
	// PolicyFirstMatch stops at the first face above the threshold, in detection order.
	PolicyFirstMatch MatchPolicy = "first_match"
)

// Result statuses shared by the HTTP and CLI surfaces
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)

// Enrollment is the outcome of storing a reference embedding
type Enrollment struct {
	UserID     string    `json:"user_id"`
	Location   string    `json:"embedding_path"`
	Embeddings int       `json:"embeddings_used"`
	Dimension  int       `json:"dimension"`
	CreatedAt  time.Time `json:"created_at"`
}

// Verification is the outcome of a 1:1 verification against a claimed identity
type Verification struct {
	ID             uuid.UUID      `json:"verification_id"`
	UserID         string         `json:"user_id"`
	Status         string         `json:"status"`
	Similarity     float64        `json:"similarity"`
	Tier           ConfidenceTier `json:"tier"`
	Policy         MatchPolicy    `json:"policy"`
	FacesEvaluated int            `json:"faces_evaluated"`
	LatencyMs      int64          `json:"latency_ms"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Verified reports whether the verification produced a success result.
func (v *Verification) Verified() bool {
	return v.Status == StatusSuccess
}

// Message renders the human readable outcome, similarity formatted to two decimals.
func (v *Verification) Message() string {
	if v.Tier == TierNotDetected {
		return fmt.Sprintf("face not detected (similarity: %.2f)", v.Similarity)
	}
	return fmt.Sprintf("%s verified (similarity: %.2f), tier: %s", v.UserID, v.Similarity, v.Tier)
}
