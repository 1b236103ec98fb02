package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/faceid/internal/audit"
	"github.com/saturnino-fabrica-de-software/faceid/internal/domain"
	"github.com/saturnino-fabrica-de-software/faceid/internal/embedding"
	"github.com/saturnino-fabrica-de-software/faceid/internal/geometry"
	"github.com/saturnino-fabrica-de-software/faceid/internal/media"
	"github.com/saturnino-fabrica-de-software/faceid/internal/metrics"
	"github.com/saturnino-fabrica-de-software/faceid/internal/provider"
	"github.com/saturnino-fabrica-de-software/faceid/internal/render"
	"github.com/saturnino-fabrica-de-software/faceid/internal/store"
)

// EmbeddingStore persists one reference embedding per identity
type EmbeddingStore interface {
	Save(ctx context.Context, userID string, embedding []float64) (string, error)
	Load(ctx context.Context, userID string) ([]float64, error)
	Delete(ctx context.Context, userID string) error
}

// MediaWriter publishes rendered artifacts and returns their URL
type MediaWriter interface {
	Write(ctx context.Context, name string, data []byte) (string, error)
}

// Masker paints a redaction over a region of a canvas
type Masker interface {
	Supports(spec domain.MaskSpec) bool
	Apply(canvas *image.RGBA, region image.Rectangle, spec domain.MaskSpec) (image.Rectangle, error)
}

type FaceService struct {
	detector provider.Detector
	embedder provider.Embedder
	store    EmbeddingStore
	media    MediaWriter
	masker   Masker
	audit    audit.Logger
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewFaceService(
	models *provider.Models,
	embeddingStore EmbeddingStore,
	mediaWriter MediaWriter,
	masker Masker,
) *FaceService {
	return &FaceService{
		detector: models.Detector,
		embedder: models.Embedder,
		store:    embeddingStore,
		media:    mediaWriter,
		masker:   masker,
		audit:    &audit.NoOpLogger{},
		logger:   slog.Default(),
		now:      time.Now,
	}
}

func (s *FaceService) WithAudit(logger audit.Logger) *FaceService {
	s.audit = logger
	return s
}

func (s *FaceService) WithMetrics(m *metrics.Metrics) *FaceService {
	s.metrics = m
	return s
}

func (s *FaceService) WithLogger(logger *slog.Logger) *FaceService {
	s.logger = logger.With("component", "face_service")
	return s
}

// WithClock replaces the time source used for timestamps and artifact names
func (s *FaceService) WithClock(now func() time.Time) *FaceService {
	s.now = now
	return s
}

// Enroll averages up to domain.MaxCapture face embeddings, one per image (the
// largest face), and stores the mean as the identity's reference, replacing
// any previous one. Images that fail to decode or hold no usable face are skipped.
func (s *FaceService) Enroll(ctx context.Context, userID string, images [][]byte) (*domain.Enrollment, error) {
	start := time.Now()

	enrollment, err := s.enroll(ctx, userID, images)

	s.metrics.ObserveLatency("enroll", time.Since(start))
	captures := 0
	if enrollment != nil {
		captures = enrollment.Embeddings
	}
	s.metrics.ObserveEnrollment(err == nil, captures)
	s.record(ctx, audit.EventEnrolled, userID, err, map[string]string{
		"images":          strconv.Itoa(len(images)),
		"embeddings_used": strconv.Itoa(captures),
	})

	return enrollment, err
}

func (s *FaceService) enroll(ctx context.Context, userID string, images [][]byte) (*domain.Enrollment, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, domain.ErrInvalidRequest.WithError(errors.New("at least one image is required"))
	}

	collected := make([][]float64, 0, domain.MaxCapture)
	for i, data := range images {
		if len(collected) == domain.MaxCapture {
			break
		}

		img, _, err := render.Decode(data)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping undecodable enrollment image",
				slog.Int("index", i),
				slog.Any("error", err),
			)
			continue
		}

		detections, err := s.detector.Detect(ctx, img)
		if err != nil {
			return nil, modelError("detect", err)
		}
		largest, ok := geometry.Largest(detections)
		if !ok {
			continue
		}

		crop := geometry.Crop(img, geometry.Reconcile(largest.Box))
		if crop == nil {
			continue
		}

		emb, err := s.embedder.Embed(ctx, crop)
		if errors.Is(err, provider.ErrNoFace) {
			continue
		}
		if err != nil {
			return nil, modelError("embed", err)
		}

		if len(collected) > 0 && len(emb) != len(collected[0]) {
			s.logger.WarnContext(ctx, "skipping embedding with mismatched dimension",
				slog.Int("index", i),
				slog.Int("got", len(emb)),
				slog.Int("want", len(collected[0])),
			)
			continue
		}
		collected = append(collected, emb)
	}

	if len(collected) == 0 {
		return nil, domain.ErrNoFaceInAnyImage
	}

	reference, err := embedding.Mean(collected)
	if err != nil {
		return nil, domain.ErrInternal.WithError(err)
	}

	location, err := s.store.Save(ctx, userID, reference)
	if err != nil {
		return nil, storeError(err, domain.ErrStorageWriteFailed)
	}

	s.logger.InfoContext(ctx, "identity enrolled",
		slog.String("user_id", userID),
		slog.Int("embeddings_used", len(collected)),
	)

	return &domain.Enrollment{
		UserID:     userID,
		Location:   location,
		Embeddings: len(collected),
		Dimension:  len(reference),
		CreatedAt:  s.now().UTC(),
	}, nil
}

// Verify compares every face in the probe against userID's reference and
// reports the best similarity (best_match). A below-threshold result is a
// "fail" Verification, not an error.
func (s *FaceService) Verify(ctx context.Context, userID string, probe []byte) (*domain.Verification, error) {
	start := time.Now()

	v, err := s.verify(ctx, userID, probe)

	latency := time.Since(start)
	s.metrics.ObserveLatency("verify", latency)
	meta := map[string]string{}
	if v != nil {
		v.LatencyMs = latency.Milliseconds()
		s.metrics.ObserveVerification(string(v.Tier), v.Similarity)
		meta["tier"] = string(v.Tier)
		meta["similarity"] = strconv.FormatFloat(v.Similarity, 'f', 4, 64)
		meta["verification_id"] = v.ID.String()
	}
	s.record(ctx, audit.EventVerified, userID, err, meta)

	return v, err
}

func (s *FaceService) verify(ctx context.Context, userID string, probe []byte) (*domain.Verification, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	img, _, err := render.Decode(probe)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	reference, err := s.loadReference(ctx, userID)
	if err != nil {
		return nil, err
	}

	detections, err := s.detector.Detect(ctx, img)
	if err != nil {
		return nil, modelError("detect", err)
	}
	if len(detections) == 0 {
		return nil, domain.ErrNoFaceDetected
	}

	// Largest first so the most prominent face is scored first
	geometry.SortByArea(detections)

	highest := -1.0
	evaluated := 0
	for _, d := range detections {
		crop := geometry.Crop(img, geometry.Reconcile(d.Box))
		if crop == nil {
			continue
		}

		emb, err := s.embedder.Embed(ctx, crop)
		if errors.Is(err, provider.ErrNoFace) {
			continue
		}
		if err != nil {
			return nil, modelError("embed", err)
		}

		sim, err := embedding.CosineSimilarity(reference, emb)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping face that cannot be compared",
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
			continue
		}

		evaluated++
		if sim > highest {
			highest = sim
		}
	}

	tier := domain.ClassifyTier(highest)
	status := domain.StatusSuccess
	if tier == domain.TierNotDetected {
		status = domain.StatusFail
	}

	return &domain.Verification{
		ID:             uuid.New(),
		UserID:         userID,
		Status:         status,
		Similarity:     highest,
		Tier:           tier,
		Policy:         domain.PolicyBestMatch,
		FacesEvaluated: evaluated,
		CreatedAt:      s.now().UTC(),
	}, nil
}

// Mask redacts the first face (in detection order) whose similarity to
// userID's reference exceeds domain.MaskMatchThreshold (first_match), and
// publishes the result as a PNG.
func (s *FaceService) Mask(ctx context.Context, userID string, img []byte, maskType string) (*domain.RenderedArtifact, error) {
	start := time.Now()

	artifact, err := s.mask(ctx, userID, img, maskType)

	s.metrics.ObserveLatency("mask", time.Since(start))
	label := maskType
	if label == "" {
		label = domain.DefaultMaskType
	}
	if errors.Is(err, domain.ErrUnsupportedMaskType) {
		// Keep arbitrary client input out of label cardinality
		label = "unsupported"
	}
	s.metrics.ObserveMask(label, err == nil)

	meta := map[string]string{"mask_type": label}
	if artifact != nil {
		meta["filename"] = artifact.Filename
	}
	s.record(ctx, audit.EventMasked, userID, err, meta)

	return artifact, err
}

func (s *FaceService) mask(ctx context.Context, userID string, data []byte, maskType string) (*domain.RenderedArtifact, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	spec, err := domain.ParseMaskSpec(maskType)
	if err != nil {
		return nil, err
	}
	if !s.masker.Supports(spec) {
		return nil, domain.ErrUnsupportedMaskType.WithError(fmt.Errorf("overlay %q is not available", spec.String()))
	}

	img, _, err := render.Decode(data)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	reference, err := s.loadReference(ctx, userID)
	if err != nil {
		return nil, err
	}
	reference, err = embedding.Normalize(reference)
	if err != nil {
		return nil, domain.ErrInternal.WithError(fmt.Errorf("stored reference: %w", err))
	}

	faces, err := s.embedder.DetectAndEmbed(ctx, img)
	if err != nil {
		return nil, modelError("detect and embed", err)
	}
	if len(faces) == 0 {
		return nil, domain.ErrNoFaceDetected
	}

	target, similarity, ok := s.firstMatch(ctx, reference, faces)
	if !ok {
		return nil, domain.ErrIdentityNotMatched
	}

	canvas := render.ToRGBA(img)
	region := geometry.Rect(target.Box, canvas.Bounds())
	painted, err := s.masker.Apply(canvas, region, spec)
	if err != nil {
		return nil, domain.ErrInternal.WithError(fmt.Errorf("apply %s mask: %w", spec, err))
	}

	encoded, err := render.EncodePNG(canvas)
	if err != nil {
		return nil, domain.ErrStorageWriteFailed.WithError(err)
	}

	createdAt := s.now().UTC()
	name := media.ArtifactName(createdAt)
	url, err := s.media.Write(ctx, name, encoded)
	if err != nil {
		return nil, domain.ErrStorageWriteFailed.WithError(err)
	}

	s.logger.InfoContext(ctx, "face masked",
		slog.String("user_id", userID),
		slog.String("mask_type", spec.String()),
		slog.String("filename", name),
	)

	return &domain.RenderedArtifact{
		Filename: name,
		URL:      url,
		FaceBox: domain.FaceBox{
			X:      painted.Min.X,
			Y:      painted.Min.Y,
			Width:  painted.Dx(),
			Height: painted.Dy(),
		},
		MaskType:   spec.String(),
		Similarity: similarity,
		CreatedAt:  createdAt,
	}, nil
}

func (s *FaceService) firstMatch(ctx context.Context, reference []float64, faces []provider.FaceEmbedding) (provider.FaceEmbedding, float64, bool) {
	for _, face := range faces {
		if len(face.Embedding) != len(reference) {
			s.logger.DebugContext(ctx, "skipping face with mismatched dimension",
				slog.Int("got", len(face.Embedding)),
				slog.Int("want", len(reference)),
			)
			continue
		}

		emb, err := embedding.Normalize(face.Embedding)
		if err != nil {
			continue
		}
		sim, err := embedding.CosineSimilarity(reference, emb)
		if err != nil {
			continue
		}
		if sim > domain.MaskMatchThreshold {
			return face, sim, true
		}
	}
	return provider.FaceEmbedding{}, 0, false
}

// Delete removes the identity's reference embedding
func (s *FaceService) Delete(ctx context.Context, userID string) error {
	err := s.delete(ctx, userID)
	s.record(ctx, audit.EventDeleted, userID, err, nil)
	return err
}

func (s *FaceService) delete(ctx context.Context, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, userID); err != nil {
		return storeError(err, domain.ErrInternal)
	}
	return nil
}

func (s *FaceService) loadReference(ctx context.Context, userID string) ([]float64, error) {
	reference, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, storeError(err, domain.ErrInternal)
	}
	return reference, nil
}

// record emits an audit event. Audit failures never fail the operation.
func (s *FaceService) record(ctx context.Context, eventType audit.EventType, userID string, opErr error, meta map[string]string) {
	event := audit.Event{
		EventType: eventType,
		UserID:    userID,
		Success:   opErr == nil,
		Metadata:  meta,
	}
	if opErr != nil {
		event.Error = errorCode(opErr)
	}
	if err := s.audit.Log(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit log failed", slog.Any("error", err))
	}
}

func validateUserID(userID string) error {
	if _, err := store.NormalizeKey(userID); err != nil {
		return domain.ErrInvalidRequest.WithError(fmt.Errorf("user_id: %w", err))
	}
	return nil
}

// storeError maps store sentinels onto domain errors; anything else becomes fallback
func storeError(err error, fallback *domain.AppError) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.ErrIdentityNotEnrolled
	case errors.Is(err, store.ErrInvalidKey):
		return domain.ErrInvalidRequest.WithError(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fallback.WithError(err)
	}
}

func modelError(stage string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return domain.ErrModelUnavailable.WithError(fmt.Errorf("%s: %w", stage, err))
}

// errorCode keeps audit records free of raw error text
func errorCode(err error) string {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return domain.ErrInternal.Code
}
