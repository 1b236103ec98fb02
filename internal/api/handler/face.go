package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/faceid/internal/domain"
)

// DefaultMaxImageSize applies when the handler is built without a limit
const DefaultMaxImageSize = 10 * 1024 * 1024 // 10MB

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// FaceService interface for the service
type FaceService interface {
	Enroll(ctx context.Context, userID string, images [][]byte) (*domain.Enrollment, error)
	Verify(ctx context.Context, userID string, probe []byte) (*domain.Verification, error)
	Mask(ctx context.Context, userID string, image []byte, maskType string) (*domain.RenderedArtifact, error)
	Delete(ctx context.Context, userID string) error
}

// FaceHandler handles face-related requests
type FaceHandler struct {
	service      FaceService
	logger       *slog.Logger
	maxImageSize int64
}

// NewFaceHandler creates a new FaceHandler instance
func NewFaceHandler(service FaceService, logger *slog.Logger, maxImageSize int64) *FaceHandler {
	if maxImageSize <= 0 {
		maxImageSize = DefaultMaxImageSize
	}
	return &FaceHandler{
		service:      service,
		logger:       logger.With("component", "face_handler"),
		maxImageSize: maxImageSize,
	}
}

// EnrollResponse response for enroll endpoint
type EnrollResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	UserID         string `json:"user_id"`
	EmbeddingPath  string `json:"embedding_path"`
	EmbeddingsUsed int    `json:"embeddings_used"`
	Dimension      int    `json:"dimension"`
}

// VerifyResponse response for verify endpoint
type VerifyResponse struct {
	Status         string  `json:"status"`
	Message        string  `json:"message"`
	UserID         string  `json:"user_id"`
	Similarity     float64 `json:"similarity"`
	Tier           string  `json:"tier"`
	Policy         string  `json:"policy"`
	VerificationID string  `json:"verification_id"`
	FacesEvaluated int     `json:"faces_evaluated"`
	LatencyMs      int64   `json:"latency_ms"`
}

// MaskResponse response for masking endpoint
type MaskResponse struct {
	Status     string         `json:"status"`
	Message    string         `json:"message"`
	ImageURL   string         `json:"image_url"`
	MaskType   string         `json:"mask_type"`
	Similarity float64        `json:"similarity"`
	FaceBox    domain.FaceBox `json:"face_box"`
}

// Enroll POST /face-register/realtime - store the averaged reference
func (h *FaceHandler) Enroll(c *fiber.Ctx) error {
	// 1. Extract user_id from form
	userID, err := requiredUserID(c.FormValue("user_id"))
	if err != nil {
		return err
	}

	// 2. Extract and validate every image
	form, err := c.MultipartForm()
	if err != nil {
		return domain.ErrInvalidRequest.WithError(err)
	}
	files := form.File["face_images"]
	if len(files) == 0 {
		return domain.ErrInvalidRequest.WithError(errors.New("face_images is required"))
	}

	images := make([][]byte, 0, len(files))
	for _, file := range files {
		data, err := h.readImage(file)
		if err != nil {
			return fmt.Errorf("enroll %s: %w", file.Filename, err)
		}
		images = append(images, data)
	}

	// 3. Call service to enroll
	enrollment, err := h.service.Enroll(c.UserContext(), userID, images)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(EnrollResponse{
		Status:         domain.StatusSuccess,
		Message:        "Face data registered for " + enrollment.UserID,
		UserID:         enrollment.UserID,
		EmbeddingPath:  enrollment.Location,
		EmbeddingsUsed: enrollment.Embeddings,
		Dimension:      enrollment.Dimension,
	})
}

// Verify POST /face-verify - verify face 1:1
func (h *FaceHandler) Verify(c *fiber.Ctx) error {
	userID, err := requiredUserID(c.FormValue("user_id"))
	if err != nil {
		return err
	}

	probe, err := h.formImage(c, "face_image")
	if err != nil {
		return fmt.Errorf("verify face: %w", err)
	}

	verification, err := h.service.Verify(c.UserContext(), userID, probe)
	if err != nil {
		return err
	}

	// a not_detected tier is still a completed verification
	return c.JSON(VerifyResponse{
		Status:         verification.Status,
		Message:        verification.Message(),
		UserID:         verification.UserID,
		Similarity:     verification.Similarity,
		Tier:           string(verification.Tier),
		Policy:         string(verification.Policy),
		VerificationID: verification.ID.String(),
		FacesEvaluated: verification.FacesEvaluated,
		LatencyMs:      verification.LatencyMs,
	})
}

// Mask POST /face-masking - redact the face of the enrolled identity
func (h *FaceHandler) Mask(c *fiber.Ctx) error {
	userID, err := requiredUserID(c.FormValue("user_id"))
	if err != nil {
		return err
	}

	img, err := h.formImage(c, "image")
	if err != nil {
		return fmt.Errorf("mask face: %w", err)
	}

	artifact, err := h.service.Mask(c.UserContext(), userID, img, c.FormValue("mask_type"))
	if err != nil {
		return err
	}

	return c.JSON(MaskResponse{
		Status:     domain.StatusSuccess,
		Message:    "Face masked for " + userID,
		ImageURL:   artifact.URL,
		MaskType:   artifact.MaskType,
		Similarity: artifact.Similarity,
		FaceBox:    artifact.FaceBox,
	})
}

// Delete DELETE /faces/:user_id - erase the stored reference
func (h *FaceHandler) Delete(c *fiber.Ctx) error {
	userID, err := requiredUserID(c.Params("user_id"))
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), userID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func requiredUserID(raw string) (string, error) {
	userID := strings.TrimSpace(raw)
	if userID == "" {
		return "", domain.ErrInvalidRequest.WithError(errors.New("user_id is required"))
	}
	return userID, nil
}

// formImage extracts a single image field from the form
func (h *FaceHandler) formImage(c *fiber.Ctx, field string) ([]byte, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return nil, domain.ErrInvalidRequest.WithError(fmt.Errorf("%s is required: %w", field, err))
	}
	return h.readImage(file)
}

// readImage validates size and content type, then reads the upload
func (h *FaceHandler) readImage(file *multipart.FileHeader) ([]byte, error) {
	if file.Size == 0 || file.Size > h.maxImageSize {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("size %d outside (0, %d]", file.Size, h.maxImageSize))
	}

	contentType := file.Header.Get("Content-Type")
	if !validImageTypes[strings.ToLower(contentType)] {
		return nil, domain.ErrInvalidImage.WithError(fmt.Errorf("content type %q", contentType))
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	return data, nil
}
