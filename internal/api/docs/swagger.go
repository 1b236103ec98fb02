package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// EnrollResponse represents the response for a successful enrollment
type EnrollResponse struct {
	Status         string `json:"status" example:"success"`
	Message        string `json:"message" example:"Face data registered for alice"`
	UserID         string `json:"user_id" example:"alice"`
	EmbeddingPath  string `json:"embedding_path" example:"embeddings/alice_embedding.json"`
	EmbeddingsUsed int    `json:"embeddings_used" example:"3"`
	Dimension      int    `json:"dimension" example:"512"`
}

// VerifyResponse represents the response for 1:1 verification
type VerifyResponse struct {
	Status         string  `json:"status" example:"success"`
	Message        string  `json:"message" example:"alice verified (similarity: 0.83), tier: accurate"`
	UserID         string  `json:"user_id" example:"alice"`
	Similarity     float64 `json:"similarity" example:"0.83"`
	Tier           string  `json:"tier" example:"accurate"`
	Policy         string  `json:"policy" example:"best_match"`
	VerificationID string  `json:"verification_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	FacesEvaluated int     `json:"faces_evaluated" example:"1"`
	LatencyMs      int64   `json:"latency_ms" example:"420"`
}

// FaceBox is the redacted region in pixels
type FaceBox struct {
	X      int `json:"x" example:"120"`
	Y      int `json:"y" example:"64"`
	Width  int `json:"width" example:"180"`
	Height int `json:"height" example:"210"`
}

// MaskResponse represents the response for a masked image
type MaskResponse struct {
	Status     string  `json:"status" example:"success"`
	Message    string  `json:"message" example:"Face masked for alice"`
	ImageURL   string  `json:"image_url" example:"/media/masked_result_1709294400000000000.png"`
	MaskType   string  `json:"mask_type" example:"blur"`
	Similarity float64 `json:"similarity" example:"0.91"`
	FaceBox    FaceBox `json:"face_box"`
}

// ErrorBody carries the machine readable code and a safe message
type ErrorBody struct {
	Code    string `json:"code" example:"INVALID_REQUEST"`
	Message string `json:"message" example:"Invalid request"`
}

// ErrorResponse represents the standard error envelope
type ErrorResponse struct {
	Status string    `json:"status" example:"error"`
	Error  ErrorBody `json:"error"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

func errorResponse(code, message, status, description string) response.Response {
	return response.New(ErrorResponse{Status: "error", Error: ErrorBody{Code: code, Message: message}}, status, description)
}

var (
	errInvalidRequest = errorResponse("INVALID_REQUEST", "Invalid request", "400", "Bad Request")
	errInvalidImage   = errorResponse("INVALID_IMAGE", "Invalid image format or corrupted file", "400", "Bad Request")
	errNotEnrolled    = errorResponse("IDENTITY_NOT_ENROLLED", "No face data enrolled for this user_id", "400", "Bad Request")
	errNoFace         = errorResponse("NO_FACE_DETECTED", "No face detected in the image", "400", "Bad Request")
	errNotAllowed     = errorResponse("METHOD_NOT_ALLOWED", "Method not allowed", "405", "Method Not Allowed")
	errRateLimited    = errorResponse("RATE_LIMIT_EXCEEDED", "Rate limit exceeded, please try again later", "429", "Too Many Requests")
	errInternal       = errorResponse("INTERNAL_ERROR", "An unexpected error occurred", "500", "Internal Server Error")
)

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "faceid API",
		Version:     "v1.0.0",
		Description: "Face enrollment, 1:1 verification and identity-targeted face masking",
		Host:        "localhost:3000",
		Path:        "/",
	})

	userID := parameter.StrParam("user_id", parameter.Form,
		parameter.WithRequired(),
		parameter.WithDescription("Identity the images belong to"),
	)

	endpoints := []*endpoint.EndPoint{
		// POST /face-register/realtime - Enroll
		endpoint.New(
			endpoint.POST,
			"/face-register/realtime",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Enroll a user"),
			endpoint.WithDescription("Averages the embeddings of up to five submitted images (largest face per image) and stores the result as the user's reference, replacing any previous one."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				userID,
				parameter.FileParam("face_images",
					parameter.WithRequired(),
					parameter.WithDescription("One or more face images (jpeg, png, webp, bmp)"),
				),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollResponse{}, "201", "Reference embedding stored"),
			}),
			endpoint.WithErrors([]response.Response{
				errInvalidRequest,
				errInvalidImage,
				errorResponse("NO_FACE_IN_ANY_IMAGE", "No face detected in any of the submitted images", "400", "Bad Request"),
				errNotAllowed,
				errRateLimited,
				errorResponse("STORAGE_WRITE_FAILED", "Failed to persist result", "500", "Internal Server Error"),
				errInternal,
			}),
		),

		// POST /face-verify - Verify (1:1)
		endpoint.New(
			endpoint.POST,
			"/face-verify",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Verify a face against an enrolled identity"),
			endpoint.WithDescription("Scores every face in the probe against the claimed identity and reports the best similarity with its tier. A not_detected tier is returned with status fail."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				userID,
				parameter.FileParam("face_image",
					parameter.WithRequired(),
					parameter.WithDescription("Probe image"),
				),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(VerifyResponse{}, "200", "Verification completed"),
			}),
			endpoint.WithErrors([]response.Response{
				errInvalidRequest,
				errInvalidImage,
				errNotEnrolled,
				errNoFace,
				errNotAllowed,
				errRateLimited,
				errInternal,
			}),
		),

		// POST /face-masking - Mask
		endpoint.New(
			endpoint.POST,
			"/face-masking",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Mask the face of an enrolled identity"),
			endpoint.WithDescription("Redacts the first face whose similarity to the identity exceeds 0.7 and publishes the result under /media/."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				userID,
				parameter.StrParam("mask_type", parameter.Form,
					parameter.WithDescription("black (default), blur, or the name of a loaded overlay"),
				),
				parameter.FileParam("image",
					parameter.WithRequired(),
					parameter.WithDescription("Image to redact"),
				),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MaskResponse{}, "200", "Masked image published"),
			}),
			endpoint.WithErrors([]response.Response{
				errInvalidRequest,
				errInvalidImage,
				errorResponse("UNSUPPORTED_MASK_TYPE", "Unsupported mask type", "400", "Bad Request"),
				errNotEnrolled,
				errNoFace,
				errorResponse("IDENTITY_NOT_MATCHED", "No face in the image matches this user_id", "400", "Bad Request"),
				errNotAllowed,
				errRateLimited,
				errorResponse("STORAGE_WRITE_FAILED", "Failed to persist result", "500", "Internal Server Error"),
				errInternal,
			}),
		),

		// DELETE /faces/:user_id - Delete reference
		endpoint.New(
			endpoint.DELETE,
			"/faces/{user_id}",
			endpoint.WithTags("Faces"),
			endpoint.WithSummary("Delete an enrolled identity"),
			endpoint.WithDescription("Removes the stored reference embedding (data subject erasure)"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("user_id", parameter.Path, parameter.WithDescription("Enrolled identity")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Reference deleted"),
			}),
			endpoint.WithErrors([]response.Response{
				errInvalidRequest,
				errNotEnrolled,
				errInternal,
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
