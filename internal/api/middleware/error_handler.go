package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/saturnino-fabrica-de-software/faceid/internal/domain"
)

// errorResponse builds the envelope every failure shares:
// {"status":"error","error":{"code":...,"message":...}}
func errorResponse(code, message string) fiber.Map {
	return fiber.Map{
		"status": "error",
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	}
}

// ErrorHandler is the only place pipeline errors become HTTP statuses.
// Causes are logged, never returned to the client.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		// Check if it's our AppError
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			level := slog.LevelDebug
			if appErr.StatusCode >= 500 {
				level = slog.LevelError
			}
			logger.Log(c.Context(), level, "request failed",
				slog.String("code", appErr.Code),
				slog.String("path", c.Path()),
				slog.Any("request_id", c.Locals(LocalRequestID)),
				slog.Any("error", appErr.Err),
			)

			return c.Status(appErr.StatusCode).JSON(errorResponse(appErr.Code, appErr.Message))
		}

		// Check if it's a Fiber error
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code := "HTTP_ERROR"
			switch fiberErr.Code {
			case fiber.StatusMethodNotAllowed:
				code = domain.ErrMethodNotAllowed.Code
			case fiber.StatusNotFound:
				code = "NOT_FOUND"
			case fiber.StatusRequestEntityTooLarge:
				code = domain.ErrInvalidImage.Code
			}
			return c.Status(fiberErr.Code).JSON(errorResponse(code, fiberErr.Message))
		}

		// Unknown error - log and return generic message
		logger.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Path()),
			slog.Any("request_id", c.Locals(LocalRequestID)),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse(domain.ErrInternal.Code, domain.ErrInternal.Message))
	}
}
