package server

import (
	"errors"
	"strings"

	"threads/internal/middleware"
	"threads/internal/models"
	"threads/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
)

// statusFor maps an AppError code onto an HTTP status.
func statusFor(err error) int {
	switch models.ErrorCode(err) {
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeConflict:
		return fiber.StatusConflict
	case models.CodeUnauthorized:
		return fiber.StatusForbidden
	case models.CodeConnectionUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err with the status its code maps to and records it
// on the request span. Store and internal failures are reported without the
// underlying cause.
func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	code := models.ErrorCode(err)
	if code == "" {
		code = models.CodeInternal
	}
	observability.AddTraceAttributesToContext(c.UserContext(), attribute.String("error.code", code))
	observability.RecordErrorInContext(c.UserContext(), err)
	if status == fiber.StatusInternalServerError {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return c.Status(status).JSON(models.ErrorResponse{Error: appErr.Message, Code: appErr.Code})
		}
		return c.Status(status).JSON(models.ErrorResponse{Error: "Internal server error", Code: models.CodeInternal})
	}
	return models.RespondWithError(c, status, err)
}

// parsePage reads 1-based page and pageSize query parameters.
func parsePage(c *fiber.Ctx) models.PageRequest {
	return models.PageRequest{
		PageNumber: c.QueryInt("page", 1),
		PageSize:   c.QueryInt("pageSize", models.DefaultPageSize),
	}.Normalize()
}

// currentUser loads the profile of the authenticated caller.
func (s *Server) currentUser(c *fiber.Ctx) (*models.User, error) {
	externalID := middleware.CurrentUserID(c)
	if externalID == "" {
		return nil, models.NewUnauthorizedError("Authorization required")
	}
	profile, err := s.users.FetchUser(c.UserContext(), externalID)
	if err != nil {
		return nil, err
	}
	return profile.User, nil
}

// revalidationPath returns the client supplied path, trimmed.
func revalidationPath(path string) string {
	return strings.TrimSpace(path)
}
