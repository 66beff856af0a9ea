package server

import (
	"log/slog"
	"net/url"
	"strconv"

	"bizzy/internal/middleware"
	"bizzy/internal/models"
	"bizzy/internal/service"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps an AppError code to its HTTP status.
func statusFor(err error) int {
	switch models.ErrorCode(err) {
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// mapServiceError writes expected service errors with their own message and
// anything else as a 500 carrying fallback.
func (s *Server) mapServiceError(c *fiber.Ctx, err error, fallback, event string) error {
	status := statusFor(err)
	if status != fiber.StatusInternalServerError {
		return models.RespondWithError(c, status, err)
	}
	return s.respondInternal(c, err, fallback, event)
}

// respondInternal logs err under event and responds 500 {"error": message}.
// The cause never reaches the client.
func (s *Server) respondInternal(c *fiber.Ctx, err error, message, event string) error {
	middleware.Logger.ErrorContext(c.UserContext(), message,
		slog.String("event", event),
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: message})
}

func (s *Server) logUpstreamFailure(c *fiber.Ctx, err error, event string) {
	middleware.Logger.WarnContext(c.UserContext(), "upstream request failed",
		slog.String("event", event),
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
}

func badRequest(c *fiber.Ctx, message string) error {
	return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(message))
}

// callerID returns the authenticated user's ID, or "" for anonymous requests.
func callerID(c *fiber.Ctx) string {
	id, _ := middleware.UserID(c)
	return id
}

// pathParam returns the URL-decoded route parameter.
func pathParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// pageParam parses a 1-based page number. Missing or invalid values mean 1.
func pageParam(c *fiber.Ctx) int {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func clientInfo(c *fiber.Ctx) service.ClientInfo {
	return service.ClientInfo{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}
