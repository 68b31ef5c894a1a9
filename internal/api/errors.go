package api

import (
	"errors"

	"github.com/Veraticus/tally/internal/auth"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/engine"
	"github.com/gofiber/fiber/v2"
)

// handleError renders every error as {"error": message}. Logging happens in
// requestLogger.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code, message := errorResponse(err)
	return c.Status(code).JSON(fiber.Map{"error": message})
}

// errorResponse maps domain errors onto status codes and client-safe
// messages. Anything unrecognized becomes a 500 without detail.
func errorResponse(err error) (int, string) {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	switch {
	case errors.Is(err, auth.ErrUsernameExists):
		return fiber.StatusBadRequest, "Username already exists"
	case errors.Is(err, auth.ErrEmailExists):
		return fiber.StatusBadRequest, "Email already registered"
	case errors.Is(err, auth.ErrMissingField):
		return fiber.StatusBadRequest, "Username, email and password are required"
	case errors.Is(err, auth.ErrPasswordTooLong):
		return fiber.StatusBadRequest, "Password must be at most 72 bytes"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return fiber.StatusBadRequest, "Incorrect username or password"
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return fiber.StatusUnauthorized, "Could not validate credentials"
	case errors.Is(err, errNoUser):
		return fiber.StatusUnauthorized, "Could not validate credentials"
	case errors.Is(err, engine.ErrEmptyDescription):
		return fiber.StatusBadRequest, "Description cannot be empty"
	case errors.Is(err, engine.ErrClassification):
		return fiber.StatusBadGateway, "could not create transaction"
	case errors.Is(err, engine.ErrInvalidPage),
		errors.Is(err, engine.ErrInvalidLimit),
		errors.Is(err, engine.ErrInvalidDateRange):
		return fiber.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, engine.ErrUnknownCategory):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrNotFound):
		return fiber.StatusNotFound, "Not found"
	}

	return fiber.StatusInternalServerError, common.UserMessage(err, "Internal server error")
}
