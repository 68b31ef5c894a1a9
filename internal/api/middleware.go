package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Veraticus/tally/internal/auth"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/gofiber/fiber/v2"
)

const userLocalKey = "user"

// requestContext gives each request a context that is canceled when the
// handler chain returns or the server shuts down.
func requestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithCancel(c.Context())
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// requestLogger logs every request and records it in the request counter.
// Errors are rendered here so the logged status matches the response.
func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()
		if err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		route := c.Route().Path
		s.metrics.ObserveRequest(c.Method(), route, status)

		fields := common.Fields{
			"method":   c.Method(),
			"path":     c.Path(),
			"status":   status,
			"duration": time.Since(start),
			"ip":       c.IP(),
		}
		switch {
		case status >= fiber.StatusInternalServerError && err != nil:
			common.LogError(s.logger, err, "HTTP request", fields)
		case status >= fiber.StatusBadRequest:
			s.logger.Warn("HTTP request", fieldArgs(fields)...)
		default:
			s.logger.Info("HTTP request", fieldArgs(fields)...)
		}
		return nil
	}
}

func fieldArgs(fields common.Fields) []any {
	args := make([]any, 0, 2*len(fields))
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}

// requireUser resolves the bearer token into a user stored in Locals.
func (s *Server) requireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return auth.ErrMissingToken
		}

		user, err := s.accounts.Authenticate(userContext(c), strings.TrimSpace(token))
		if err != nil {
			return err
		}

		c.Locals(userLocalKey, user)
		return c.Next()
	}
}

var errNoUser = errors.New("no authenticated user on request")

func currentUser(c *fiber.Ctx) (*model.User, error) {
	user, ok := c.Locals(userLocalKey).(*model.User)
	if !ok || user == nil {
		return nil, errNoUser
	}
	return user, nil
}
