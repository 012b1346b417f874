package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"couponhub/internal/apperrors"
)

// ErrorHandler renders every error returned by a handler as
// {"message": ..., "stack": ...}. The stack is only included in development.
func ErrorHandler(logger *zap.Logger, development bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Server Error"

		var appErr *apperrors.Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &appErr):
			status = appErr.Status()
			message = appErr.Message
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			message = fiberErr.Message
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		body := fiber.Map{"message": message}
		if development {
			if appErr != nil {
				body["stack"] = fmt.Sprintf("%+v", appErr)
			} else {
				body["stack"] = fmt.Sprintf("%+v", err)
			}
		}
		return c.Status(status).JSON(body)
	}
}
