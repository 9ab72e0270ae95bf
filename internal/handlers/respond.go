package handlers

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"webstudio/internal/repositories"
	"webstudio/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrAuthentication),
		errors.Is(err, services.ErrAuthenticationRequired):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, repositories.ErrTemplateNotFound),
		errors.Is(err, services.ErrUnknownProvider):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrIllegalTransition):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrPaymentMethodRequired),
		errors.Is(err, services.ErrUnknownPaymentMethod),
		errors.Is(err, services.ErrEmptyCart):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrPaymentFailed):
		return fiber.StatusPaymentRequired
	case errors.Is(err, services.ErrRateLimited):
		return fiber.StatusTooManyRequests
	}
	return fiber.StatusInternalServerError
}

// respondError writes err as a JSON error body with the mapped status.
func respondError(c *fiber.Ctx, message string, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("%s: %v", message, err)
	}
	body := fiber.Map{
		"message": message,
		"error":   err.Error(),
	}
	var rlErr *services.RateLimitError
	if errors.As(err, &rlErr) {
		body["retry_after_ms"] = rlErr.Remaining.Milliseconds()
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(rlErr.Remaining.Seconds())))
	}
	return c.Status(status).JSON(body)
}

// parseBody decodes the request body into req and validates it.
// It writes the error response itself and reports whether the handler should continue.
func parseBody(c *fiber.Ctx, validate *validator.Validate, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		log.Printf("Error parsing request body: %v", err)
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"error":   err.Error(),
			})
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return true, nil
}
