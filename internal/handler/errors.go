package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/pixelmint/pixelmint-backend/internal/models"
	"github.com/pixelmint/pixelmint-backend/internal/provider"
	"github.com/pixelmint/pixelmint-backend/internal/repository"
	"github.com/pixelmint/pixelmint-backend/internal/service"
)

// statusForError maps service sentinels onto HTTP statuses. Anything
// unrecognized is a 500 with a generic message so internals never leak.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrCaptchaFailed):
		return fiber.StatusUnauthorized, err.Error()

	case errors.Is(err, service.ErrEmailTaken):
		return fiber.StatusConflict, err.Error()

	case errors.Is(err, service.ErrPackageNotFound),
		errors.Is(err, service.ErrPaymentNotFound),
		errors.Is(err, service.ErrImageNotFound),
		errors.Is(err, service.ErrFileNotFound),
		errors.Is(err, service.ErrNotificationNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, provider.ErrUnknownProvider):
		return fiber.StatusNotFound, err.Error()

	case errors.Is(err, service.ErrPackageInactive),
		errors.Is(err, service.ErrPackageExpired),
		errors.Is(err, service.ErrPurchaseLimitReached),
		errors.Is(err, service.ErrPaymentNotSucceeded),
		errors.Is(err, service.ErrPaymentAlreadyProcessed),
		errors.Is(err, repository.ErrInsufficientTokens),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrDescriptionRequired),
		errors.Is(err, service.ErrInvalidPrompt),
		errors.Is(err, service.ErrUnsupportedFileType):
		return fiber.StatusBadRequest, err.Error()

	case errors.Is(err, service.ErrFileTooLarge):
		return fiber.StatusRequestEntityTooLarge, err.Error()

	case errors.Is(err, service.ErrPaymentsNotConfigured),
		errors.Is(err, service.ErrNoProvider),
		errors.Is(err, service.ErrGenerationBusy):
		return fiber.StatusServiceUnavailable, err.Error()

	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

func errorJSON(c *fiber.Ctx, err error) error {
	status, msg := statusForError(err)
	return c.Status(status).JSON(models.ErrorResponse(msg))
}

// currentUserID reads the id AuthMiddleware stored on the request context.
func currentUserID(c *fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals("userID").(uint)
	return userID, ok
}
