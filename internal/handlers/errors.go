package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/example/storefront/internal/filestore"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
)

const internalErrorMessage = "internal server error"

// ErrorHandler renders every error as {"success": false, "message": ...}.
// Errors that are not *fiber.Error are logged and reported generically.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := internalErrorMessage

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		message = fe.Message
	} else {
		log.Error().
			Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("unhandled request error")
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// serviceError converts domain errors into HTTP errors. Anything it does not
// recognise is passed through for ErrorHandler to log.
func serviceError(err error) error {
	var verr *services.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &verr):
		return fiber.NewError(fiber.StatusBadRequest, verr.Message)
	case errors.Is(err, models.ErrInvalidOrderStatus):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrTransitionNotAllowed):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrPromoNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, filestore.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrPromoExists),
		errors.Is(err, services.ErrOrderConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, filestore.ErrInvalid):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return err
}
