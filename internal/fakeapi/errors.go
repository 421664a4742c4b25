package fakeapi

import (
	"errors"

	"vibeclient/internal/models"

	"github.com/gofiber/fiber/v2"
)

// respondWithError writes the standardized error body. An AppError carrying
// its own status overrides status.
func respondWithError(c *fiber.Ctx, status int, err error) error {
	response := models.ErrorResponse{Success: false}

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		response.Message = appErr.Message
		response.Code = appErr.Code
		if appErr.Status != 0 {
			status = appErr.Status
		}
	} else {
		response.Message = err.Error()
	}

	return c.Status(status).JSON(response)
}
