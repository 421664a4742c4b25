package fakeapi

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"vibeclient/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		err        error
		wantStatus int
		wantBody   models.ErrorResponse
	}{
		{
			"app error status wins",
			http.StatusBadRequest,
			models.NewConflictError("Username already taken"),
			http.StatusConflict,
			models.ErrorResponse{Message: "Username already taken", Code: models.CodeConflict},
		},
		{
			"app error without status",
			http.StatusBadRequest,
			models.NewValidationError("Content is required"),
			http.StatusBadRequest,
			models.ErrorResponse{Message: "Content is required", Code: models.CodeValidation},
		},
		{
			"plain error",
			http.StatusInternalServerError,
			errors.New("disk full"),
			http.StatusInternalServerError,
			models.ErrorResponse{Message: "disk full"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return respondWithError(c, tt.status, tt.err)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			got, err := models.DecodeJSON[models.ErrorResponse](body)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, got)
		})
	}
}
