package actions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"vibeclient/internal/gateway"
	"vibeclient/internal/models"
	"vibeclient/internal/observability"
	"vibeclient/internal/toast"
)

// resolve turns any failure into an AppError whose message is, in order of
// preference, the server's own text, a connectivity message, or fallback.
func resolve(err error, fallback string) *models.AppError {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, gateway.ErrResponseTooLarge) {
		return &models.AppError{Code: models.CodeBadResponse, Message: models.MsgTooLarge, Err: err}
	}

	var respErr *gateway.ResponseError
	if errors.As(err, &respErr) {
		msg := respErr.Message
		if msg == "" {
			msg = fallback
		}
		return &models.AppError{
			Code:    codeForStatus(respErr.StatusCode),
			Message: msg,
			Status:  respErr.StatusCode,
			Err:     err,
		}
	}

	var transportErr *gateway.TransportError
	if errors.As(err, &transportErr) {
		if transportErr.Timeout {
			return &models.AppError{Code: models.CodeTransportTimeout, Message: models.MsgTimeout, Err: err}
		}
		return &models.AppError{Code: models.CodeTransportUnreachable, Message: models.MsgUnreachable, Err: err}
	}

	return &models.AppError{Code: models.CodeServerError, Message: fallback, Err: err}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.CodeUnauthorized
	case http.StatusNotFound:
		return models.CodeNotFound
	case http.StatusConflict:
		return models.CodeConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return models.CodeValidation
	default:
		return models.CodeServerError
	}
}

// reporter is shared by the hooks to log outcomes and forward them to the
// feedback channel.
type reporter struct {
	notify Notifier
	log    *observability.ComponentLogger
}

func newReporter(component string, notify Notifier) reporter {
	if notify == nil {
		notify = discard{}
	}
	return reporter{notify: notify, log: observability.NewComponentLogger(component)}
}

func (r reporter) fail(ctx context.Context, op string, err error, fallback string) *models.AppError {
	appErr := resolve(err, fallback)
	r.log.Warn(ctx, "action failed",
		slog.String("action", op),
		slog.String("code", appErr.Code),
		slog.String("error", err.Error()),
	)
	r.notify.Show(appErr.Message, toast.Error)
	return appErr
}

func (r reporter) success(message string) {
	r.notify.Show(message, toast.Success)
}
