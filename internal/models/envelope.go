package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Envelope is the {success, data} wrapper used by every API response.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type rawEnvelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// DecodeEnvelope unwraps body into T. Shape problems become BAD_RESPONSE
// errors; an explicit success=false with a message becomes SERVER_ERROR.
func DecodeEnvelope[T any](body []byte) (T, error) {
	var zero T

	var raw rawEnvelope
	if err := json.Unmarshal(body, &raw); err != nil {
		return zero, NewFormatError(fmt.Errorf("decode envelope: %w", err))
	}
	if raw.Success == nil {
		return zero, NewFormatError(errors.New("envelope has no success field"))
	}
	if !*raw.Success {
		if msg := (ErrorResponse{Message: raw.Message, Error: raw.Error}).Text(); msg != "" {
			return zero, &AppError{Code: CodeServerError, Message: msg}
		}
		return zero, NewFormatError(errors.New("envelope reported failure"))
	}
	data := bytes.TrimSpace(raw.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return zero, NewFormatError(errors.New("envelope has no data"))
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, NewFormatError(fmt.Errorf("decode data: %w", err))
	}
	if err := Validate(out); err != nil {
		return zero, NewFormatError(err)
	}
	return out, nil
}

// DecodeJSON decodes a bare (non-enveloped) body and validates it.
func DecodeJSON[T any](body []byte) (T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return out, NewFormatError(fmt.Errorf("decode body: %w", err))
	}
	if err := Validate(out); err != nil {
		return out, NewFormatError(err)
	}
	return out, nil
}

// Validate runs struct validation on v, or on each element when v is a slice
// of structs. Other kinds are accepted as is.
func Validate(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		return validate.Struct(rv.Interface())
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i)
			for elem.Kind() == reflect.Pointer && !elem.IsNil() {
				elem = elem.Elem()
			}
			if elem.Kind() != reflect.Struct {
				continue
			}
			if err := validate.Struct(elem.Interface()); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return nil
}
