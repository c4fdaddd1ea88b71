package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/projuktisheba/tutorhub-api/internal/models"
)

const maxBodyBytes = 1 << 20

// ReadJSON decodes a single JSON value from the request body into data
func ReadJSON(w http.ResponseWriter, r *http.Request, data any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

// WriteJSON writes data as JSON with the given status
func WriteJSON(w http.ResponseWriter, status int, data any, headers ...http.Header) error {
	out, err := json.Marshal(data)
	if err != nil {
		return err
	}
	for _, h := range headers {
		for k, v := range h {
			w.Header()[k] = v
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(out)
	return err
}

// BadRequest sends a 400 with the error message
func BadRequest(w http.ResponseWriter, err error) error {
	payload := models.Response{
		Error:   true,
		Status:  "error",
		Message: err.Error(),
	}
	return WriteJSON(w, http.StatusBadRequest, payload)
}

// NotFound sends a 404 with the error message
func NotFound(w http.ResponseWriter, err error) error {
	payload := models.Response{
		Error:   true,
		Status:  "error",
		Message: err.Error(),
	}
	return WriteJSON(w, http.StatusNotFound, payload)
}

// ErrorKey sends a keyed client error
func ErrorKey(w http.ResponseWriter, e *models.KeyError) error {
	payload := struct {
		Error   bool   `json:"error"`
		Status  string `json:"status"`
		Key     string `json:"key"`
		Message string `json:"message,omitempty"`
	}{
		Error:   true,
		Status:  "error",
		Key:     e.Key,
		Message: e.Message,
	}
	return WriteJSON(w, e.Status, payload)
}

// ServerError sends a 500 shaped as {message: {error}}
func ServerError(w http.ResponseWriter, err error) error {
	var payload struct {
		Error   bool `json:"error"`
		Message struct {
			Error string `json:"error"`
		} `json:"message"`
	}
	payload.Error = true
	payload.Message.Error = err.Error()
	return WriteJSON(w, http.StatusInternalServerError, payload)
}

// WriteError picks the response for err: keyed errors keep their status,
// validation errors and missing rows map to 400 and 404, anything else is a 500.
func WriteError(w http.ResponseWriter, err error) error {
	var keyErr *models.KeyError
	var valErr ValidationErrors
	switch {
	case errors.As(err, &keyErr):
		return ErrorKey(w, keyErr)
	case errors.As(err, &valErr):
		return WriteValidationError(w, valErr)
	case errors.Is(err, models.ErrNotFound), errors.Is(err, pgx.ErrNoRows):
		return NotFound(w, errors.New("not found"))
	default:
		return ServerError(w, err)
	}
}
