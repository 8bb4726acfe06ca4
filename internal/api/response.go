package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/werdnum/telegram-bot-api-mock/internal/logger"
	"github.com/werdnum/telegram-bot-api-mock/internal/state"
)

// apiError is a business failure. Like the real Bot API it travels in an
// ok=false envelope with HTTP 200 and error_code 400.
type apiError struct {
	description string
}

func (e *apiError) Error() string {
	return e.description
}

func badRequest(format string, args ...interface{}) error {
	return &apiError{description: "Bad Request: " + fmt.Sprintf(format, args...)}
}

// requestError means the request itself could not be decoded or validated
type requestError struct {
	status      int
	description string
}

func (e *requestError) Error() string {
	return e.description
}

func invalidJSON(err error) error {
	return &requestError{
		status:      http.StatusBadRequest,
		description: "Bad Request: invalid JSON - " + err.Error(),
	}
}

func invalidField(field, msg string) error {
	return &requestError{
		status:      http.StatusBadRequest,
		description: fmt.Sprintf("Bad Request: validation error for '%s' - %s", field, msg),
	}
}

// fromValidation reports the first failing field, ordered by name
func fromValidation(errs validation.Errors) error {
	fields := make([]string, 0, len(errs))
	for field, err := range errs {
		if err != nil {
			fields = append(fields, field)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	sort.Strings(fields)
	return invalidField(fields[0], errs[fields[0]].Error())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithField("error", err).Warn("response-encode-failed")
	}
}

// writeResult wraps result in an ok=true envelope
func writeResult(w http.ResponseWriter, result interface{}) {
	raw, err := json.Marshal(result)
	if err != nil {
		writeError(w, fmt.Errorf("failed to encode result: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, tgbotapi.APIResponse{Ok: true, Result: raw})
}

// writeError maps err onto the envelope and HTTP status of its kind.
// A nil error is reported as a generic bad request.
func writeError(w http.ResponseWriter, err error) {
	if err == nil {
		err = &requestError{status: http.StatusBadRequest, description: "Bad Request"}
	}

	var (
		apiErr   *apiError
		reqErr   *requestError
		tokenErr *state.TokenError
		valErrs  validation.Errors
	)

	switch {
	case errors.As(err, &tokenErr):
		writeJSON(w, http.StatusUnauthorized, tgbotapi.APIResponse{
			ErrorCode:   http.StatusUnauthorized,
			Description: "Unauthorized: " + tokenErr.Error(),
		})
	case errors.As(err, &apiErr):
		writeJSON(w, http.StatusOK, tgbotapi.APIResponse{
			ErrorCode:   http.StatusBadRequest,
			Description: apiErr.description,
		})
	case errors.As(err, &reqErr):
		writeJSON(w, reqErr.status, tgbotapi.APIResponse{
			ErrorCode:   reqErr.status,
			Description: reqErr.description,
		})
	case errors.As(err, &valErrs):
		writeError(w, fromValidation(valErrs))
	default:
		logger.WithField("error", err).Error("request-failed")
		writeJSON(w, http.StatusInternalServerError, tgbotapi.APIResponse{
			ErrorCode:   http.StatusInternalServerError,
			Description: "Internal Server Error",
		})
	}
}

// writeBlob serves stored bytes with their mime type
func writeBlob(w http.ResponseWriter, blob state.Blob, attachment bool) {
	w.Header().Set("Content-Type", blob.MimeType)
	if attachment {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", blob.Filename))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Data)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}
