package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"adrenaline_backend/internal/model"
)

// Error codes returned in the error envelope.
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeTokenExpired     = "TOKEN_EXPIRED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodePurgeIncomplete  = "PURGE_INCOMPLETE"
	ErrCodeInvalidFavorites = "INVALID_FAVORITES_ORDER"
)

// MaxJSONBody caps request bodies read by DecodeJSON.
const MaxJSONBody = 1 << 20

// ErrorResponse is the error envelope: {"error": {"code": "...", "message": "..."}}
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		// headers are already sent, nothing useful to do on failure
		_ = json.NewEncoder(w).Encode(data)
	}
}

func WriteError(w http.ResponseWriter, status int, code string, message string) {
	WriteJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func WriteUnauthorizedWithCode(w http.ResponseWriter, code string, message string) {
	WriteError(w, http.StatusUnauthorized, code, message)
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// WriteDomainError maps domain sentinel errors onto status codes. Unknown
// errors become 500 with a generic message.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		WriteNotFound(w, "Resource not found")
	case errors.Is(err, model.ErrNotPostOwner), errors.Is(err, model.ErrNotCoach):
		WriteForbidden(w, err.Error())
	case errors.Is(err, model.ErrInvalidFavoritesOrder):
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidFavorites, err.Error())
	case errors.Is(err, model.ErrFavoriteIndexMissing):
		WriteError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, model.ErrFileTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, err.Error())
	case errors.Is(err, model.ErrCannotFollowSelf),
		errors.Is(err, model.ErrUnknownField),
		errors.Is(err, model.ErrInvalidFieldValue),
		errors.Is(err, model.ErrCaptionTooLong),
		errors.Is(err, model.ErrTooManyMedia),
		errors.Is(err, model.ErrEmptyMessage),
		errors.Is(err, model.ErrMessageTooLong),
		errors.Is(err, model.ErrInvalidImage):
		WriteBadRequest(w, err.Error())
	default:
		WriteInternalError(w, "Internal server error")
	}
}

// DecodeJSON reads a bounded JSON body into dst and rejects unknown fields.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
