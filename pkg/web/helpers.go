package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// maxBodyBytes limits request bodies accepted by DecodeJSON.
const maxBodyBytes = 1 << 20

func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	// Handle nil payload
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	RespondJSON(w, logger, status, map[string]string{"error": message})
}

// DecodeJSON decodes the request body into dst and validates it when v is not nil.
// Unknown fields are refused. On failure a 400 response is written and false is returned.
func DecodeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, v *validator.Validate, dst any) bool {
	return decodeJSON(w, r, logger, v, dst, true)
}

// DecodeJSONLenient is DecodeJSON for bodies that may carry fields dst does not declare.
// They are ignored.
func DecodeJSONLenient(w http.ResponseWriter, r *http.Request, logger *slog.Logger, v *validator.Validate, dst any) bool {
	return decodeJSON(w, r, logger, v, dst, false)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, v *validator.Validate, dst any, strict bool) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if strict {
		decoder.DisallowUnknownFields()
	}
	if err := decoder.Decode(dst); err != nil {
		logger.Debug("Malformed request body", "error", err)
		RespondError(w, logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if v == nil {
		return true
	}
	if err := v.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			fe := validationErrors[0]
			RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid field %s: %s", fe.Field(), fe.Tag()))
			return false
		}
		RespondError(w, logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// PathParam returns the non-empty path value key. On failure a 400 response is written.
func PathParam(w http.ResponseWriter, r *http.Request, logger *slog.Logger, key string) (string, bool) {
	value := chi.URLParam(r, key)
	if value == "" {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s", key))
		return "", false
	}
	return value, true
}
