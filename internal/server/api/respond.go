// Package api provides the HTTP API handlers of the chord tutor.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/fretwise/internal/chord"
	"github.com/ayusman/fretwise/internal/fretboard"
	"github.com/ayusman/fretwise/internal/session"
	"github.com/ayusman/fretwise/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var validate = validator.New(validator.WithRequiredStructEnabled())

// maxBodyBytes bounds request bodies; a two-hand evaluate frame is ~4 KiB.
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.WithError(err).Warn("failed to write response")
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string, details ...string) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}

// writeDomainError maps sentinel errors onto status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chord.ErrUnknownChord), errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Chord not found", err.Error())
	case errors.Is(err, chord.ErrDuplicateChord), errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "Chord already exists", err.Error())
	case errors.Is(err, session.ErrBuiltinChord):
		writeError(w, http.StatusForbidden, "Built-in chords cannot be removed")
	case errors.Is(err, chord.ErrInvalidShape), errors.Is(err, fretboard.ErrInvalidRegion):
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
	default:
		log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}

// decodeBody decodes and validates a JSON request body into dst. On failure
// it writes a 400 response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return false
	}

	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", validationDetails(err)...)
		return false
	}

	return true
}

func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), strings.SplitN(fe.Namespace(), ".", 2)[0]+".")
		if fe.Param() != "" {
			details = append(details, fmt.Sprintf("%s: %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			details = append(details, fmt.Sprintf("%s: %s", field, fe.Tag()))
		}
	}
	return details
}
