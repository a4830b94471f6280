package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/bookora/libs/httpx"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/booking"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeBookingError maps the booking error taxonomy onto HTTP. Unclassified errors are logged
// and hidden behind a generic 500.
func writeBookingError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var be *booking.Error
	if !errors.As(err, &be) {
		logger.ErrorContext(r.Context(), "booking request failed",
			"request_id", httpx.RequestIDFromContext(r.Context()), "err", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	message := be.Message
	if message == "" {
		message = string(be.Kind)
	}

	status := http.StatusInternalServerError
	switch be.Kind {
	case booking.KindInvalidInput:
		status = http.StatusBadRequest
	case booking.KindConflict:
		status = http.StatusConflict
	case booking.KindNotFound:
		status = http.StatusNotFound
	case booking.KindForbidden:
		status = http.StatusForbidden
	case booking.KindUnavailable:
		logger.WarnContext(r.Context(), "retryable booking failure",
			"request_id", httpx.RequestIDFromContext(r.Context()), "err", err)
		w.Header().Set("Retry-After", "1")
		status = http.StatusServiceUnavailable
	}
	writeError(w, status, string(be.Kind), message)
}
