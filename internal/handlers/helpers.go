package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"qaforum/internal/models"
	"qaforum/internal/qa"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string  `json:"error"`
	Code  qa.Code `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
}

// statusFor maps engine error codes to HTTP statuses.
func statusFor(code qa.Code) int {
	switch code {
	case qa.CodeNotFound:
		return http.StatusNotFound
	case qa.CodeUnauthorized:
		return http.StatusForbidden
	case qa.CodeInvalidState:
		return http.StatusConflict
	case qa.CodeInvalid:
		return http.StatusBadRequest
	case qa.CodeQuotaExceeded:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// handleError writes err as JSON. Unclassified errors are logged and hidden.
func handleError(w http.ResponseWriter, log *slog.Logger, r *http.Request, err error) {
	var e *qa.Error
	if errors.As(err, &e) {
		writeJSON(w, statusFor(e.Code), errorResponse{Error: e.Error(), Code: e.Code})
		return
	}
	log.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
	writeMessage(w, http.StatusInternalServerError, "internal server error")
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// queryID parses a required positive int64 query parameter.
func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return n
}

func pageFromQuery(r *http.Request) models.Page {
	return models.Page{Number: queryInt(r, "page", 1), Size: queryInt(r, "page_size", models.DefaultPageSize)}.Normalize()
}
