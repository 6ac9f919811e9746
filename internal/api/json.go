package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/starford/navkit/internal/apperr"
	"github.com/starford/navkit/internal/navservice"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error      string `json:"error" validate:"required"`
	Kind       string `json:"kind,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps navigation errors to HTTP statuses.
func writeError(w http.ResponseWriter, op string, err error) {
	var navErr *apperr.Error
	if !errors.As(err, &navErr) {
		switch {
		case errors.Is(err, navservice.ErrClosed),
			errors.Is(err, context.Canceled),
			errors.Is(err, context.DeadlineExceeded):
			writeJSON(w, http.StatusServiceUnavailable, errorBody("service unavailable"))
		default:
			slog.Error(op+" failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	status := http.StatusInternalServerError
	switch navErr.Kind {
	case apperr.KindRouteNotFound, apperr.KindTabNotFound, apperr.KindFactoryNotRegistered:
		status = http.StatusNotFound
	case apperr.KindInvalidRouteKey, apperr.KindInvalidParameters, apperr.KindInvalidNavigationType,
		apperr.KindParameterNotFound, apperr.KindParameterDecodingFailed:
		status = http.StatusBadRequest
	case apperr.KindStrategyNotSupported, apperr.KindBackendMismatch, apperr.KindAnimationNotSupported,
		apperr.KindStateRestorationFailed:
		status = http.StatusUnprocessableEntity
	case apperr.KindCircularNavigation, apperr.KindRouteAlreadyRegistered, apperr.KindNavigationFailed:
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		slog.Error(op+" failed", slog.String("error", err.Error()))
	}
	writeJSON(w, status, errResponse{
		Error:      navErr.Error(),
		Kind:       navErr.Kind.String(),
		Suggestion: navErr.RecoverySuggestion(),
	})
}
