package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"bell-registry/errors"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain sentinels to HTTP statuses. Anything unmapped is a
// server-side failure: logged with detail, surfaced as a generic 500 so
// storage internals never leak to callers.
func writeError(log *slog.Logger, w http.ResponseWriter, err error) {
	switch {
	case stderrors.Is(err, errors.ErrUnauthorized),
		stderrors.Is(err, errors.ErrInvalidToken),
		stderrors.Is(err, errors.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
	case stderrors.Is(err, errors.ErrConversationNotFound),
		stderrors.Is(err, errors.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case stderrors.Is(err, errors.ErrConversationEnded),
		stderrors.Is(err, errors.ErrAwaitingClientMessage),
		stderrors.Is(err, errors.ErrProfessionalCannotInitiate):
		writeJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case stderrors.Is(err, errors.ErrInvalidPassword),
		stderrors.Is(err, errors.ErrInvalidRole):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		log.Error("Request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: message})
}
