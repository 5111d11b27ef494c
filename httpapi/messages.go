package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"bell-registry/errors"
)

var validate = validator.New()

type sendMessageRequest struct {
	ConversationID string `json:"conversationId" validate:"required"`
	Content        string `json:"content" validate:"required,max=4000"`
}

// sendMessage accepts { conversationId, content } and returns the created
// message, or a structured error from the permission checks.
func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(s.log, w, errors.ErrUnauthorized)
		return
	}

	var body sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := validate.Struct(body); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	message, err := s.messaging.SendMessage(r.Context(), identity.UserID,
		body.ConversationID, body.Content)
	if err != nil {
		writeError(s.log, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}
