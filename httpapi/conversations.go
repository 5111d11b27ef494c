package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bell-registry/domain"
	"bell-registry/errors"
)

type startConversationRequest struct {
	ProfessionalID string `json:"professionalId" validate:"required"`
}

func (s *Server) startConversation(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(s.log, w, errors.ErrUnauthorized)
		return
	}

	var body startConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := validate.Struct(body); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	conversation, err := s.messaging.StartConversation(r.Context(),
		identity.UserID, body.ProfessionalID)
	if err != nil {
		writeError(s.log, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conversation)
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(s.log, w, errors.ErrUnauthorized)
		return
	}

	conversations, err := s.messaging.ListConversations(identity.UserID)
	if err != nil {
		writeError(s.log, w, err)
		return
	}
	if conversations == nil {
		conversations = []domain.Conversation{}
	}
	writeJSON(w, http.StatusOK, conversations)
}

type messagesPage struct {
	Messages []domain.Message `json:"messages"`
	Cursor   *string          `json:"cursor,omitempty"`
}

func (s *Server) getMessages(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(s.log, w, errors.ErrUnauthorized)
		return
	}

	conversationID := chi.URLParam(r, "conversationID")
	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	messages, next, err := s.messaging.GetMessages(identity.UserID, conversationID, cursor)
	if err != nil {
		writeError(s.log, w, err)
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, messagesPage{Messages: messages, Cursor: next})
}

func (s *Server) endConversation(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(s.log, w, errors.ErrUnauthorized)
		return
	}

	conversationID := chi.URLParam(r, "conversationID")
	if err := s.messaging.EndConversation(r.Context(), identity.UserID, conversationID); err != nil {
		writeError(s.log, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
