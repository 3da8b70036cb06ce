package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/httputil"
	"adrenaline_backend/internal/service"
)

type MessageHandler struct {
	users    UserLookup
	messages *service.MessageService
	log      *logrus.Entry
}

func NewMessageHandler(users UserLookup, messages *service.MessageService, log *logrus.Entry) *MessageHandler {
	return &MessageHandler{users: users, messages: messages, log: log}
}

type sendMessageRequest struct {
	Body string `json:"body"`
}

// Send handles POST /messages/{id}
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	sender, ok := currentUser(w, r, h.users, h.log)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	msg, err := h.messages.Send(r.Context(), sender, chi.URLParam(r, "id"), req.Body)
	if err != nil {
		writeError(w, h.log, "SendMessage", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, msg)
}

// Conversation handles GET /messages/{id}
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.users, h.log)
	if !ok {
		return
	}

	msgs, err := h.messages.Conversation(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, "Conversation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}
