package poolchat

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"poolchat/core"
	"poolchat/pkg/router"
)

type MessageHandler struct {
	manager *core.MessageManager
}

func NewMessageHandler(manager *core.MessageManager) *MessageHandler {
	return &MessageHandler{manager: manager}
}

func (h *MessageHandler) CreateMessageHandler(w http.ResponseWriter, r *http.Request) error {
	var input core.MessageCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return router.NewJsonError(http.StatusBadRequest, "invalid request body")
	}
	r.Body.Close()

	message, err := h.manager.CreateMessage(r.Context(), input)
	if err != nil {
		return err
	}

	return router.WriteJson(w, http.StatusCreated, message.Anonymized())
}

type EditMessagePayload struct {
	Text string `json:"text"`
}

func (h *MessageHandler) EditMessageHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := messageID(r)
	if err != nil {
		return err
	}

	var payload EditMessagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return router.NewJsonError(http.StatusBadRequest, "invalid request body")
	}
	r.Body.Close()

	message, err := h.manager.EditMessage(r.Context(), id, payload.Text)
	if err != nil {
		return err
	}

	return router.WriteJson(w, http.StatusOK, message.Anonymized())
}

type DeleteMessageResponse struct {
	Deleted int `json:"deleted"`
}

func (h *MessageHandler) DeleteMessageHandler(w http.ResponseWriter, r *http.Request) error {
	id, err := messageID(r)
	if err != nil {
		return err
	}

	if err := h.manager.DeleteMessage(r.Context(), id); err != nil {
		return err
	}

	return router.WriteJson(w, http.StatusOK, DeleteMessageResponse{Deleted: id})
}

// ListMessagesHandler returns every message, oldest first.
func (h *MessageHandler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) error {
	messages, err := h.manager.ListMessages(r.Context())
	if err != nil {
		return err
	}
	if messages == nil {
		messages = []core.Message{}
	}

	if err := json.NewEncoder(w).Encode(messages); err != nil {
		return fmt.Errorf("Encode: %w", err)
	}
	return nil
}

func messageID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, router.NewJsonError(http.StatusBadRequest, "invalid message id")
	}
	return id, nil
}
