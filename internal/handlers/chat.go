package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"contextchat/internal/middleware"
	"contextchat/internal/models"
	"contextchat/internal/services"
)

const (
	maxChatBodyBytes = 1 << 20

	genericChatError = "Error processing your request"
)

type chatService interface {
	Answer(ctx context.Context, req models.PromptRequest) (string, error)
}

type ChatHandler struct {
	chatService chatService
}

func NewChatHandler(chatService chatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// chatPayload uses pointers so that absent fields can be told apart from
// empty strings.
type chatPayload struct {
	Message *string `json:"message"`
	Context *string `json:"context"`
}

// Chat handles POST /api/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	req, err := decodePromptRequest(http.MaxBytesReader(w, r.Body, maxChatBodyBytes))
	if err != nil {
		log.Printf("chat: request_id=%s kind=%s err=%v", requestID, services.KindOf(err), err)
		writeMessage(w, http.StatusBadRequest, "Invalid request: "+services.ReasonOf(err))
		return
	}

	reply, err := h.chatService.Answer(r.Context(), req)
	if err != nil {
		kind := services.KindOf(err)
		log.Printf("chat: request_id=%s kind=%s err=%v", requestID, kind, err)
		if kind == services.ErrorInvalidInput {
			writeMessage(w, http.StatusBadRequest, "Invalid request: "+services.ReasonOf(err))
			return
		}
		writeMessage(w, http.StatusInternalServerError, genericChatError)
		return
	}

	writeMessage(w, http.StatusOK, reply)
}

func decodePromptRequest(body io.Reader) (models.PromptRequest, error) {
	var payload chatPayload
	dec := json.NewDecoder(body)
	if err := dec.Decode(&payload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return models.PromptRequest{}, services.InvalidInput("body is too large", err)
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return models.PromptRequest{}, services.InvalidInput(fmt.Sprintf("%s must be a string", typeErr.Field), err)
		}
		return models.PromptRequest{}, services.InvalidInput("malformed JSON body", err)
	}
	// exactly one JSON value; anything after it is rejected
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return models.PromptRequest{}, services.InvalidInput("malformed JSON body", err)
	}

	if payload.Message == nil {
		return models.PromptRequest{}, services.InvalidInput("message is required", nil)
	}
	if payload.Context == nil {
		return models.PromptRequest{}, services.InvalidInput("context is required", nil)
	}

	return models.PromptRequest{Message: *payload.Message, Context: *payload.Context}, nil
}
