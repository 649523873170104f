package models

// TurnType tags who produced a chat turn.
type TurnType string

const (
	TurnUser TurnType = "user"
	TurnBot  TurnType = "bot"
)

// ChatTurn is one entry in the displayed conversation.
type ChatTurn struct {
	Type    TurnType `json:"type"`
	Content string   `json:"content"`
}

// PromptRequest is the payload sent to the chat endpoint.
type PromptRequest struct {
	Message string `json:"message"`
	Context string `json:"context"`
}

// PromptResponse is returned by the chat endpoint for both success and failure.
type PromptResponse struct {
	Message string `json:"message"`
}
