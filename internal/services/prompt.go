package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"contextchat/internal/models"
)

// Limits bounds the size of incoming prompt fields, in runes.
// A non-positive value disables the check.
type Limits struct {
	MaxMessageLength int
	MaxContextLength int
}

// BuildChatPrompt embeds context and message verbatim into the answer template.
func BuildChatPrompt(context, message string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Context: %s\n", context)
	fmt.Fprintf(&b, "Question: %s\n", message)
	b.WriteString("Please provide a relevant answer based on the context provided.")
	return b.String()
}

func validatePromptRequest(req models.PromptRequest, limits Limits) error {
	if strings.TrimSpace(req.Message) == "" {
		return newChatError(ErrorInvalidInput, "message is required", nil)
	}
	if limits.MaxMessageLength > 0 && utf8.RuneCountInString(req.Message) > limits.MaxMessageLength {
		return newChatError(ErrorInvalidInput, "message is too long", nil)
	}
	if limits.MaxContextLength > 0 && utf8.RuneCountInString(req.Context) > limits.MaxContextLength {
		return newChatError(ErrorInvalidInput, "context is too long", nil)
	}
	return nil
}
