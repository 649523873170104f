package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"contextchat/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

// writeMessage writes the {"message": ...} envelope used for success and
// failure alike.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.PromptResponse{Message: message})
}
