// Package httpx porte les helpers de réponse JSON partagés par les handlers.
package httpx

import (
	"encoding/json"
	"log"
	"net/http"
)

type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// JSON écrit payload encodé en JSON avec le statut donné. Un payload nil
// produit le littéral null plutôt qu'un corps vide.
func JSON(w http.ResponseWriter, status int, payload any) {
	body := []byte("null")
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			log.Printf("[HTTP] encodage réponse: %v", err)
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
		body = encoded
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// JSONError écrit une erreur structurée {error, details}.
func JSONError(w http.ResponseWriter, status int, code string, details any) {
	JSON(w, status, errorBody{Error: code, Details: details})
}
