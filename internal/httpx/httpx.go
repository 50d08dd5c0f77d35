// Package httpx carries the JSON response helpers shared by every
// handler package.
package httpx

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/tlemoine/blog-platform/backend/internal/apperr"
)

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Message writes the conventional `{"message": ...}` body.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}

// Error translates err through the taxonomy into a status code and a
// client-safe message. Internal causes are logged, never returned.
func Error(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
	}
	Message(w, status, apperr.Message(err))
}
