package common

import (
	"encoding/json"
	"log"
	"net/http"

	"maggram/internal/apperr"
)

type errorBody struct {
	Error string      `json:"error"`
	Code  apperr.Code `json:"code"`
}

// WriteJSON renders v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.Printf("response encode failed: %v", err)
		}
	}
}

// WriteError renders an error as a JSON body with a short message and
// an appropriate status class. Internal causes are logged, never leaked.
func WriteError(w http.ResponseWriter, err error) {
	code := apperr.CodeOf(err)
	status := apperr.HTTPStatus(code)

	msg := err.Error()
	if status >= http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		msg = "server error"
		code = apperr.CodeInternal
	}

	WriteJSON(w, status, errorBody{Error: msg, Code: code})
}
