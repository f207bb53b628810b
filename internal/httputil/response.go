package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the wire shape of every error response. Details, missing
// fields, and the type marker are optional refinements the frontend keys
// its messaging off.
type ErrorBody struct {
	Error         string   `json:"error"`
	Details       string   `json:"details,omitempty"`
	MissingFields []string `json:"missingFields,omitempty"`
	Type          string   `json:"type,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorBody{Error: message})
}

// WriteValidationError reports a rejected request along with the fields the
// client left out.
func WriteValidationError(w http.ResponseWriter, message string, missingFields []string) {
	WriteJSON(w, http.StatusBadRequest, ErrorBody{Error: message, MissingFields: missingFields})
}

// WriteTypedError attaches a machine-readable type marker, e.g.
// USER_NOT_FOUND, so the client can style the failure per field.
func WriteTypedError(w http.ResponseWriter, status int, message, errType string) {
	WriteJSON(w, status, ErrorBody{Error: message, Type: errType})
}
