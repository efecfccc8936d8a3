package httpauth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/cookieauth"
)

// ErrorBody is the JSON shape of every failure response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err onto its status and stable code. Causes are never
// written; errors that are not *cookieauth.Error become INTERNAL_ERROR.
func WriteError(w http.ResponseWriter, err error) {
	var ae *cookieauth.Error
	if !errors.As(err, &ae) {
		ae = &cookieauth.Error{Kind: cookieauth.KindInternal}
	}
	WriteJSON(w, ae.Status(), ErrorBody{Code: ae.Code(), Message: ae.Message()})
}

// WriteCode writes an error body for codes outside the engine taxonomy.
func WriteCode(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorBody{Code: code, Message: message})
}
