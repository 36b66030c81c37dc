package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body of every JSON response.
//
//	{"result": true, "data": ...}
//	{"result": false, "error": {"code": "...", "message": "..."}}
type Envelope struct {
	Result bool       `json:"result"`
	Data   any        `json:"data,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// ErrorBody is the machine-readable part of a failed response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteResult writes a successful envelope. data may be nil.
func WriteResult(w http.ResponseWriter, code int, data any) {
	WriteJSON(w, code, Envelope{Result: true, Data: data})
}

// WriteError writes a failed envelope.
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	WriteJSON(w, code, Envelope{Error: &ErrorBody{Code: errCode, Message: message}})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// This is commonly required for sensitive responses like tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
