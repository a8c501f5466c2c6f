package sessionauth

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope every endpoint answers with, success or not.
//
// Authorization outcomes are always sent with HTTP 200; clients branch on
// Error, not on the status code.
type Response[T any] struct {
	ExpiresAt int64     `json:"expires_at"`
	Token     string    `json:"token"`
	Error     *APIError `json:"error"`
	Data      T         `json:"data"`
}

// Success builds an envelope that echoes the caller's token and renewed
// expiry alongside data.
func Success[T any](id *Identity, data T) Response[T] {
	resp := Response[T]{Data: data}
	if id != nil {
		resp.Token = id.Token
		resp.ExpiresAt = id.ExpiresAt.Unix()
	}
	return resp
}

// Failure builds a rejection envelope: zero expiry, empty token, null data.
func Failure(err error) Response[any] {
	return Response[any]{Error: AsAPIError(err)}
}

// WriteResponse encodes resp as JSON with status 200.
func WriteResponse[T any](w http.ResponseWriter, resp Response[T]) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteError writes the rejection envelope for err.
func WriteError(w http.ResponseWriter, err error) {
	WriteResponse(w, Failure(err))
}
