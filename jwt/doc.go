// Package jwt encodes and decodes the signed bearer tokens that reference
// server-side sessions.
//
// A token is an HMAC-signed JWT whose payload is exactly
//
//	{"session_id": "<uuid>"}
//
// It carries no expiry or principal data: liveness is decided by the session
// row it points at, never by the token itself.
//
// # What this package must NOT do
//
//   - Touch the session store or any other I/O.
//   - Log token contents or the secret.
package jwt
