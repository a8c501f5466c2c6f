// Package middleware puts the session check in front of HTTP handlers.
//
// [Guard] reads the Authorization header, hands the bearer token to an
// [Authorizer] (normally *sessionauth.Engine) and, on success, stores the
// resulting identity in the request context. Rejections are written as the
// standard JSON envelope with status 200.
//
// # What this package must NOT do
//
//   - Decode tokens or query the session table itself.
//   - Log the token.
//   - Touch the database for a request whose header is unusable.
package middleware
