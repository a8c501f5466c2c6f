// Package sessionauth authenticates HTTP requests against server-side
// sessions.
//
// A login opens a row in the session table and hands the client a signed
// token whose only payload is the session id. Every protected request
// presents that token; [Engine.Authorize] decodes it, loads the row, rejects
// it once expires_at has been reached and otherwise slides the expiry
// forward. Because the token carries nothing but an id, deleting the row
// revokes it immediately.
//
// # Architecture boundaries
//
// sessionauth is the public surface: [Engine], [Builder], [Config], [Identity]
// and the response envelope [Response]. Token signing lives in jwt/, storage
// in session/ and account/, password hashing in password/, the HTTP
// interceptor in middleware/ and the background sweeper in reaper/.
//
// # What this package must NOT do
//
//   - Put anything but the session id into a token.
//   - Answer an authorization outcome with a status other than 200; clients
//     read the error field of the envelope.
//   - Cache sessions in process. The table is the single source of truth.
//   - Retry a failed lookup or renewal. Failures reject the request.
package sessionauth
