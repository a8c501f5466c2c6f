// Package password hashes and verifies account passwords.
//
// # Output format
//
// New hashes are argon2id PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Hasher.Verify] also accepts bcrypt hashes ($2a$, $2b$, $2y$) so accounts
// created by earlier deployments keep working; [Hasher.NeedsUpgrade] reports
// them as due for rehashing.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Enforce password policy such as length limits. The engine does that.
//   - Log plaintext passwords.
package password
