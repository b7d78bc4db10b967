// Package auth provides the identity subsystem for the board: bcrypt
// credential hashing, JWT issuance and validation, and dual-mode identity
// resolution over HTTP.
//
// Identity resolution:
//   - API clients present an Authorization bearer header. A missing or
//     invalid token is a hard 401 with a WWW-Authenticate challenge.
//   - Page clients present the session cookie. Optional resolution returns
//     "no identity" for guests instead of failing; required resolution
//     converts "no identity" into a redirect to the login page. The two
//     surfaces deliberately diverge on failure and must not be unified.
//
// Tokens are stateless HS256 claims {sub, exp} signed with a process-wide
// key supplied at construction. There is no revocation list; logout only
// clears the client-held cookie. Every verified token is re-resolved against
// the users store, so a subject that no longer exists never yields a stale
// identity.
package auth
