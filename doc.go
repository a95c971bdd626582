// Package auth implements the authentication core of a blog/forum REST
// backend: password hashing, stateless bearer-token issuance and
// validation, principal resolution, and the subscription-consistency
// rules for topic memberships.
//
// Tokens:
//   - Tokens are compact HS256 JWTs whose subject is the immutable
//     numeric user id rendered as a decimal string. Renaming an email
//     or username never invalidates an outstanding token.
//   - There is no revocation state. A compromised token remains valid
//     until natural expiry; this is the trade-off for statelessness.
//
// Failure semantics:
//   - Unknown identifiers and wrong passwords surface as the same
//     ErrInvalidCredentials so callers cannot enumerate accounts.
//   - Invalid, expired, or malformed tokens are typed outcomes, never
//     panics; the request middleware converts them into an
//     unauthenticated pass-through rather than a 5xx response.
//
// Subscriptions:
//   - Membership of a (user, topic) pair is a set. Duplicate subscribe
//     and duplicate unsubscribe are reported as conflicts, enforced by
//     a composite unique constraint so the guarantee holds under
//     concurrent writers.
package auth
