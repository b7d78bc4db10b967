package auth

import "github.com/goliatone/go-errors"

const (
	TextCodeTokenExpired   = "auth_token_expired"
	TextCodeTokenMalformed = "auth_token_malformed"
	TextCodeInvalidCreds   = "auth_invalid_credentials"
	TextCodeIdentityGone   = "auth_identity_not_found"
	TextCodeNoSession      = "auth_session_not_found"
	TextCodeUsernameTaken  = "auth_username_taken"
	TextCodeEmptyPassword  = "auth_empty_password"
)

// ErrTokenExpired is returned when a token verifies but its expiry is in the past.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers bad signatures and structurally invalid tokens.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is returned for any failed credential check,
// including unknown usernames, so login errors do not leak which part failed.
var ErrMismatchedHashAndPassword = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is returned when a verified token names a user that no
// longer exists in the store.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryAuth).
	WithTextCode(TextCodeIdentityGone).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToFindSession is the error when the request carries no token.
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithTextCode(TextCodeNoSession).
	WithCode(errors.CodeUnauthorized)

// ErrUsernameTaken is returned when registration hits the username
// uniqueness constraint.
var ErrUsernameTaken = errors.New("username already exists", errors.CategoryConflict).
	WithTextCode(TextCodeUsernameTaken).
	WithCode(errors.CodeConflict)

// ErrNoEmptyPassword rejects empty passwords before they reach bcrypt.
var ErrNoEmptyPassword = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)
