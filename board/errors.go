package board

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodePostNotFound = "post_not_found"
	TextCodeForbidden    = "post_forbidden"
	TextCodeInvalidPost  = "post_invalid"
)

var ErrPostNotFound = errors.New(
	"post not found",
	errors.CategoryNotFound,
).WithCode(errors.CodeNotFound).
	WithTextCode(TextCodePostNotFound)

// ForbiddenError wraps a policy denial. Callers that got this far hold a
// valid identity, so the status is 403, never 401.
func ForbiddenError(d Decision) *errors.Error {
	return errors.New(
		"you do not have permission to perform this action",
		errors.CategoryAuthz,
	).WithCode(errors.CodeForbidden).
		WithTextCode(TextCodeForbidden).
		WithMetadata(map[string]any{
			"reason": d.Reason,
		})
}
