package board

import "github.com/inkwellhq/inkwell/auth"

// Operation names a policy-gated action on a post.
type Operation string

const (
	OpRead       Operation = "read"
	OpUpdate     Operation = "update"
	OpSoftDelete Operation = "soft-delete"
	OpHardDelete Operation = "hard-delete"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Authorize decides whether the acting user may perform an operation on the
// target post. It is a pure function: the resolver must already have produced
// a concrete user, and a nil actor is always denied.
//
//   - read: denied only when the post is soft-deleted and the actor is not
//     an admin.
//   - update, soft-delete: owner or admin.
//   - hard-delete: admin only, no author exception.
//
// Listing visibility is not decided here; it is a query-time filter
// (IncludeDeletedFor) applied by the repository.
func Authorize(actor *auth.User, post *Post, op Operation) Decision {
	if actor == nil || post == nil {
		return deny("unauthenticated actor")
	}

	if actor.IsAdmin {
		return allow()
	}

	switch op {
	case OpRead:
		if post.Deleted {
			return deny("post is deleted")
		}
		return allow()

	case OpUpdate, OpSoftDelete:
		if post.AuthorID == actor.ID {
			return allow()
		}
		return deny("not the post author")

	case OpHardDelete:
		return deny("admin privileges required")
	}

	return deny("unknown operation")
}

// IncludeDeletedFor is the listing/lookup filter: admins see tombstoned
// posts, everyone else only sees active ones.
func IncludeDeletedFor(actor *auth.User) bool {
	return actor != nil && actor.IsAdmin
}
