package board

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/inkwellhq/inkwell/auth"
)

// Post is the board post model. The author reference is immutable after
// creation. Deletion is a boolean tombstone: soft-deleted rows stay in
// storage, hidden from ordinary queries, until an admin purges them.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:pst"`

	ID        uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AuthorID  uuid.UUID  `bun:"author_id,notnull,type:uuid" json:"author_id"`
	Author    *auth.User `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	Title     string     `bun:"title,notnull" json:"title"`
	Content   string     `bun:"content,notnull" json:"content"`
	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
	Deleted   bool       `bun:"is_deleted,notnull,default:false" json:"is_deleted"`
}

// PostInput carries the writable fields for creation.
type PostInput struct {
	Title   string `json:"title" form:"title"`
	Content string `json:"content" form:"content"`
}

func (p PostInput) Validate() error {
	if err := errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&p,
			validation.Field(&p.Title, validation.Required, validation.Length(1, 200)),
			validation.Field(&p.Content, validation.Required),
		)
	}, "invalid post"); err != nil {
		return err.WithTextCode(TextCodeInvalidPost)
	}
	return nil
}

// PostUpdate carries a partial update; nil fields are left untouched.
type PostUpdate struct {
	Title   *string `json:"title" form:"title"`
	Content *string `json:"content" form:"content"`
}

func (p PostUpdate) Validate() error {
	if err := errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&p,
			validation.Field(&p.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
			validation.Field(&p.Content, validation.NilOrNotEmpty),
		)
	}, "invalid post"); err != nil {
		return err.WithTextCode(TextCodeInvalidPost)
	}
	return nil
}
