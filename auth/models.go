package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model. The username is unique and immutable after
// registration; the password hash never leaves the server.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username     string     `bun:"username,notnull,unique" json:"username"`
	PasswordHash string     `bun:"password_hash,notnull" json:"-"`
	IsAdmin      bool       `bun:"is_admin,notnull,default:false" json:"is_admin"`
	CreatedAt    *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Identity adapts the record to the Identity interface consumed by the
// authenticator and the token layer.
func (u *User) Identity() Identity {
	return authIdentity{
		id:       u.ID.String(),
		username: u.Username,
		admin:    u.IsAdmin,
	}
}

type authIdentity struct {
	id       string
	username string
	admin    bool
}

func (a authIdentity) ID() string       { return a.id }
func (a authIdentity) Username() string { return a.username }
func (a authIdentity) IsAdmin() bool    { return a.admin }
