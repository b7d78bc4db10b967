package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is bcrypt's effective input limit. Passwords are truncated
// to this many bytes on both the hash and the compare path, since newer
// x/crypto versions reject longer inputs outright.
const MaxPasswordBytes = 72

// PasswordHasher hashes and verifies passwords with an explicit cost, so the
// hashing scheme is construction-time configuration rather than global state.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher returns a hasher using the configured bcrypt cost.
// Costs outside bcrypt's supported range fall back to the default.
func NewPasswordHasher(cfg Config) *PasswordHasher {
	cost := cfg.GetBcryptCost()
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// HashPassword will generate a password hash with a per-call random salt.
func (h *PasswordHasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyPassword
	}

	out, err := bcrypt.GenerateFromPassword(truncatePassword(password), h.cost)
	return string(out), err
}

// ComparePasswordAndHash will validate the given cleartext password against
// the stored hash. A malformed hash yields ErrMismatchedHashAndPassword,
// never a panic.
func (h *PasswordHasher) ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), truncatePassword(password)); err != nil {
		return ErrMismatchedHashAndPassword
	}
	return nil
}

func truncatePassword(password string) []byte {
	b := []byte(password)
	if len(b) > MaxPasswordBytes {
		b = b[:MaxPasswordBytes]
	}
	return b
}

var _ PasswordAuthenticator = (*PasswordHasher)(nil)
