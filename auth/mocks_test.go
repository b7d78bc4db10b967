package auth_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/require"

	"github.com/inkwellhq/inkwell/auth"
)

// testConfig implements auth.Config for tests.
type testConfig struct {
	signingKey           string
	signingMethod        string
	tokenTTL             time.Duration
	sessionTTL           time.Duration
	cookieName           string
	rejectedRouteKey     string
	rejectedRouteDefault string
	bcryptCost           int
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey:           "test-signing-key",
		signingMethod:        "HS256",
		tokenTTL:             15 * time.Minute,
		sessionTTL:           30 * time.Minute,
		cookieName:           "access_token",
		rejectedRouteKey:     "rejected_route",
		rejectedRouteDefault: "/posts",
		bcryptCost:           4,
	}
}

func (c *testConfig) GetSigningKey() string           { return c.signingKey }
func (c *testConfig) GetSigningMethod() string        { return c.signingMethod }
func (c *testConfig) GetTokenTTL() time.Duration      { return c.tokenTTL }
func (c *testConfig) GetSessionTTL() time.Duration    { return c.sessionTTL }
func (c *testConfig) GetCookieName() string           { return c.cookieName }
func (c *testConfig) GetRejectedRouteKey() string     { return c.rejectedRouteKey }
func (c *testConfig) GetRejectedRouteDefault() string { return c.rejectedRouteDefault }
func (c *testConfig) GetBcryptCost() int              { return c.bcryptCost }

// memoryUserStore implements auth.UserStore over a map.
type memoryUserStore struct {
	users map[string]*auth.User
}

func newMemoryUserStore(users ...*auth.User) *memoryUserStore {
	s := &memoryUserStore{users: map[string]*auth.User{}}
	for _, u := range users {
		s.users[u.Username] = u
	}
	return s
}

func (s *memoryUserStore) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	if u, ok := s.users[username]; ok {
		return u, nil
	}
	return nil, errors.New("record not found", errors.CategoryNotFound).
		WithCode(errors.CodeNotFound)
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	res.Body.Close()

	return string(body)
}
