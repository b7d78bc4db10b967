package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellhq/inkwell/auth"
)

func newAPIApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := newTestConfig()
	db := setupUsersDB(t)

	users := auth.NewUsersRepository(db)
	hasher := auth.NewPasswordHasher(cfg)
	provider := auth.NewUserProvider(users, hasher)
	auther := auth.NewAuthenticator(provider, cfg)
	web := auth.NewWebAuth(auther, users, cfg)

	controller := auth.NewAuthController(func(c *auth.AuthController) *auth.AuthController {
		c.Users = users
		c.Hasher = hasher
		c.Auther = auther
		c.Web = web
		return c
	})

	app := fiber.New()
	auth.RegisterAuthRoutes(app, controller)

	return app
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func decodeJSON(t *testing.T, res *http.Response) map[string]any {
	t.Helper()

	out := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, res)), &out))
	return out
}

func TestAPIRegister(t *testing.T) {
	app := newAPIApp(t)

	t.Run("creates an account", func(t *testing.T) {
		res, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/register",
			`{"username":"alice","password":"wonderland"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, res.StatusCode)

		body := decodeJSON(t, res)
		assert.Equal(t, "alice", body["username"])
		assert.NotContains(t, body, "password_hash")
	})

	t.Run("duplicate username is a conflict", func(t *testing.T) {
		res, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/register",
			`{"username":"alice","password":"different"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, res.StatusCode)
	})

	t.Run("short username is rejected", func(t *testing.T) {
		res, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/register",
			`{"username":"al","password":"wonderland"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

func TestAPILoginAndMe(t *testing.T) {
	app := newAPIApp(t)

	res, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/register",
		`{"username":"alice","password":"wonderland"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	t.Run("valid credentials return a bearer token", func(t *testing.T) {
		res, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/login",
			`{"username":"alice","password":"wonderland"}`))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.StatusCode)

		body := decodeJSON(t, res)
		assert.Equal(t, "bearer", body["token_type"])

		token, _ := body["access_token"].(string)
		require.NotEmpty(t, token)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)

		me, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, me.StatusCode)
		assert.Equal(t, "alice", decodeJSON(t, me)["username"])
	})

	t.Run("bad credentials get a 401 and a challenge", func(t *testing.T) {
		res, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/login",
			`{"username":"alice","password":"nope"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
		assert.Equal(t, "Bearer", res.Header.Get(fiber.HeaderWWWAuthenticate))
	})

	t.Run("me without a token is a 401", func(t *testing.T) {
		res, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	})
}
