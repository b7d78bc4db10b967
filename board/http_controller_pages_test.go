package board_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/inkwellhq/inkwell/auth"
	"github.com/inkwellhq/inkwell/board"
	"github.com/inkwellhq/inkwell/config"
)

// stubViews satisfies fiber's Views interface by writing the template name as
// the response body, so page handlers can be asserted without real templates.
type stubViews struct{}

func (stubViews) Load() error { return nil }

func (stubViews) Render(w io.Writer, name string, bind interface{}, layouts ...string) error {
	_, err := io.WriteString(w, name)
	return err
}

type pageFixture struct {
	app    *fiber.App
	db     *bun.DB
	svc    *board.Service
	cfg    *config.Config
	tokens auth.TokenService
}

func newPageFixture(t *testing.T) *pageFixture {
	t.Helper()

	db := setupDB(t)
	svc := newService(t, db)

	cfg := &config.Config{
		SigningKey:           "test-signing-key",
		SigningMethod:        "HS256",
		TokenTTL:             15 * time.Minute,
		SessionTTL:           30 * time.Minute,
		CookieName:           "access_token",
		RejectedRouteKey:     "rejected_route",
		RejectedRouteDefault: "/posts",
		BcryptCost:           4,
	}

	users := auth.NewUsersRepository(db)
	hasher := auth.NewPasswordHasher(cfg)
	provider := auth.NewUserProvider(users, hasher)
	auther := auth.NewAuthenticator(provider, cfg)
	web := auth.NewWebAuth(auther, users, cfg)

	controller := board.NewPostsController(
		board.WithService(svc),
		board.WithWebAuth(web),
	)

	app := fiber.New(fiber.Config{Views: stubViews{}})
	board.RegisterBoardRoutes(app, controller)

	return &pageFixture{
		app:    app,
		db:     db,
		svc:    svc,
		cfg:    cfg,
		tokens: auther.TokenService(),
	}
}

// sessionFor mints a session cookie for a seeded user directly from the token
// service; seeded rows carry placeholder password hashes.
func (f *pageFixture) sessionFor(t *testing.T, user *auth.User) string {
	t.Helper()

	token, err := f.tokens.Generate(user.Username, 0)
	require.NoError(t, err)
	return f.cfg.GetCookieName() + "=Bearer " + token
}

func (f *pageFixture) get(t *testing.T, target, cookie string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if cookie != "" {
		req.Header.Set(fiber.HeaderCookie, cookie)
	}

	res, err := f.app.Test(req)
	require.NoError(t, err)
	return res
}

func (f *pageFixture) postForm(t *testing.T, target, cookie string, form url.Values) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	if cookie != "" {
		req.Header.Set(fiber.HeaderCookie, cookie)
	}

	res, err := f.app.Test(req)
	require.NoError(t, err)
	return res
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	res.Body.Close()

	return string(body)
}

func TestBoardPages(t *testing.T) {
	fixture := newPageFixture(t)
	ctx := context.Background()

	alice := seedUser(t, fixture.db, "alice", false)
	bob := seedUser(t, fixture.db, "bob", false)

	aliceCookie := fixture.sessionFor(t, alice)
	bobCookie := fixture.sessionFor(t, bob)

	t.Run("home renders for guests", func(t *testing.T) {
		res := fixture.get(t, "/", "")
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "home", readBody(t, res))
	})

	t.Run("guest listing redirects to login", func(t *testing.T) {
		res := fixture.get(t, "/posts", "")
		assert.Equal(t, http.StatusFound, res.StatusCode)
		assert.Equal(t, "/login", res.Header.Get(fiber.HeaderLocation))
	})

	t.Run("listing renders for members", func(t *testing.T) {
		res := fixture.get(t, "/posts", aliceCookie)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "posts/list", readBody(t, res))
	})

	t.Run("new post form renders", func(t *testing.T) {
		res := fixture.get(t, "/posts/new", aliceCookie)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "posts/form", readBody(t, res))
	})

	t.Run("create redirects to the detail page", func(t *testing.T) {
		res := fixture.postForm(t, "/posts/new", aliceCookie, url.Values{
			"title":   {"hello"},
			"content": {"first post"},
		})
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)

		location := res.Header.Get(fiber.HeaderLocation)
		require.True(t, strings.HasPrefix(location, "/posts/"))

		detail := fixture.get(t, location, aliceCookie)
		assert.Equal(t, http.StatusOK, detail.StatusCode)
		assert.Equal(t, "posts/detail", readBody(t, detail))
	})

	t.Run("blank title re-renders the form", func(t *testing.T) {
		res := fixture.postForm(t, "/posts/new", aliceCookie, url.Values{
			"title":   {""},
			"content": {"no title"},
		})
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "posts/form", readBody(t, res))
	})

	t.Run("edit form renders for the owner", func(t *testing.T) {
		post := seedPost(t, fixture.svc, alice, "editable")

		res := fixture.get(t, "/posts/"+post.ID.String()+"/edit", aliceCookie)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "posts/form", readBody(t, res))
	})

	t.Run("edit persists and redirects to the detail page", func(t *testing.T) {
		post := seedPost(t, fixture.svc, alice, "before")

		res := fixture.postForm(t, "/posts/"+post.ID.String()+"/edit", aliceCookie, url.Values{
			"title":   {"after"},
			"content": {"revised"},
		})
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, "/posts/"+post.ID.String(), res.Header.Get(fiber.HeaderLocation))

		updated, err := fixture.svc.Get(ctx, alice, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "after", updated.Title)
		assert.Equal(t, "revised", updated.Content)
	})

	t.Run("editing someone else's post renders the error page", func(t *testing.T) {
		post := seedPost(t, fixture.svc, alice, "not yours")

		res := fixture.postForm(t, "/posts/"+post.ID.String()+"/edit", bobCookie, url.Values{
			"title":   {"hijack"},
			"content": {"hijack"},
		})
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
		assert.Equal(t, "errors/500", readBody(t, res))
	})

	t.Run("delete tombstones the post and redirects to the listing", func(t *testing.T) {
		post := seedPost(t, fixture.svc, alice, "doomed")

		res := fixture.postForm(t, "/posts/"+post.ID.String()+"/delete", aliceCookie, url.Values{})
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, "/posts", res.Header.Get(fiber.HeaderLocation))

		gone := fixture.get(t, "/posts/"+post.ID.String(), aliceCookie)
		assert.Equal(t, http.StatusNotFound, gone.StatusCode)
		assert.Equal(t, "errors/404", readBody(t, gone))
	})

	t.Run("malformed post id renders not found", func(t *testing.T) {
		res := fixture.get(t, "/posts/not-a-uuid", aliceCookie)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		assert.Equal(t, "errors/404", readBody(t, res))
	})

	t.Run("profile renders the member's posts", func(t *testing.T) {
		res := fixture.get(t, "/profile", aliceCookie)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "profile", readBody(t, res))
	})
}
