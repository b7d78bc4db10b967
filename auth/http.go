package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

const (
	// BearerScheme is the authorization scheme on the API surface. The same
	// prefix may appear inside the session cookie value, where it is
	// stripped before verification.
	BearerScheme = "Bearer"

	// LocalsUserKey is where middleware stores the resolved *User.
	LocalsUserKey = "current_user"
)

// WebAuth wires the authenticator into fiber for both client types: API
// callers presenting an Authorization header, and page callers presenting the
// session cookie. The two paths share verification but diverge on failure:
// the API gets a hard 401 with a challenge, pages get redirected to /login.
type WebAuth struct {
	auth   Authenticator
	users  UserStore
	cfg    Config
	Logger Logger
}

func NewWebAuth(auther Authenticator, users UserStore, cfg Config) *WebAuth {
	return &WebAuth{
		auth:   auther,
		users:  users,
		cfg:    cfg,
		Logger: defLogger{},
	}
}

func (a *WebAuth) WithLogger(l Logger) *WebAuth {
	a.Logger = l
	return a
}

// Login verifies credentials, issues a session token, and sets the cookie.
// It returns the token so API-style callers can also hand it to the client.
func (a *WebAuth) Login(c *fiber.Ctx, username, password string) (string, error) {
	token, err := a.auth.Login(c.Context(), username, password)
	if err != nil {
		a.Logger.Error("Login error", "error", err)
		return "", err
	}

	a.SetAuthCookie(c, token)
	return token, nil
}

// Logout clears the client-held cookie. Issued tokens stay valid until
// natural expiry; there is no revocation list.
func (a *WebAuth) Logout(c *fiber.Ctx) {
	a.cookieDel(c, a.cfg.GetCookieName())
}

// SetAuthCookie stores the token in the session cookie. The value keeps the
// Bearer prefix for parity with the header transport.
func (a *WebAuth) SetAuthCookie(c *fiber.Ctx, token string) {
	ttl := a.cfg.GetSessionTTL()
	c.Cookie(&fiber.Cookie{
		Name:     a.cfg.GetCookieName(),
		Value:    BearerScheme + " " + token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// RequireAPIUser protects API routes. A missing or invalid bearer token is a
// hard authentication failure: 401 plus a WWW-Authenticate challenge, no
// silent fallback.
func (a *WebAuth) RequireAPIUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := tokenFromHeader(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return a.challenge(c, err)
		}

		user, err := a.userFromToken(c, raw)
		if err != nil {
			return a.challenge(c, err)
		}

		c.Locals(LocalsUserKey, user)
		return c.Next()
	}
}

// OptionalPageUser resolves the cookie identity when present. Absent,
// malformed, or stale cookies resolve to "no identity", never an error, so
// pages render for guests and members alike.
func (a *WebAuth) OptionalPageUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user, ok := a.userFromCookie(c); ok {
			c.Locals(LocalsUserKey, user)
		}
		return c.Next()
	}
}

// RequirePageUser wraps optional resolution and converts "no identity" into
// a redirect to the login page. This is a UX redirect, not an error response;
// the original route is remembered so login can replay it.
func (a *WebAuth) RequirePageUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := a.userFromCookie(c)
		if !ok {
			a.SetRedirect(c)

			status := http.StatusSeeOther
			if c.Method() == fiber.MethodGet {
				status = http.StatusFound
			}
			return c.Redirect("/login", status)
		}

		c.Locals(LocalsUserKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user stored by the auth middleware.
func CurrentUser(c *fiber.Ctx) (*User, bool) {
	user, ok := c.Locals(LocalsUserKey).(*User)
	return user, ok && user != nil
}

// SetRedirect remembers the rejected route so a later login can return to it.
func (a *WebAuth) SetRedirect(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     a.cfg.GetRejectedRouteKey(),
		Value:    c.OriginalURL(),
		Path:     "/",
		Expires:  time.Now().Add(5 * time.Minute),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// GetRedirect pops the remembered route, falling back to the configured
// default landing page.
func (a *WebAuth) GetRedirect(c *fiber.Ctx) string {
	key := a.cfg.GetRejectedRouteKey()
	r := c.Cookies(key)
	if r == "" {
		return a.cfg.GetRejectedRouteDefault()
	}
	a.cookieDel(c, key)
	return r
}

// userFromCookie is the optional-resolution primitive shared by the page
// middlewares.
func (a *WebAuth) userFromCookie(c *fiber.Ctx) (*User, bool) {
	raw := c.Cookies(a.cfg.GetCookieName())
	if raw == "" {
		return nil, false
	}

	raw = strings.TrimPrefix(raw, BearerScheme+" ")

	user, err := a.userFromToken(c, raw)
	if err != nil {
		a.Logger.Debug("cookie session did not resolve", "error", err)
		return nil, false
	}

	return user, true
}

// userFromToken verifies the raw token and re-resolves its subject against
// the user store. A token that verifies but names a vanished user fails here.
func (a *WebAuth) userFromToken(c *fiber.Ctx, raw string) (*User, error) {
	session, err := a.auth.SessionFromToken(raw)
	if err != nil {
		return nil, err
	}

	user, err := a.users.GetByUsername(c.Context(), session.GetSubject())
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	return user, nil
}

func (a *WebAuth) challenge(c *fiber.Ctx, err error) error {
	c.Set(fiber.HeaderWWWAuthenticate, BearerScheme)
	return WriteAPIError(c, err)
}

func (a *WebAuth) cookieDel(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func tokenFromHeader(header string) (string, error) {
	scheme := BearerScheme + " "
	if len(header) <= len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", ErrUnableToFindSession
	}
	return strings.TrimSpace(header[len(scheme):]), nil
}

// WriteAPIError renders a rich error as a JSON response, mapping the error
// code to the HTTP status. Unclassified errors surface as a generic 500.
func WriteAPIError(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := richErr.Code
	if status < http.StatusBadRequest || status > 599 {
		switch richErr.Category {
		case errors.CategoryValidation, errors.CategoryBadInput:
			status = http.StatusBadRequest
		case errors.CategoryAuth:
			status = http.StatusUnauthorized
		case errors.CategoryAuthz:
			status = http.StatusForbidden
		case errors.CategoryNotFound:
			status = http.StatusNotFound
		case errors.CategoryConflict:
			status = http.StatusConflict
		default:
			status = http.StatusInternalServerError
		}
	}

	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"message":   richErr.Message,
			"text_code": richErr.TextCode,
		},
	})
}
