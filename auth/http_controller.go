package auth

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/hashid/pkg/hashid"
)

// RegisterAuthRoutes mounts the HTML auth flows and the JSON auth API.
func RegisterAuthRoutes(app fiber.Router, controller *AuthController) {
	app.Get(controller.Routes.Login, controller.Web.OptionalPageUser(), controller.LoginShow)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Get(controller.Routes.Logout, controller.LogOut)
	app.Get(controller.Routes.Register, controller.Web.OptionalPageUser(), controller.RegistrationShow)
	app.Post(controller.Routes.Register, controller.RegistrationCreate)

	api := app.Group("/api/auth")
	api.Post("/register", controller.APIRegister)
	api.Post("/login", controller.APILogin)
	api.Get("/me", controller.Web.RequireAPIUser(), controller.APIMe)
}

type AuthControllerRoutes struct {
	Login    string
	Logout   string
	Register string
}

type AuthControllerViews struct {
	Login    string
	Register string
}

type AuthController struct {
	Debug  bool
	Logger Logger
	Users  Users
	Hasher *PasswordHasher
	Auther Authenticator
	Web    *WebAuth
	Routes *AuthControllerRoutes
	Views  *AuthControllerViews
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Login:    "/login",
			Logout:   "/logout",
			Register: "/register",
		},
		Views: &AuthControllerViews{
			Login:    "auth/login",
			Register: "auth/register",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Users == nil {
		panic("Missing Users repository in auth controller...")
	}

	if c.Web == nil || c.Auther == nil || c.Hasher == nil {
		panic("Missing authenticator wiring in auth controller...")
	}

	return c
}

func (a *AuthController) WithLogger(l Logger) *AuthController {
	a.Logger = l
	return a
}

// ---- HTML pages ----

func (a *AuthController) LoginShow(ctx *fiber.Ctx) error {
	if _, ok := CurrentUser(ctx); ok {
		return ctx.Redirect("/posts", fiber.StatusFound)
	}

	return ctx.Render(a.Views.Login, fiber.Map{
		"errors": nil,
		"record": nil,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Username, validation.Required),
			validation.Field(&r.Password, validation.Required),
		)
	}, "Invalid login request payload")
}

func (a *AuthController) LoginPost(ctx *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return ctx.Status(fiber.StatusBadRequest).Render(a.Views.Login, fiber.Map{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Login, fiber.Map{
			"record":     payload,
			"validation": err.ValidationMap(),
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	if _, err := a.Web.Login(ctx, payload.Username, payload.Password); err != nil {
		return ctx.Render(a.Views.Login, fiber.Map{
			"errors": map[string]string{"authentication": "Incorrect username or password"},
			"record": payload,
		})
	}

	return ctx.Redirect(a.Web.GetRedirect(ctx), fiber.StatusSeeOther)
}

func (a *AuthController) LogOut(ctx *fiber.Ctx) error {
	a.Web.Logout(ctx)
	return ctx.Redirect("/", fiber.StatusFound)
}

func (a *AuthController) RegistrationShow(ctx *fiber.Ctx) error {
	if _, ok := CurrentUser(ctx); ok {
		return ctx.Redirect("/posts", fiber.StatusFound)
	}

	return ctx.Render(a.Views.Register, fiber.Map{
		"errors": map[string]string{},
		"record": RegistrationCreatePayload{},
	})
}

// RegistrationCreatePayload is the form payload
type RegistrationCreatePayload struct {
	Username        string `form:"username" json:"username"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
			validation.Field(&r.Password, validation.Required, validation.Length(4, 100)),
			validation.Field(
				&r.ConfirmPassword,
				validation.Required,
				validation.By(func(value any) error {
					if s, _ := value.(string); s != r.Password {
						return fmt.Errorf("passwords do not match")
					}
					return nil
				}),
			),
		)
	}, "Invalid registration payload")
}

func (a *AuthController) RegistrationCreate(ctx *fiber.Ctx) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return ctx.Status(fiber.StatusBadRequest).Render(a.Views.Register, fiber.Map{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register validate payload", "error", err)
		return ctx.Render(a.Views.Register, fiber.Map{
			"record":     payload,
			"validation": err.ValidationMap(),
		})
	}

	if _, err := a.registerUser(ctx, payload.Username, payload.Password, false); err != nil {
		return ctx.Render(a.Views.Register, fiber.Map{
			"record": payload,
			"errors": map[string]string{"registration": userFacingMessage(err)},
		})
	}

	// Auto-login after registration
	if _, err := a.Web.Login(ctx, payload.Username, payload.Password); err != nil {
		a.Logger.Error("post-registration login", "error", err)
		return ctx.Redirect(a.Routes.Login, fiber.StatusSeeOther)
	}

	return ctx.Redirect("/posts", fiber.StatusSeeOther)
}

// ---- JSON API ----

func (a *AuthController) APIRegister(ctx *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := ctx.BodyParser(payload); err != nil {
		return WriteAPIError(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body").
			WithCode(errors.CodeBadRequest))
	}

	if err := apiRegisterRules(payload); err != nil {
		return WriteAPIError(ctx, err)
	}

	user, err := a.registerUser(ctx, payload.Username, payload.Password, false)
	if err != nil {
		return WriteAPIError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(user)
}

func apiRegisterRules(r *LoginRequest) error {
	if err := errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(r,
			validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
			validation.Field(&r.Password, validation.Required, validation.Length(4, 100)),
		)
	}, "Invalid registration payload"); err != nil {
		return err
	}
	return nil
}

func (a *AuthController) APILogin(ctx *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := ctx.BodyParser(payload); err != nil {
		return WriteAPIError(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body").
			WithCode(errors.CodeBadRequest))
	}

	token, err := a.Auther.Login(ctx.Context(), payload.Username, payload.Password)
	if err != nil {
		ctx.Set(fiber.HeaderWWWAuthenticate, BearerScheme)
		return WriteAPIError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (a *AuthController) APIMe(ctx *fiber.Ctx) error {
	user, ok := CurrentUser(ctx)
	if !ok {
		ctx.Set(fiber.HeaderWWWAuthenticate, BearerScheme)
		return WriteAPIError(ctx, ErrUnableToFindSession)
	}

	return ctx.JSON(user)
}

// registerUser creates the user record with a deterministic ID derived from
// the username. Uniqueness is enforced by the store; the duplicate case comes
// back as ErrUsernameTaken, not a storage failure.
func (a *AuthController) registerUser(ctx *fiber.Ctx, username, password string, admin bool) (*User, error) {
	hash, err := a.Hasher.HashPassword(password)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      admin,
	}

	if id, err := hashid.NewUUID(username); err == nil {
		user.ID = id
	}

	record, err := a.Users.Register(ctx.Context(), user)
	if err != nil {
		a.Logger.Error("register user", "error", err, "username", username)
		return nil, err
	}

	a.Logger.Info("user registered", "username", username, "admin", admin)
	return record, nil
}

func userFacingMessage(err error) string {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.Message
	}
	return "Registration failed"
}
