package board

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"

	"github.com/inkwellhq/inkwell/auth"
)

const (
	// DefaultPageSize is the number of posts returned per listing page.
	DefaultPageSize = 10
	// MaxPageSize caps the limit the JSON API accepts.
	MaxPageSize = 100
)

// RegisterBoardRoutes mounts the HTML board pages and the JSON posts API.
// Pages resolve identity from the session cookie; the API resolves it from
// the Authorization header only.
func RegisterBoardRoutes(app fiber.Router, controller *PostsController) {
	app.Get("/", controller.Web.OptionalPageUser(), controller.Home)

	pages := app.Group("/posts", controller.Web.RequirePageUser())
	pages.Get("/", controller.PageList)
	pages.Get("/new", controller.PageNew)
	pages.Post("/new", controller.PageCreate)
	pages.Get("/:id", controller.PageDetail)
	pages.Get("/:id/edit", controller.PageEdit)
	pages.Post("/:id/edit", controller.PageUpdate)
	pages.Post("/:id/delete", controller.PageDelete)

	app.Get("/profile", controller.Web.RequirePageUser(), controller.PageProfile)

	api := app.Group("/api/posts", controller.Web.RequireAPIUser())
	api.Get("/", controller.APIList)
	api.Post("/", controller.APICreate)
	api.Get("/:id", controller.APIGet)
	api.Patch("/:id", controller.APIUpdate)
	api.Put("/:id", controller.APIUpdate)
	api.Delete("/:id", controller.APIDelete)
	api.Delete("/:id/hard", controller.APIHardDelete)
}

type PostsControllerViews struct {
	Home    string
	List    string
	Detail  string
	Form    string
	Profile string
}

type PostsController struct {
	Logger  auth.Logger
	Service *Service
	Web     *auth.WebAuth
	Views   *PostsControllerViews
}

type PostsControllerOption func(*PostsController) *PostsController

func NewPostsController(opts ...PostsControllerOption) *PostsController {
	c := &PostsController{
		Views: &PostsControllerViews{
			Home:    "home",
			List:    "posts/list",
			Detail:  "posts/detail",
			Form:    "posts/form",
			Profile: "profile",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Service == nil || c.Web == nil {
		panic("Missing service wiring in posts controller...")
	}

	if c.Logger == nil {
		c.Logger = c.Web.Logger
	}

	return c
}

func WithService(s *Service) PostsControllerOption {
	return func(c *PostsController) *PostsController {
		c.Service = s
		return c
	}
}

func WithWebAuth(w *auth.WebAuth) PostsControllerOption {
	return func(c *PostsController) *PostsController {
		c.Web = w
		return c
	}
}

func WithControllerLogger(l auth.Logger) PostsControllerOption {
	return func(c *PostsController) *PostsController {
		c.Logger = l
		return c
	}
}

// ---- HTML pages ----

func (p *PostsController) Home(ctx *fiber.Ctx) error {
	user, _ := auth.CurrentUser(ctx)
	return ctx.Render(p.Views.Home, fiber.Map{
		"user": user,
	})
}

func (p *PostsController) PageList(ctx *fiber.Ctx) error {
	user, _ := auth.CurrentUser(ctx)

	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	if page < 1 {
		page = 1
	}

	records, hasNext, err := p.Service.List(ctx.Context(), user, page, DefaultPageSize)
	if err != nil {
		p.Logger.Error("list posts", "error", err)
		return pageError(ctx, err)
	}

	return ctx.Render(p.Views.List, fiber.Map{
		"user":      user,
		"posts":     records,
		"page":      page,
		"has_next":  hasNext,
		"prev_page": page - 1,
		"next_page": page + 1,
	})
}

func (p *PostsController) PageNew(ctx *fiber.Ctx) error {
	user, _ := auth.CurrentUser(ctx)
	return ctx.Render(p.Views.Form, fiber.Map{
		"user":   user,
		"record": PostInput{},
		"action": "/posts/new",
		"title":  "New post",
	})
}

func (p *PostsController) PageCreate(ctx *fiber.Ctx) error {
	user, _ := auth.CurrentUser(ctx)

	payload := new(PostInput)
	if err := ctx.BodyParser(payload); err != nil {
		p.Logger.Error("create post parse payload", "error", err)
		return ctx.Status(fiber.StatusBadRequest).Render(p.Views.Form, fiber.Map{
			"user":   user,
			"record": payload,
			"action": "/posts/new",
			"title":  "New post",
			"errors": map[string]string{"form": "Failed to parse form"},
		})
	}

	post, err := p.Service.Create(ctx.Context(), user, *payload)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) && richErr.Category == errors.CategoryValidation {
			return ctx.Render(p.Views.Form, fiber.Map{
				"user":       user,
				"record":     payload,
				"action":     "/posts/new",
				"title":      "New post",
				"validation": richErr.ValidationMap(),
			})
		}
		p.Logger.Error("create post", "error", err)
		return pageError(ctx, err)
	}

	return ctx.Redirect("/posts/"+post.ID.String(), fiber.StatusSeeOther)
}

func (p *PostsController) PageDetail(ctx *fiber.Ctx) error {
	user, _ := auth.CurrentUser(ctx)

	id, err := postID(ctx)
	if err != nil {
		return pageError(ctx, err)
	}

	post, err := p.Service.Get(ctx.Context(), user, id)
	if err != nil {
		return pageError(ctx, err)
	}

	return ctx.Render(p.Views.Detail, fiber.Map{
		"user":       user,
		"post":       post,
		"can_edit":   Authorize(user, post, OpUpdate).Allowed && !post.Deleted,
		"can_delete": Authorize(user, post, OpSoftDelete).Allowed && !post.Deleted,
	})
}

func (p *PostsController) PageEdit(ctx *fiber.Ctx) error {
	user, _ := auth.CurrentUser(ctx)

	id, err := postID(ctx)
	if err != nil {
		return pageError(ctx, err)
	}

	post, err := p.Service.Get(ctx.Context(), user, id)
	if err != nil {
		return pageError(ctx, err)
	}

	if d := Authorize(user, post, OpUpdate); !d.Allowed {
		return pageError(ctx, ForbiddenError(d))
	}

	return ctx.Render(p.Views.Form, fiber.Map{
		"user":   user,
		"record": PostInput{Title: post.Title, Content: post.Content},
		"action": "/posts/" + post.ID.String() + "/edit",
		"title":  "Edit post",
	})
}

func (p *PostsController) PageUpdate(ctx *fiber.Ctx) error {
	user, _ := auth.CurrentUser(ctx)

	id, err := postID(ctx)
	if err != nil {
		return pageError(ctx, err)
	}

	payload := new(PostInput)
	if err := ctx.BodyParser(payload); err != nil {
		p.Logger.Error("update post parse payload", "error", err)
		return pageError(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse form").
			WithCode(errors.CodeBadRequest))
	}

	upd := PostUpdate{Title: &payload.Title, Content: &payload.Content}

	post, err := p.Service.Update(ctx.Context(), user, id, upd)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) && richErr.Category == errors.CategoryValidation {
			return ctx.Render(p.Views.Form, fiber.Map{
				"user":       user,
				"record":     payload,
				"action":     "/posts/" + id.String() + "/edit",
				"title":      "Edit post",
				"validation": richErr.ValidationMap(),
			})
		}
		return pageError(ctx, err)
	}

	return ctx.Redirect("/posts/"+post.ID.String(), fiber.StatusSeeOther)
}

func (p *PostsController) PageDelete(ctx *fiber.Ctx) error {
	user, _ := auth.CurrentUser(ctx)

	id, err := postID(ctx)
	if err != nil {
		return pageError(ctx, err)
	}

	if err := p.Service.SoftDelete(ctx.Context(), user, id); err != nil {
		return pageError(ctx, err)
	}

	return ctx.Redirect("/posts", fiber.StatusSeeOther)
}

func (p *PostsController) PageProfile(ctx *fiber.Ctx) error {
	user, ok := auth.CurrentUser(ctx)
	if !ok {
		return ctx.Redirect("/login", fiber.StatusFound)
	}

	records, err := p.Service.ListByAuthor(ctx.Context(), user, user.ID)
	if err != nil {
		p.Logger.Error("profile posts", "error", err, "username", user.Username)
		return pageError(ctx, err)
	}

	return ctx.Render(p.Views.Profile, fiber.Map{
		"user":  user,
		"posts": records,
	})
}

// ---- JSON API ----

func (p *PostsController) APIList(ctx *fiber.Ctx) error {
	user, _ := auth.CurrentUser(ctx)

	offset, _ := strconv.Atoi(ctx.Query("offset", "0"))
	limit, _ := strconv.Atoi(ctx.Query("limit", strconv.Itoa(DefaultPageSize)))

	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	records, hasNext, err := p.Service.ListRange(ctx.Context(), user, offset, limit)
	if err != nil {
		return auth.WriteAPIError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"posts":    records,
		"offset":   offset,
		"limit":    limit,
		"has_next": hasNext,
	})
}

func (p *PostsController) APICreate(ctx *fiber.Ctx) error {
	user, _ := auth.CurrentUser(ctx)

	payload := new(PostInput)
	if err := ctx.BodyParser(payload); err != nil {
		return auth.WriteAPIError(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body").
			WithCode(errors.CodeBadRequest))
	}

	post, err := p.Service.Create(ctx.Context(), user, *payload)
	if err != nil {
		return auth.WriteAPIError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(post)
}

func (p *PostsController) APIGet(ctx *fiber.Ctx) error {
	user, _ := auth.CurrentUser(ctx)

	id, err := postID(ctx)
	if err != nil {
		return auth.WriteAPIError(ctx, err)
	}

	post, err := p.Service.Get(ctx.Context(), user, id)
	if err != nil {
		return auth.WriteAPIError(ctx, err)
	}

	return ctx.JSON(post)
}

func (p *PostsController) APIUpdate(ctx *fiber.Ctx) error {
	user, _ := auth.CurrentUser(ctx)

	id, err := postID(ctx)
	if err != nil {
		return auth.WriteAPIError(ctx, err)
	}

	payload := new(PostUpdate)
	if err := ctx.BodyParser(payload); err != nil {
		return auth.WriteAPIError(ctx, errors.Wrap(err, errors.CategoryBadInput, "failed to parse request body").
			WithCode(errors.CodeBadRequest))
	}

	post, err := p.Service.Update(ctx.Context(), user, id, *payload)
	if err != nil {
		return auth.WriteAPIError(ctx, err)
	}

	return ctx.JSON(post)
}

func (p *PostsController) APIDelete(ctx *fiber.Ctx) error {
	user, _ := auth.CurrentUser(ctx)

	id, err := postID(ctx)
	if err != nil {
		return auth.WriteAPIError(ctx, err)
	}

	if err := p.Service.SoftDelete(ctx.Context(), user, id); err != nil {
		return auth.WriteAPIError(ctx, err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (p *PostsController) APIHardDelete(ctx *fiber.Ctx) error {
	user, _ := auth.CurrentUser(ctx)

	id, err := postID(ctx)
	if err != nil {
		return auth.WriteAPIError(ctx, err)
	}

	if err := p.Service.HardDelete(ctx.Context(), user, id); err != nil {
		return auth.WriteAPIError(ctx, err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// postID parses the :id route param. A malformed identifier is reported the
// same as a missing record.
func postID(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, ErrPostNotFound
	}
	return id, nil
}

// pageError maps a rich error to an HTML error page.
func pageError(ctx *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Code >= 400 && richErr.Code < 600 {
		status = richErr.Code
	}

	view := "errors/500"
	if status == fiber.StatusNotFound {
		view = "errors/404"
	}

	user, _ := auth.CurrentUser(ctx)

	return ctx.Status(status).Render(view, fiber.Map{
		"user":    user,
		"status":  status,
		"message": userMessage(status),
	})
}

func userMessage(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "We could not find what you were looking for."
	case fiber.StatusForbidden:
		return "You do not have permission to do that."
	case fiber.StatusBadRequest:
		return "That request did not look right."
	default:
		return "Something went wrong on our side."
	}
}
