package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/inkwellhq/inkwell/auth"
	"github.com/inkwellhq/inkwell/board"
	"github.com/inkwellhq/inkwell/config"
)

func main() {
	godotenv.Load()

	cfg := config.Load()

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName(cfg.AppName),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)
	log := lgr.GetLogger("app")

	if cfg.UsingDefaultSigningKey() {
		log.Warn("using the built in signing key, set INKWELL_SIGNING_KEY before deploying")
	}

	ctx := context.Background()

	db, err := openDatabase(cfg.DSN)
	if err != nil {
		log.Error("open database", "error", err, "dsn", cfg.DSN)
		os.Exit(1)
	}
	defer db.Close()

	if err := setupSchema(ctx, db); err != nil {
		log.Error("setup schema", "error", err)
		os.Exit(1)
	}

	users := auth.NewUsersRepository(db)
	hasher := auth.NewPasswordHasher(cfg)

	provider := auth.NewUserProvider(users, hasher).
		WithLogger(lgr.GetLogger("auth:prv"))

	auther := auth.NewAuthenticator(provider, cfg).
		WithLogger(lgr.GetLogger("auth:authn"))

	web := auth.NewWebAuth(auther, users, cfg).
		WithLogger(lgr.GetLogger("auth:http"))

	if cfg.BootstrapAdmin {
		if err := bootstrapAdmin(ctx, cfg, users, hasher, log); err != nil {
			log.Error("bootstrap admin", "error", err)
			os.Exit(1)
		}
	}

	posts := board.NewPostsRepository(db)
	service := board.NewService(db, posts, lgr.GetLogger("board"))

	app := newServer(cfg)

	authController := auth.NewAuthController(func(c *auth.AuthController) *auth.AuthController {
		c.Users = users
		c.Hasher = hasher
		c.Auther = auther
		c.Web = web
		c.WithLogger(lgr.GetLogger("auth:ctrl"))
		return c
	})
	auth.RegisterAuthRoutes(app, authController)

	postsController := board.NewPostsController(
		board.WithService(service),
		board.WithWebAuth(web),
		board.WithControllerLogger(lgr.GetLogger("board:ctrl")),
	)
	board.RegisterBoardRoutes(app, postsController)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("errors/404", fiber.Map{
			"status":  fiber.StatusNotFound,
			"message": "We could not find what you were looking for.",
		})
	})

	go func() {
		if err := app.Listen(cfg.Address); err != nil {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("listening", "address", cfg.Address)

	waitExitSignal()

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("shutdown", "error", err)
	}
}

func newServer(cfg *config.Config) *fiber.App {
	engine := django.New("./views", ".html")

	return fiber.New(fiber.Config{
		AppName:           cfg.AppName,
		Views:             engine,
		PassLocalsToViews: true,
	})
}

func openDatabase(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func setupSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*auth.User)(nil),
		(*board.Post)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}

// bootstrapAdmin seeds the configured admin account on first boot. An
// existing account with the same username is left alone.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, users auth.Users, hasher *auth.PasswordHasher, log auth.Logger) error {
	if _, err := users.GetByUsername(ctx, cfg.AdminUsername); err == nil {
		return nil
	} else if !errors.IsNotFound(err) {
		return err
	}

	hash, err := hasher.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	user := &auth.User{
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		IsAdmin:      true,
	}

	if id, err := hashid.NewUUID(cfg.AdminUsername); err == nil {
		user.ID = id
	}

	if _, err := users.Register(ctx, user); err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			return nil
		}
		return err
	}

	log.Info("seeded admin account", "username", cfg.AdminUsername)
	return nil
}

func waitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
