package poolchat

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/cors"

	"poolchat/core"
	"poolchat/pkg/router"
)

type App struct {
	config  *Config
	db      *core.SQLiteDB
	context context.Context
	server  *http.Server
	logger  *slog.Logger
	router  *router.Router

	hub     *core.Hub
	sweeper *core.Sweeper

	exit chan int

	messageStore   core.MessageStore
	messageManager *core.MessageManager
	userStore      core.UserStore
	authStore      core.AuthStore
	mediaStore     core.MediaStore

	messageHandler *MessageHandler
	userHandler    *UserHandler
	authHandler    *AuthHandler
	uploadHandler  *UploadHandler

	cleanupFuncs []func(context.Context)

	wg sync.WaitGroup
}

func New(ctx context.Context, config *Config) *App {
	var err error
	app := &App{
		exit: make(chan int),
	}
	if ctx == nil {
		ctx, _ = signal.NotifyContext(
			context.Background(),
			syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	}
	app.context = ctx

	if config == nil {
		var err error
		config, err = LoadConfig()
		if err != nil {
			failed(1, "failed to load config: %v\n", err)
		}
	}
	if err := config.Validate(); err != nil {
		failed(1, FormatValidationErrors(err))
	}
	app.config = config

	app.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				source, _ := a.Value.Any().(*slog.Source)
				if source != nil {
					source.File = filepath.Base(source.File)
				}
			}
			return a
		},
	}))

	sqliteOptions := &core.SQLiteDBOption{
		Mode:          "rwc",
		Cache:         "shared",
		JournalMode:   "WAL",
		BusyTimeoutMS: "5000",
	}
	app.db, err = core.NewSQLiteDB(app.config.SQLite.File, app.config.SQLite.Migrations, sqliteOptions)
	if err != nil {
		failed(1, "failed to open database: %v\n", err)
	}
	app.AddCleanupFunc(func(ctx context.Context) {
		app.db.Close()
	})
	if err := app.db.Migrate(); err != nil {
		failed(1, "failed to migrate database: %v\n", err)
	}

	app.hub = core.NewHub(app.context, &app.wg, app.logger,
		core.WithCheckOrigin(originChecker(app.config.AllowedOrigins)))

	app.messageStore = core.NewSQLiteMessageStore(app.db.DB)
	app.messageManager = core.NewMessageManager(app.messageStore, app.hub, app.logger)
	app.sweeper = core.NewSweeper(app.messageStore,
		app.config.Retention.Window, app.config.Retention.Interval, app.logger)

	app.userStore = core.NewSQLiteUserStore(app.db.DB)
	app.authStore = core.NewTokenAuth(app.userStore, []byte(app.config.Auth.Secret))

	app.mediaStore, err = core.NewDiskMediaStore(app.config.Upload.Dir, "/uploads")
	if err != nil {
		failed(1, "failed to open media store: %v\n", err)
	}

	app.messageHandler = NewMessageHandler(app.messageManager)
	app.userHandler = NewUserHandler(app.userStore)
	app.authHandler = NewAuthHandler(app.authStore, app.userStore)
	app.uploadHandler = NewUploadHandler(app.mediaStore, app.config.Upload.MaxSize)
	authMiddleware := core.JWTMiddleware(app.authStore)

	app.router = router.New(router.WithLogger(app.logger))
	app.router.MapError(core.ErrEmptyMessage, http.StatusBadRequest)
	app.router.MapError(core.ErrEmptyAuthor, http.StatusBadRequest)
	app.router.MapError(core.ErrMessageNotFound, http.StatusNotFound)
	app.router.MapError(core.ErrConflictedUser, http.StatusConflict)
	app.router.MapError(core.ErrBadCredentials, http.StatusUnauthorized)
	app.router.MapError(core.ErrUserNotFound, http.StatusNotFound)
	app.router.MapError(core.ErrUnsupportedMedia, http.StatusUnsupportedMediaType)

	app.router.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	app.router.Get("/ws", func(w http.ResponseWriter, r *http.Request) error {
		return app.hub.Connect(w, r)
	})

	app.router.Route("/api", func(r *router.Router) {
		r.Route("/messages", func(r *router.Router) {
			r.Get("/", app.messageHandler.ListMessagesHandler)
			r.Post("/", app.messageHandler.CreateMessageHandler)
			r.Put("/{id}", app.messageHandler.EditMessageHandler)
			r.Delete("/{id}", app.messageHandler.DeleteMessageHandler)
		})

		r.Post("/register", app.authHandler.RegisterHandler)
		r.Post("/login", app.authHandler.LoginHandler)
		r.Post("/logout", app.authHandler.LogoutHandler)

		r.With(authMiddleware).Get("/users/me", app.userHandler.MeHandler)
		r.With(authMiddleware).Put("/users/{username}/profilePicture", app.userHandler.UpdateProfilePictureHandler)
		r.With(authMiddleware).Put("/users/{username}/profile", app.userHandler.UpdateProfileHandler)
		r.Get("/users/{username}", app.userHandler.GetUserByUsernameHandler)

		r.Post("/upload", app.uploadHandler.UploadHandler)
	})

	uploadsFS := http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(app.config.Upload.Dir)))
	app.router.Router.Get("/uploads/*", uploadsFS.ServeHTTP)

	app.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", app.config.Hostname, app.config.Port),
		Handler: app.router.Router,
		BaseContext: func(listener net.Listener) context.Context {
			return app.context
		},
	}

	return app
}

func (app *App) Start() {
	app.sweeper.Start(app.context, &app.wg)

	go func() {
		<-app.context.Done()

		app.logger.Info("app shutting down")
		closeCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		var wg sync.WaitGroup
		for _, f := range app.cleanupFuncs {
			wg.Add(1)
			go func(f func(context.Context)) {
				defer wg.Done()
				f(closeCtx)
			}(f)
		}

		done := make(chan struct{})
		go func() {
			wg.Wait()
			app.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			app.logger.Info("app shutdown gracefully")
			app.exit <- 0
		case <-closeCtx.Done():
			app.logger.Info("app shutdown timed out")
			app.exit <- 1
		}
	}()

	app.AddCleanupFunc(func(ctx context.Context) {
		app.server.Shutdown(ctx)
	})
	app.logger.Info(fmt.Sprintf("app running on %s:%d", app.config.Hostname, app.config.Port))

	err := app.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		failed(1, "server error: %v\n", err)
	}

	code := <-app.exit
	os.Exit(code)
}

func (app *App) AddCleanupFunc(f func(context.Context)) {
	app.cleanupFuncs = append(app.cleanupFuncs, f)
}

// originChecker admits websocket upgrades from the same origins the CORS
// layer admits for the HTTP API. Requests without an Origin header
// (non-browser clients) are allowed.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

func failed(code int, s string, args ...interface{}) {
	fmt.Printf(s, args...)
	os.Exit(code)
}
