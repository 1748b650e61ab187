package poolchat

import (
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"poolchat/core"
	"poolchat/pkg/router"
)

// publishRecorder is a core.Broadcaster that records published events.
type publishRecorder struct {
	events []*core.Event
}

func (b *publishRecorder) Publish(e *core.Event) {
	b.events = append(b.events, e)
}

type apiFixture struct {
	router      *router.Router
	broadcaster *publishRecorder
	userStore   core.UserStore
	tearDown    func()
}

// newAPIFixture wires the HTTP surface against an in-memory sqlite store,
// mirroring the route and error mapping done in New.
func newAPIFixture(t *testing.T) *apiFixture {
	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	if err != nil {
		t.Fatal(err)
	}

	migrationfs := os.DirFS("../migrations")
	goose.SetBaseFS(migrationfs)
	if err := goose.SetDialect("sqlite3"); err != nil {
		t.Fatal(err)
	}
	if err := goose.Up(db, "."); err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broadcaster := &publishRecorder{}

	messageStore := core.NewSQLiteMessageStore(db)
	manager := core.NewMessageManager(messageStore, broadcaster, logger)
	userStore := core.NewSQLiteUserStore(db)
	authStore := core.NewTokenAuth(userStore, []byte("c2VjcmV0"))

	messageHandler := NewMessageHandler(manager)
	userHandler := NewUserHandler(userStore)
	authHandler := NewAuthHandler(authStore, userStore)
	authMiddleware := core.JWTMiddleware(authStore)

	r := router.New(router.WithLogger(logger))
	r.MapError(core.ErrEmptyMessage, http.StatusBadRequest)
	r.MapError(core.ErrEmptyAuthor, http.StatusBadRequest)
	r.MapError(core.ErrMessageNotFound, http.StatusNotFound)
	r.MapError(core.ErrConflictedUser, http.StatusConflict)
	r.MapError(core.ErrBadCredentials, http.StatusUnauthorized)
	r.MapError(core.ErrUserNotFound, http.StatusNotFound)

	r.Route("/api", func(r *router.Router) {
		r.Route("/messages", func(r *router.Router) {
			r.Get("/", messageHandler.ListMessagesHandler)
			r.Post("/", messageHandler.CreateMessageHandler)
			r.Put("/{id}", messageHandler.EditMessageHandler)
			r.Delete("/{id}", messageHandler.DeleteMessageHandler)
		})
		r.Post("/register", authHandler.RegisterHandler)
		r.Post("/login", authHandler.LoginHandler)
		r.Post("/logout", authHandler.LogoutHandler)
		r.With(authMiddleware).Get("/users/me", userHandler.MeHandler)
	})

	return &apiFixture{
		router:      r,
		broadcaster: broadcaster,
		userStore:   userStore,
		tearDown: func() {
			goose.Reset(db, ".")
			db.Close()
		},
	}
}
