package poolchat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"poolchat/core"
	"poolchat/pkg/router"
)

type AuthHandler struct {
	authStore core.AuthStore
	userStore core.UserStore
}

func NewAuthHandler(authStore core.AuthStore, userStore core.UserStore) *AuthHandler {
	return &AuthHandler{authStore: authStore, userStore: userStore}
}

func (h *AuthHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) error {
	var user core.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		return fmt.Errorf("Decode: %w", err)
	}
	defer r.Body.Close()

	created, err := h.userStore.CreateUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, core.ErrConflictedUser) {
			return err
		}
		if msg := FormatValidationErrors(err); msg != "" {
			return router.NewJsonError(http.StatusBadRequest, msg)
		}
		return err
	}

	return router.WriteJson(w, http.StatusCreated, created)
}

type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) error {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return fmt.Errorf("Decode: %w", err)
	}
	defer r.Body.Close()

	session, err := h.authStore.NewSession(r.Context(), payload.Username, payload.Password)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     core.AuthCookieName,
		Value:    session.Token,
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Path:     "/",
	})

	user, err := h.userStore.GetUserByUsername(r.Context(), session.Username)
	if err != nil {
		return fmt.Errorf("get user by username: %w", err)
	}

	if err := json.NewEncoder(w).Encode(user); err != nil {
		return fmt.Errorf("Encode: %w", err)
	}
	return nil
}

// LogoutHandler clears the session cookie. Tokens are stateless, so there is
// nothing to revoke server side.
func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     core.AuthCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Path:     "/",
	})
	w.WriteHeader(http.StatusOK)
	return nil
}
