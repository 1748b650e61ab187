package poolchat

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"poolchat/core"
	"poolchat/pkg/router"
)

type UserHandler struct {
	store core.UserStore
}

func NewUserHandler(store core.UserStore) *UserHandler {
	return &UserHandler{store: store}
}

func (h *UserHandler) MeHandler(w http.ResponseWriter, r *http.Request) error {
	session := core.SessionFromRequest(r)
	user, err := h.store.GetUserByUsername(r.Context(), session.Username)
	if err != nil {
		return fmt.Errorf("get user by username: %w", err)
	}
	if user == nil {
		return router.NewJsonError(http.StatusNotFound, "user not found")
	}

	json.NewEncoder(w).Encode(user)
	return nil
}

func (h *UserHandler) GetUserByUsernameHandler(w http.ResponseWriter, r *http.Request) error {
	user, err := h.store.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		return err
	}
	if user == nil {
		return router.NewJsonError(http.StatusNotFound, "user not found")
	}

	json.NewEncoder(w).Encode(user)
	return nil
}

type UpdateProfilePicturePayload struct {
	ProfilePicture string `json:"profilePicture" validate:"required"`
}

func (h *UserHandler) UpdateProfilePictureHandler(w http.ResponseWriter, r *http.Request) error {
	session := core.SessionFromRequest(r)
	username := chi.URLParam(r, "username")
	if session.Username != username {
		return router.NewJsonError(http.StatusForbidden, "cannot modify another user's profile")
	}

	var payload UpdateProfilePicturePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return fmt.Errorf("Decode: %w", err)
	}
	r.Body.Close()

	if err := validate.Struct(payload); err != nil {
		return router.NewJsonError(http.StatusBadRequest, "invalid input")
	}

	if err := h.store.UpdateProfilePicture(r.Context(), username, payload.ProfilePicture); err != nil {
		return err
	}

	w.WriteHeader(http.StatusOK)
	return nil
}

type UpdateProfilePayload struct {
	Banner string `json:"banner"`
	Bio    string `json:"bio"`
}

func (h *UserHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) error {
	session := core.SessionFromRequest(r)
	username := chi.URLParam(r, "username")
	if session.Username != username {
		return router.NewJsonError(http.StatusForbidden, "cannot modify another user's profile")
	}

	var payload UpdateProfilePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return fmt.Errorf("Decode: %w", err)
	}
	r.Body.Close()

	if err := h.store.UpdateProfile(r.Context(), username, payload.Banner, payload.Bio); err != nil {
		return err
	}

	w.WriteHeader(http.StatusOK)
	return nil
}
