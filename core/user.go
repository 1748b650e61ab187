package core

import (
	"context"
	"errors"
)

// DefaultProfilePicture is used when a user registers without an avatar.
const DefaultProfilePicture = "https://via.placeholder.com/150"

var (
	// ErrConflictedUser is returned when a username is already taken.
	// Usernames are unique case-insensitively.
	ErrConflictedUser = errors.New("user already exists")
	// ErrUserNotFound is returned when an operation targets an unknown user.
	ErrUserNotFound = errors.New("user not found")
	// ErrBadCredentials is returned when a username/password pair does not
	// match a stored user.
	ErrBadCredentials = errors.New("invalid credentials")
)

type User struct {
	ID             int    `json:"id"`
	Username       string `json:"username" validate:"required,max=18"`
	Password       string `json:"password" validate:"required"`
	ProfilePicture string `json:"profilePicture"`
	Banner         string `json:"banner"`
	Bio            string `json:"bio"`
}

// Validate checks the registration input.
func (u *User) Validate() error {
	return validate.Struct(u)
}

// UserWithoutSecrets is the user record as exposed to clients.
type UserWithoutSecrets struct {
	ID             int    `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
	Banner         string `json:"banner"`
	Bio            string `json:"bio"`
}

type UserStore interface {
	// CreateUser registers a new user with a hashed password. It returns
	// ErrConflictedUser if the username is taken (case-insensitively).
	CreateUser(ctx context.Context, user User) (*UserWithoutSecrets, error)

	// GetUserByUsername looks up a user case-insensitively. It returns nil
	// if the user does not exist.
	GetUserByUsername(ctx context.Context, username string) (*UserWithoutSecrets, error)

	// ComparePassword reports whether the password matches the stored hash
	// for the user.
	ComparePassword(ctx context.Context, username, password string) (bool, error)

	// UpdateProfilePicture replaces the user's avatar. It returns
	// ErrUserNotFound if no such user exists.
	UpdateProfilePicture(ctx context.Context, username, profilePicture string) error

	// UpdateProfile replaces the user's banner and bio. It returns
	// ErrUserNotFound if no such user exists.
	UpdateProfile(ctx context.Context, username, banner, bio string) error
}
