package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

type SQLiteUserStore struct {
	db *sql.DB
}

func NewSQLiteUserStore(db *sql.DB) *SQLiteUserStore {
	return &SQLiteUserStore{db: db}
}

func (s *SQLiteUserStore) CreateUser(ctx context.Context, user User) (*UserWithoutSecrets, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	eu, err := s.GetUserByUsername(ctx, user.Username)
	if err != nil {
		return nil, fmt.Errorf("checking if user exists: %w", err)
	}
	if eu != nil {
		return nil, ErrConflictedUser
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	if user.ProfilePicture == "" {
		user.ProfilePicture = DefaultProfilePicture
	}

	query := `
	INSERT INTO users (username, password, profile_picture, banner, bio)
	VALUES (@username, @password, @profile_picture, @banner, @bio)
	RETURNING id`
	row := s.db.QueryRowContext(ctx, query,
		sql.Named("username", user.Username),
		sql.Named("password", string(hashed)),
		sql.Named("profile_picture", user.ProfilePicture),
		sql.Named("banner", user.Banner),
		sql.Named("bio", user.Bio),
	)
	var id int
	if err := row.Scan(&id); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return &UserWithoutSecrets{
		ID:             id,
		Username:       user.Username,
		ProfilePicture: user.ProfilePicture,
		Banner:         user.Banner,
		Bio:            user.Bio,
	}, nil
}

func (s *SQLiteUserStore) GetUserByUsername(ctx context.Context, username string) (*UserWithoutSecrets, error) {
	// The username column is declared COLLATE NOCASE, so equality here is
	// case-insensitive.
	query := `
	SELECT id, username, profile_picture, banner, bio
	FROM users
	WHERE username = ?
	LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, username)

	user := new(UserWithoutSecrets)
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.ProfilePicture,
		&user.Banner,
		&user.Bio,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	return user, nil
}

func (s *SQLiteUserStore) ComparePassword(ctx context.Context, username, password string) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT password FROM users WHERE username = ? LIMIT 1", username)

	var storedPassword string
	if err := row.Scan(&storedPassword); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("scanning password: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(storedPassword), []byte(password)); err != nil {
		return false, nil
	}

	return true, nil
}

func (s *SQLiteUserStore) UpdateProfilePicture(ctx context.Context, username, profilePicture string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET profile_picture = @profile_picture WHERE username = @username`,
		sql.Named("profile_picture", profilePicture), sql.Named("username", username))
	if err != nil {
		return fmt.Errorf("ExecContext(update profile picture): %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("RowsAffected: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *SQLiteUserStore) UpdateProfile(ctx context.Context, username, banner, bio string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET banner = @banner, bio = @bio WHERE username = @username`,
		sql.Named("banner", banner), sql.Named("bio", bio), sql.Named("username", username))
	if err != nil {
		return fmt.Errorf("ExecContext(update profile): %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("RowsAffected: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
