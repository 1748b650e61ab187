package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type SQLiteMessageStore struct {
	db *sql.DB
}

func NewSQLiteMessageStore(db *sql.DB) *SQLiteMessageStore {
	return &SQLiteMessageStore{db: db}
}

func (s *SQLiteMessageStore) CreateMessage(ctx context.Context, input MessageCreateInput) (*Message, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	createdAt := time.Now().UTC()
	query := `
	INSERT INTO messages (username, profile_picture, text, media_url, hide_name_and_pfp, created_at)
	VALUES (@username, @profile_picture, @text, @media_url, @hide_name_and_pfp, @created_at)
	RETURNING id`
	row := s.db.QueryRowContext(ctx, query,
		sql.Named("username", input.Username),
		sql.Named("profile_picture", input.ProfilePicture),
		sql.Named("text", input.Text),
		sql.Named("media_url", input.MediaURL),
		sql.Named("hide_name_and_pfp", input.HideNameAndPfp),
		sql.Named("created_at", createdAt),
	)
	var id int
	if err := row.Scan(&id); err != nil {
		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	// Read the canonical row back rather than assembling it from the input.
	message, err := s.GetMessage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetMessage: %w", err)
	}
	if message == nil {
		return nil, ErrMessageNotFound
	}
	return message, nil
}

func (s *SQLiteMessageStore) UpdateMessageText(ctx context.Context, id int, text string) (*Message, error) {
	if text == "" {
		return nil, ErrEmptyMessage
	}

	// A single atomic UPDATE keyed by id. The affected-row count is the
	// existence check, so a concurrent delete of the same id cannot race a
	// separate check-then-act sequence.
	query := `UPDATE messages SET text = @text WHERE id = @id`
	res, err := s.db.ExecContext(ctx, query,
		sql.Named("text", text), sql.Named("id", id))
	if err != nil {
		return nil, fmt.Errorf("ExecContext(update message): %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("RowsAffected: %w", err)
	}
	if affected == 0 {
		return nil, ErrMessageNotFound
	}

	message, err := s.GetMessage(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetMessage: %w", err)
	}
	if message == nil {
		// Deleted between the update and the read back. The mutation hit a
		// since-deleted row, so report it as not found.
		return nil, ErrMessageNotFound
	}
	return message, nil
}

func (s *SQLiteMessageStore) DeleteMessage(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE id = @id`, sql.Named("id", id))
	if err != nil {
		return fmt.Errorf("ExecContext(delete message): %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("RowsAffected: %w", err)
	}
	if affected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (s *SQLiteMessageStore) GetMessage(ctx context.Context, id int) (*Message, error) {
	query := `
	SELECT id, username, profile_picture, text, media_url, hide_name_and_pfp, created_at
	FROM messages
	WHERE id = @id
	LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, sql.Named("id", id))

	message := new(Message)
	err := row.Scan(
		&message.ID,
		&message.Username,
		&message.ProfilePicture,
		&message.Text,
		&message.MediaURL,
		&message.HideNameAndPfp,
		&message.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning message: %w", err)
	}

	return message, nil
}

func (s *SQLiteMessageStore) ListMessages(ctx context.Context) ([]Message, error) {
	query := `
	SELECT id, username, profile_picture, text, media_url, hide_name_and_pfp, created_at
	FROM messages
	ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("QueryContext: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var message Message
		if err := rows.Scan(
			&message.ID,
			&message.Username,
			&message.ProfilePicture,
			&message.Text,
			&message.MediaURL,
			&message.HideNameAndPfp,
			&message.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return messages, nil
}

func (s *SQLiteMessageStore) DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE created_at < @cutoff`,
		sql.Named("cutoff", cutoff.UTC()))
	if err != nil {
		return 0, fmt.Errorf("ExecContext(delete messages): %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("RowsAffected: %w", err)
	}
	return int(affected), nil
}
