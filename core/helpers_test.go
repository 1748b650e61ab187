package core

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedMessages(ctx context.Context, t *testing.T, store MessageStore, inputs ...MessageCreateInput) []Message {
	messages := make([]Message, 0, len(inputs))
	for _, in := range inputs {
		m, err := store.CreateMessage(ctx, in)
		if err != nil {
			t.Fatal(err)
		}
		messages = append(messages, *m)
	}
	return messages
}

// insertMessageAt inserts a row with an explicit creation time, bypassing the
// store, so retention behavior can be tested against known ages.
func insertMessageAt(ctx context.Context, t *testing.T, db *sql.DB, username, text string, createdAt time.Time) int {
	row := db.QueryRowContext(ctx, `
		INSERT INTO messages (username, text, created_at)
		VALUES (@username, @text, @created_at)
		RETURNING id`,
		sql.Named("username", username),
		sql.Named("text", text),
		sql.Named("created_at", createdAt.UTC()),
	)
	var id int
	if err := row.Scan(&id); err != nil {
		t.Fatal(err)
	}
	return id
}
