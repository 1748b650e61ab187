package core

import (
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMessage(t *testing.T) {

	t.Run("create text message successfully", func(t *testing.T) {
		f := NewMessageFixture(t)
		defer f.tearDown()

		message, err := f.store.CreateMessage(f.ctx, MessageCreateInput{
			Username:       "alice",
			ProfilePicture: "pic.png",
			Text:           "hello",
		})

		require.Nil(t, err)
		require.NotNil(t, message)
		assert.Equal(t, 1, message.ID)
		assert.Equal(t, "alice", message.Username)
		assert.Equal(t, "pic.png", message.ProfilePicture)
		assert.Equal(t, "hello", message.Text)
		assert.Empty(t, message.MediaURL)
		assert.False(t, message.HideNameAndPfp)
		assert.False(t, message.CreatedAt.IsZero())
	})

	t.Run("create media-only message successfully", func(t *testing.T) {
		f := NewMessageFixture(t)
		defer f.tearDown()

		message, err := f.store.CreateMessage(f.ctx, MessageCreateInput{
			Username: "bob",
			MediaURL: "/uploads/cat.png",
		})

		require.Nil(t, err)
		assert.Empty(t, message.Text)
		assert.Equal(t, "/uploads/cat.png", message.MediaURL)
	})

	t.Run("ids are strictly increasing", func(t *testing.T) {
		f := NewMessageFixture(t)
		defer f.tearDown()

		var lastID int
		for i := 0; i < 5; i++ {
			message, err := f.store.CreateMessage(f.ctx, MessageCreateInput{
				Username: "alice", Text: "hi",
			})
			require.Nil(t, err)
			assert.Greater(t, message.ID, lastID)
			lastID = message.ID
		}
	})

	t.Run("missing author", func(t *testing.T) {
		f := NewMessageFixture(t)
		defer f.tearDown()

		message, err := f.store.CreateMessage(f.ctx, MessageCreateInput{Text: "hi"})

		require.Nil(t, message)
		assert.Equal(t, ErrEmptyAuthor, err)
	})

	t.Run("missing text and media", func(t *testing.T) {
		f := NewMessageFixture(t)
		defer f.tearDown()

		message, err := f.store.CreateMessage(f.ctx, MessageCreateInput{Username: "alice"})

		require.Nil(t, message)
		assert.Equal(t, ErrEmptyMessage, err)
	})
}

func TestUpdateMessageText(t *testing.T) {

	t.Run("only text is mutated", func(t *testing.T) {
		f := NewMessageFixture(t)
		defer f.tearDown()
		seeded := seedMessages(f.ctx, f.t, f.store, MessageCreateInput{
			Username:       "alice",
			ProfilePicture: "pic.png",
			Text:           "hi",
			MediaURL:       "/uploads/cat.png",
		})[0]

		updated, err := f.store.UpdateMessageText(f.ctx, seeded.ID, "hi there")

		require.Nil(t, err)
		assert.Equal(t, "hi there", updated.Text)
		assert.Equal(t, seeded.ID, updated.ID)
		assert.Equal(t, seeded.Username, updated.Username)
		assert.Equal(t, seeded.MediaURL, updated.MediaURL)
		assert.True(t, seeded.CreatedAt.Equal(updated.CreatedAt))
	})

	t.Run("empty text", func(t *testing.T) {
		f := NewMessageFixture(t)
		defer f.tearDown()
		seeded := seedMessages(f.ctx, f.t, f.store, MessageCreateInput{
			Username: "alice", Text: "hi",
		})[0]

		updated, err := f.store.UpdateMessageText(f.ctx, seeded.ID, "")

		require.Nil(t, updated)
		assert.Equal(t, ErrEmptyMessage, err)
	})

	t.Run("unknown id", func(t *testing.T) {
		f := NewMessageFixture(t)
		defer f.tearDown()

		updated, err := f.store.UpdateMessageText(f.ctx, 42, "hi")

		require.Nil(t, updated)
		assert.Equal(t, ErrMessageNotFound, err)
	})
}

func TestDeleteMessage(t *testing.T) {

	t.Run("deleted message disappears", func(t *testing.T) {
		f := NewMessageFixture(t)
		defer f.tearDown()
		seeded := seedMessages(f.ctx, f.t, f.store,
			MessageCreateInput{Username: "alice", Text: "hi"},
			MessageCreateInput{Username: "bob", Text: "yo"},
		)

		err := f.store.DeleteMessage(f.ctx, seeded[0].ID)
		require.Nil(t, err)

		message, err := f.store.GetMessage(f.ctx, seeded[0].ID)
		require.Nil(t, err)
		assert.Nil(t, message)

		messages, err := f.store.ListMessages(f.ctx)
		require.Nil(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, seeded[1].ID, messages[0].ID)
	})

	t.Run("second delete fails with not found", func(t *testing.T) {
		f := NewMessageFixture(t)
		defer f.tearDown()
		seeded := seedMessages(f.ctx, f.t, f.store,
			MessageCreateInput{Username: "alice", Text: "hi"})[0]

		require.Nil(t, f.store.DeleteMessage(f.ctx, seeded.ID))
		assert.Equal(t, ErrMessageNotFound, f.store.DeleteMessage(f.ctx, seeded.ID))
	})

	t.Run("unknown id", func(t *testing.T) {
		f := NewMessageFixture(t)
		defer f.tearDown()

		assert.Equal(t, ErrMessageNotFound, f.store.DeleteMessage(f.ctx, 42))
	})
}

func TestListMessages(t *testing.T) {

	t.Run("empty store", func(t *testing.T) {
		f := NewMessageFixture(t)
		defer f.tearDown()

		messages, err := f.store.ListMessages(f.ctx)

		require.Nil(t, err)
		assert.Nil(t, messages)
	})

	t.Run("ordered by creation time then id ascending", func(t *testing.T) {
		f := NewMessageFixture(t)
		defer f.tearDown()

		now := time.Now()
		// Two rows share a creation time to exercise the id tie-break.
		id1 := insertMessageAt(f.ctx, t, f.db, "alice", "first", now.Add(-2*time.Minute))
		id2 := insertMessageAt(f.ctx, t, f.db, "bob", "second", now.Add(-time.Minute))
		id3 := insertMessageAt(f.ctx, t, f.db, "carol", "third", now.Add(-time.Minute))

		messages, err := f.store.ListMessages(f.ctx)

		require.Nil(t, err)
		require.Len(t, messages, 3)
		assert.Equal(t, []int{id1, id2, id3},
			[]int{messages[0].ID, messages[1].ID, messages[2].ID})
	})
}

func TestDeleteMessagesBefore(t *testing.T) {

	t.Run("removes only messages older than the cutoff", func(t *testing.T) {
		f := NewMessageFixture(t)
		defer f.tearDown()

		now := time.Now()
		fresh := insertMessageAt(f.ctx, t, f.db, "alice", "fresh", now.Add(-10*time.Minute))
		insertMessageAt(f.ctx, t, f.db, "bob", "stale", now.Add(-2*time.Hour))
		insertMessageAt(f.ctx, t, f.db, "carol", "staler", now.Add(-5*time.Hour))

		removed, err := f.store.DeleteMessagesBefore(f.ctx, now.Add(-time.Hour))

		require.Nil(t, err)
		assert.Equal(t, 2, removed)

		messages, err := f.store.ListMessages(f.ctx)
		require.Nil(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, fresh, messages[0].ID)
	})

	t.Run("nothing to remove", func(t *testing.T) {
		f := NewMessageFixture(t)
		defer f.tearDown()
		seedMessages(f.ctx, f.t, f.store,
			MessageCreateInput{Username: "alice", Text: "hi"})

		removed, err := f.store.DeleteMessagesBefore(f.ctx, time.Now().Add(-time.Hour))

		require.Nil(t, err)
		assert.Equal(t, 0, removed)
	})
}
