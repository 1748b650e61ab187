package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// MessageManager sequences message create/edit/delete operations against the
// store and hands every committed change to the broadcaster. It holds no
// state across requests; each operation is a fresh round trip to the store.
//
// Broadcasting happens strictly after the store acknowledges the write. A
// fan-out failure never rolls back a committed write.
type MessageManager struct {
	store       MessageStore
	broadcaster Broadcaster
	logger      *slog.Logger
}

func NewMessageManager(store MessageStore, broadcaster Broadcaster, logger *slog.Logger) *MessageManager {
	return &MessageManager{
		store:       store,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

func (m *MessageManager) CreateMessage(ctx context.Context, input MessageCreateInput) (*Message, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	message, err := m.store.CreateMessage(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("CreateMessage: %w", err)
	}

	m.broadcaster.Publish(NewCreateEvent(message))
	return message, nil
}

func (m *MessageManager) EditMessage(ctx context.Context, id int, text string) (*Message, error) {
	if text == "" {
		return nil, ErrEmptyMessage
	}

	message, err := m.store.UpdateMessageText(ctx, id, text)
	if err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("UpdateMessageText: %w", err)
	}

	m.broadcaster.Publish(NewUpdateEvent(message))
	return message, nil
}

func (m *MessageManager) DeleteMessage(ctx context.Context, id int) error {
	if err := m.store.DeleteMessage(ctx, id); err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			return err
		}
		return fmt.Errorf("DeleteMessage: %w", err)
	}

	m.broadcaster.Publish(NewDeleteEvent(id))
	return nil
}

// ListMessages returns all messages oldest first, with authorship stripped
// from messages that asked to be rendered anonymously.
func (m *MessageManager) ListMessages(ctx context.Context) ([]Message, error) {
	messages, err := m.store.ListMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListMessages: %w", err)
	}
	for i := range messages {
		messages[i] = messages[i].Anonymized()
	}
	return messages, nil
}
