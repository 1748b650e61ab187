package core

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// AnonymousName is substituted for the author's username when a message is
// rendered with HideNameAndPfp set.
const AnonymousName = "anonymous"

var (
	// ErrMessageNotFound is returned when an edit or delete targets a
	// message id that does not exist in the store.
	ErrMessageNotFound = errors.New("message not found")
	// ErrEmptyMessage is returned when a message carries neither text nor
	// media, or when an edit would leave the text empty.
	ErrEmptyMessage = errors.New("message must have text or media")
	// ErrEmptyAuthor is returned when a message is created without a username.
	ErrEmptyAuthor = errors.New("message author is required")
)

// Message represents a single chat entry. ID and CreatedAt are assigned by
// the store at insert time and never change for the life of the message.
type Message struct {
	ID             int       `json:"id"`
	Username       string    `json:"username"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	Text           string    `json:"text,omitempty"`
	MediaURL       string    `json:"mediaUrl,omitempty"`
	HideNameAndPfp bool      `json:"hideNameAndPfp"`
	CreatedAt      time.Time `json:"timestamp"`
}

// Anonymized returns a copy of the message with authorship stripped when
// HideNameAndPfp is set. The stored row keeps the real author; the transform
// applies only to what is rendered for general audiences.
func (m Message) Anonymized() Message {
	if !m.HideNameAndPfp {
		return m
	}
	m.Username = AnonymousName
	m.ProfilePicture = ""
	return m
}

// MessageCreateInput represents the input for creating a message.
type MessageCreateInput struct {
	Username       string `json:"username" validate:"required"`
	ProfilePicture string `json:"profilePicture"`
	Text           string `json:"text" validate:"required_without=MediaURL"`
	MediaURL       string `json:"mediaUrl"`
	HideNameAndPfp bool   `json:"hideNameAndPfp"`
}

// Validate checks the create input invariants: a non-empty author, and at
// least one of text or media. Failures are reported as the sentinel errors
// rather than raw validation errors.
func (in *MessageCreateInput) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	for _, fe := range fieldErrs {
		if fe.StructField() == "Username" {
			return ErrEmptyAuthor
		}
	}
	return ErrEmptyMessage
}

type MessageStore interface {

	// CreateMessage inserts a message row and returns the canonical record
	// with the store-assigned id and creation time.
	CreateMessage(ctx context.Context, input MessageCreateInput) (*Message, error)

	// UpdateMessageText mutates only the text of the message with the given
	// id and returns the updated record. It returns ErrMessageNotFound if no
	// such row exists. The update is a single atomic statement keyed by id.
	UpdateMessageText(ctx context.Context, id int, text string) (*Message, error)

	// DeleteMessage removes the message with the given id. It returns
	// ErrMessageNotFound if no such row exists.
	DeleteMessage(ctx context.Context, id int) error

	// GetMessage returns the message with the given id, or nil if it does
	// not exist.
	GetMessage(ctx context.Context, id int) (*Message, error)

	// ListMessages returns all messages ordered by creation time ascending,
	// ties broken by id ascending.
	ListMessages(ctx context.Context) ([]Message, error)

	// DeleteMessagesBefore removes every message created before the cutoff
	// and returns the number of rows removed.
	DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int, error)
}
