package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxTitleLen is the hard cap on article titles.
const MaxTitleLen = 200

// ErrInvalid marks input validation failures. Wrapped errors name the
// offending field so their messages can be surfaced to the client as-is.
var ErrInvalid = errors.New("invalid article")

// Article is the persisted content entity. Content is an opaque rich-text
// HTML string produced by the editing client; the server never parses it.
type Article struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New validates the inputs and builds a fully-formed Article. Both
// timestamps carry the same instant, so a fresh article always satisfies
// CreatedAt == UpdatedAt.
func New(title, content string) (*Article, error) {
	if err := Validate(title, content); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Article{
		ID:        uuid.New(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Apply replaces the mutable fields and refreshes UpdatedAt. ID and
// CreatedAt never change after creation.
func (a *Article) Apply(title, content string, now time.Time) error {
	if err := Validate(title, content); err != nil {
		return err
	}
	a.Title = title
	a.Content = content
	a.UpdatedAt = now.UTC()
	return nil
}

// Validate enforces the article schema: both fields non-empty after
// trimming, title no longer than MaxTitleLen characters.
func Validate(title, content string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if len([]rune(title)) > MaxTitleLen {
		return fmt.Errorf("%w: title cannot be more than %d characters", ErrInvalid, MaxTitleLen)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalid)
	}
	return nil
}
