package domain

import (
	"strings"
	"time"
)

// Task is one board item. Status is the only field changed after creation.
type Task struct {
	ID          string
	Title       string
	Status      LaneID
	Category    string
	Author      string
	Comments    int
	Attachments int
	CreatedAt   time.Time
}

type TaskInput struct {
	ID          string
	Title       string
	Status      LaneID
	Category    string
	Author      string
	Comments    int
	Attachments int
}

func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.Author = strings.TrimSpace(in.Author)

	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}
	if !in.Status.Valid() {
		return Task{}, ErrInvalidLane
	}
	if in.Comments < 0 || in.Attachments < 0 {
		return Task{}, ErrInvalidPosition
	}

	return Task{
		ID:          in.ID,
		Title:       in.Title,
		Status:      in.Status,
		Category:    in.Category,
		Author:      in.Author,
		Comments:    in.Comments,
		Attachments: in.Attachments,
		CreatedAt:   now.UTC(),
	}, nil
}

// Validate checks the invariants a stored task must hold. Ids must already be
// trimmed because the store indexes them verbatim.
func (t Task) Validate() error {
	if t.ID == "" || strings.TrimSpace(t.ID) != t.ID {
		return ErrInvalidID
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrInvalidTitle
	}
	if !t.Status.Valid() {
		return ErrInvalidLane
	}
	return nil
}
