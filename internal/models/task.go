package models

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in progress"
	StatusCompleted  = "completed"
)

const (
	TaskNameMinLength = 5
	TaskNameMaxLength = 50
)

type Task struct {
	ID            int64
	Name          string
	Status        string
	OwnerID       int64
	OwnerUsername string
	CreatedAt     time.Time
}

// TaskPatch holds the fields of a partial task update.
// A nil field is left unchanged.
type TaskPatch struct {
	Name   *string
	Status *string
}

func (p TaskPatch) IsEmpty() bool {
	return p.Name == nil && p.Status == nil
}

func (p TaskPatch) Validate() error {
	if p.Name != nil {
		if err := ValidateTaskName(*p.Name); err != nil {
			return err
		}
	}
	if p.Status != nil {
		if err := ValidateTaskStatus(*p.Status); err != nil {
			return err
		}
	}
	return nil
}

func (p TaskPatch) Apply(task *Task) {
	if p.Name != nil {
		task.Name = *p.Name
	}
	if p.Status != nil {
		task.Status = *p.Status
	}
}

func IsValidTaskStatus(status string) bool {
	switch status {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

func ValidateTaskStatus(status string) error {
	if !IsValidTaskStatus(status) {
		return fmt.Errorf("%w: status must be one of %q, %q, %q",
			ErrInvalidTaskStatus, StatusPending, StatusInProgress, StatusCompleted)
	}
	return nil
}

// ValidateTaskName checks the length bounds (in characters) and that
// the name starts with an ASCII letter.
func ValidateTaskName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < TaskNameMinLength || n > TaskNameMaxLength {
		return fmt.Errorf("%w: length must be between %d and %d characters",
			ErrInvalidTaskName, TaskNameMinLength, TaskNameMaxLength)
	}
	if !isASCIILetter(name[0]) {
		return fmt.Errorf("%w: must start with a letter", ErrInvalidTaskName)
	}
	return nil
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
