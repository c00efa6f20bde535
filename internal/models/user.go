package models

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	UsernameMinLength = 3
	UsernameMaxLength = 50
	PasswordMinLength = 6
	PasswordMaxLength = 100
)

var (
	ErrInvalidUsername   = errors.New("invalid username")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidTaskName   = errors.New("invalid task name")
	ErrInvalidTaskStatus = errors.New("invalid task status")
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

func ValidateRole(role string) error {
	if !IsValidRole(role) {
		return fmt.Errorf("%w: role must be %q or %q", ErrInvalidRole, RoleUser, RoleAdmin)
	}
	return nil
}

// ValidateUsername allows 3 to 50 ASCII letters, digits and underscores.
func ValidateUsername(username string) error {
	if len(username) < UsernameMinLength || len(username) > UsernameMaxLength {
		return fmt.Errorf("%w: length must be between %d and %d characters",
			ErrInvalidUsername, UsernameMinLength, UsernameMaxLength)
	}
	for i := 0; i < len(username); i++ {
		b := username[i]
		if !isASCIILetter(b) && !(b >= '0' && b <= '9') && b != '_' {
			return fmt.Errorf("%w: only letters, digits and underscores are allowed", ErrInvalidUsername)
		}
	}
	return nil
}

func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < PasswordMinLength || n > PasswordMaxLength {
		return fmt.Errorf("%w: length must be between %d and %d characters",
			ErrInvalidPassword, PasswordMinLength, PasswordMaxLength)
	}
	return nil
}
