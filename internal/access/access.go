// Package access decides whether an authenticated user may act on a task.
//
// Every rule here is a pure function of its arguments. Callers load the
// actor and the task, then ask for a decision; nothing in this package
// touches storage.
package access

import (
	"errors"

	"github.com/adanyl0v/task-tracker/internal/models"
)

var (
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("access forbidden")
)

type Action int

const (
	ActionRead Action = iota
	ActionWrite
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionRead:
		return "read"
	case ActionWrite:
		return "write"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Authorize applies the owner-or-admin rule. The rule is the same for
// every action; action is accepted so call sites read the same way and
// so the decision can be logged with it.
func Authorize(actor *models.User, task *models.Task, action Action) Decision {
	if actor == nil || task == nil {
		return Deny
	}
	if actor.IsAdmin() {
		return Allow
	}
	if actor.ID == task.OwnerID {
		return Allow
	}
	return Deny
}

// AuthorizeAdmin gates administrative endpoints regardless of identity.
func AuthorizeAdmin(actor *models.User) Decision {
	if actor.IsAdmin() {
		return Allow
	}
	return Deny
}

// Check turns a decision into an error. A nil task yields ErrNotFound
// before ownership is looked at, so a missing task never reports
// ErrForbidden.
func Check(actor *models.User, task *models.Task, action Action) error {
	if task == nil {
		return ErrNotFound
	}
	if Authorize(actor, task, action) == Deny {
		return ErrForbidden
	}
	return nil
}

func CheckAdmin(actor *models.User) error {
	if AuthorizeAdmin(actor) == Deny {
		return ErrForbidden
	}
	return nil
}
