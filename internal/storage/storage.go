// Package storage defines the persistence contract for users and tasks.
//
// Two implementations exist: postgres (pgx) for deployments and sqlite
// (zombiezen) for local runs and tests. Both run every read-modify-write
// inside a single transaction and report missing rows and unique key
// violations with the sentinel errors below.
package storage

import (
	"context"
	"errors"

	"github.com/adanyl0v/task-tracker/internal/models"
	"github.com/adanyl0v/task-tracker/internal/query"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrTaskNotFound      = errors.New("task not found")
)

type Store interface {
	UserStore
	TaskStore

	// Migrate applies the schema. It is idempotent.
	Migrate(ctx context.Context) error
	Close() error
}

type UserStore interface {
	// CreateUser inserts the user and sets its ID. It returns
	// ErrUserAlreadyExists if the username is taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// TaskMutator inspects a task loaded inside a transaction. Returning an
// error aborts the transaction and the error is returned to the caller
// unchanged.
type TaskMutator func(task *models.Task) error

type TaskStore interface {
	// CreateTask inserts the task and sets its ID and OwnerUsername.
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	ListTasks(ctx context.Context, plan query.Plan) ([]*models.Task, error)

	// UpdateTask loads the task, passes it to fn and persists the name
	// and status fn left on it, all in one transaction.
	UpdateTask(ctx context.Context, id int64, fn TaskMutator) (*models.Task, error)

	// DeleteTask loads the task, passes it to fn and deletes it if fn
	// returns nil, all in one transaction.
	DeleteTask(ctx context.Context, id int64, fn TaskMutator) error
}
