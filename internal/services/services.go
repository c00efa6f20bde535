package services

import (
	"context"
	"errors"
	"time"

	"github.com/adanyl0v/task-tracker/internal/models"
	"github.com/adanyl0v/task-tracker/internal/query"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("could not validate credentials")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTaskNotFound       = errors.New("task not found")
	ErrForbidden          = errors.New("not enough permissions")
)

type AuthService interface {
	// Register validates the params and creates a user with a hashed
	// password. Validation runs before the uniqueness check.
	//
	// It returns an error wrapping ErrValidation for malformed input
	// or ErrUserAlreadyExists if the username is taken.
	Register(ctx context.Context, params RegisterParams) (*models.User, error)

	// Login verifies the credentials and issues an access token.
	//
	// It returns ErrInvalidCredentials both when the user doesn't
	// exist and when the password doesn't match.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Authenticate verifies the access token and loads its subject.
	//
	// It returns an error wrapping ErrInvalidToken if the token is
	// malformed, expired or its subject no longer exists.
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

type TokenService interface {
	// Issue signs a token for the username that expires after the
	// configured TTL.
	Issue(username string) (token string, expiresAt time.Time, err error)

	// Verify checks the signature, issuer and expiry of the token and
	// returns its claims. Expired tokens yield an error wrapping both
	// ErrInvalidToken and ErrTokenExpired.
	Verify(token string) (*models.Session, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) (bool, error)
}

type TaskService interface {
	CreateTask(ctx context.Context, actor *models.User, params CreateTaskParams) (*models.Task, error)

	// GetTask returns ErrTaskNotFound if the task doesn't exist and
	// ErrForbidden if it exists but the actor may not read it.
	GetTask(ctx context.Context, actor *models.User, taskID int64) (*models.Task, error)

	// ListTasks lists every task for admins and the actor's own tasks
	// for everyone else.
	ListTasks(ctx context.Context, actor *models.User, filter query.TaskFilter) ([]*models.Task, error)

	// ListOwnTasks lists the actor's own tasks regardless of role.
	ListOwnTasks(ctx context.Context, actor *models.User, filter query.TaskFilter) ([]*models.Task, error)

	UpdateTask(ctx context.Context, actor *models.User, taskID int64, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, actor *models.User, taskID int64) error
}

type UserService interface {
	// ListUsers returns ErrForbidden unless the actor is an admin.
	ListUsers(ctx context.Context, actor *models.User) ([]*models.User, error)

	// GetUser returns ErrUserNotFound if no user has the id.
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

type RegisterParams struct {
	Username string
	Password string
	Role     string
}

type LoginParams struct {
	Username string
	Password string
}

type LoginResult struct {
	User                 *models.User
	AccessToken          string
	AccessTokenExpiresAt time.Time
}

type CreateTaskParams struct {
	Name   string
	Status string
}
