package postgres

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/task-tracker/internal/models"
	"github.com/adanyl0v/task-tracker/internal/query"
	"github.com/adanyl0v/task-tracker/internal/storage"
)

//go:embed schema.sql
var schema string

type Store struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func New(logger zerolog.Logger, pgPool *pgxpool.Pool) *Store {
	return &Store{
		logger: logger,
		pgPool: pgPool,
	}
}

// Migrate creates the tables and indexes if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pgPool.Exec(ctx, schema)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to apply schema")
		return err
	}
	s.logger.Info().Msg("applied schema")
	return nil
}

func (s *Store) Close() error {
	s.pgPool.Close()
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	user.CreatedAt = truncate(user.CreatedAt)

	const insertUserQuery = `
INSERT INTO users (username,
                   password_hash,
                   role,
                   created_at)
VALUES ($1, $2, $3, $4)
RETURNING id
`
	err := s.pgPool.QueryRow(
		ctx,
		insertUserQuery,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			s.logger.Debug().
				Str("username", user.Username).
				Msg("username already exists")
			return storage.ErrUserAlreadyExists
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return err
	}
	s.logger.Debug().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("inserted user")
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	const selectUserByIDQuery = `
SELECT id,
       username,
       password_hash,
       role,
       created_at
FROM users
WHERE id = $1
`
	return s.getUser(ctx, selectUserByIDQuery, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const selectUserByUsernameQuery = `
SELECT id,
       username,
       password_hash,
       role,
       created_at
FROM users
WHERE username = $1
`
	return s.getUser(ctx, selectUserByUsernameQuery, username)
}

func (s *Store) getUser(ctx context.Context, sql string, arg any) (*models.User, error) {
	user := new(models.User)
	err := s.pgPool.QueryRow(ctx, sql, arg).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Msg("failed to select user")
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	const selectUsersQuery = `
SELECT id,
       username,
       password_hash,
       role,
       created_at
FROM users
ORDER BY id
`
	rows, err := s.pgPool.Query(ctx, selectUsersQuery)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select users")
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user := new(models.User)
		err = rows.Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.Role,
			&user.CreatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan user")
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(users)).
		Msg("selected users")
	return users, nil
}

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	task.CreatedAt = truncate(task.CreatedAt)

	const insertTaskQuery = `
WITH inserted AS (
    INSERT INTO tasks (name,
                       status,
                       owner_id,
                       created_at)
    VALUES ($1, $2, $3, $4)
    RETURNING id, owner_id
)
SELECT inserted.id,
       u.username
FROM inserted
JOIN users u ON u.id = inserted.owner_id
`
	err := s.pgPool.QueryRow(
		ctx,
		insertTaskQuery,
		task.Name,
		task.Status,
		task.OwnerID,
		task.CreatedAt,
	).Scan(
		&task.ID,
		&task.OwnerUsername,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("owner_id", task.OwnerID).
			Msg("failed to insert task")
		return err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("inserted task")
	return nil
}

func (s *Store) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	return getTask(ctx, s.pgPool, id, false)
}

func (s *Store) ListTasks(ctx context.Context, plan query.Plan) ([]*models.Task, error) {
	sql, args := plan.Build(query.Postgres)

	rows, err := s.pgPool.Query(ctx, sql, args...)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0, plan.Limit)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(tasks)).
		Int("limit", plan.Limit).
		Int("offset", plan.Offset).
		Msg("selected tasks")
	return tasks, nil
}

func (s *Store) UpdateTask(ctx context.Context, id int64, fn storage.TaskMutator) (*models.Task, error) {
	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	task, err := getTask(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}

	err = fn(task)
	if err != nil {
		return nil, err
	}

	const updateTaskQuery = `
UPDATE tasks
SET name = $1,
    status = $2
WHERE id = $3
`
	_, err = tx.Exec(
		ctx,
		updateTaskQuery,
		task.Name,
		task.Status,
		task.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("updated task")
	return task, nil
}

func (s *Store) DeleteTask(ctx context.Context, id int64, fn storage.TaskMutator) error {
	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	task, err := getTask(ctx, tx, id, true)
	if err != nil {
		return err
	}

	err = fn(task)
	if err != nil {
		return err
	}

	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1
`
	_, err = tx.Exec(ctx, deleteTaskQuery, task.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to delete task")
		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("deleted task")
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getTask(ctx context.Context, q querier, id int64, forUpdate bool) (*models.Task, error) {
	sql := `
SELECT ` + query.TaskColumns + `
FROM tasks t
JOIN users u ON u.id = t.owner_id
WHERE t.id = $1
`
	if forUpdate {
		sql += "FOR UPDATE OF t\n"
	}

	task, err := scanTask(q.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	task := new(models.Task)
	err := row.Scan(
		&task.ID,
		&task.Name,
		&task.Status,
		&task.OwnerID,
		&task.CreatedAt,
		&task.OwnerUsername,
	)
	if err != nil {
		return nil, err
	}
	task.CreatedAt = task.CreatedAt.UTC()
	return task, nil
}

// truncate drops the precision Postgres cannot store, so the value the
// caller keeps equals the value read back later.
func truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
