package sqlite

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/adanyl0v/task-tracker/internal/models"
	"github.com/adanyl0v/task-tracker/internal/query"
	"github.com/adanyl0v/task-tracker/internal/storage"
)

//go:embed schema.sql
var schema string

// Store keeps users and tasks in a SQLite database. Timestamps are
// stored as Unix nanoseconds so ordering by created_at is exact.
type Store struct {
	logger zerolog.Logger
	pool   *Pool
}

type Config struct {
	Path     string
	PoolSize int
}

// Open opens the database at cfg.Path and applies the schema on every
// new connection.
func Open(logger zerolog.Logger, cfg Config) (*Store, error) {
	pool, err := OpenPool(logger, PoolConfig{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, err
	}

	return &Store{
		logger: logger,
		pool:   pool,
	}, nil
}

// Migrate forces a connection to open so schema errors surface at
// startup rather than on the first request.
func (s *Store) Migrate(ctx context.Context) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to apply schema")
		return err
	}
	s.pool.Put(conn)
	s.logger.Info().Msg("applied schema")
	return nil
}

func (s *Store) Close() error {
	return s.pool.Close()
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	const insertUserQuery = `
INSERT INTO users (username,
                   password_hash,
                   role,
                   created_at)
VALUES (?1, ?2, ?3, ?4)
`
	err = sqlitex.Execute(conn, insertUserQuery, &sqlitex.ExecOptions{
		Args: []any{
			user.Username,
			user.PasswordHash,
			user.Role,
			user.CreatedAt.UnixNano(),
		},
	})
	if err != nil {
		if sqlite.ErrCode(err) == sqlite.ResultConstraintUnique {
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
	user.ID = conn.LastInsertRowID()
	user.CreatedAt = fromUnixNano(user.CreatedAt.UnixNano())

	s.logger.Debug().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("inserted user")
	return nil
}

const selectUserColumns = `
SELECT id,
       username,
       password_hash,
       role,
       created_at
FROM users
`

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, selectUserColumns+"WHERE id = ?1", id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, selectUserColumns+"WHERE username = ?1", username)
}

func (s *Store) getUser(ctx context.Context, sql string, arg any) (*models.User, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var user *models.User
	err = sqlitex.Execute(conn, sql, &sqlitex.ExecOptions{
		Args: []any{arg},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			user = scanUser(stmt)
			return nil
		},
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select user")
		return nil, err
	}
	if user == nil {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	users := make([]*models.User, 0)
	err = sqlitex.Execute(conn, selectUserColumns+"ORDER BY id", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			users = append(users, scanUser(stmt))
			return nil
		},
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select users")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(users)).
		Msg("selected users")
	return users, nil
}

func (s *Store) CreateTask(ctx context.Context, task *models.Task) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return err
	}
	defer endFn(&err)

	const insertTaskQuery = `
INSERT INTO tasks (name,
                   status,
                   owner_id,
                   created_at)
VALUES (?1, ?2, ?3, ?4)
`
	err = sqlitex.Execute(conn, insertTaskQuery, &sqlitex.ExecOptions{
		Args: []any{
			task.Name,
			task.Status,
			task.OwnerID,
			task.CreatedAt.UnixNano(),
		},
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("owner_id", task.OwnerID).
			Msg("failed to insert task")
		return err
	}

	inserted, err := getTask(conn, conn.LastInsertRowID())
	if err != nil {
		return err
	}
	*task = *inserted

	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("inserted task")
	return nil
}

func (s *Store) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	return getTask(conn, id)
}

func (s *Store) ListTasks(ctx context.Context, plan query.Plan) ([]*models.Task, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	sql, args := plan.Build(query.SQLite)

	tasks := make([]*models.Task, 0)
	err = sqlitex.Execute(conn, sql, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			tasks = append(tasks, scanTask(stmt))
			return nil
		},
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(tasks)).
		Int("limit", plan.Limit).
		Int("offset", plan.Offset).
		Msg("selected tasks")
	return tasks, nil
}

func (s *Store) UpdateTask(ctx context.Context, id int64, fn storage.TaskMutator) (task *models.Task, err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return nil, err
	}
	defer endFn(&err)

	task, err = getTask(conn, id)
	if err != nil {
		return nil, err
	}

	err = fn(task)
	if err != nil {
		return nil, err
	}

	const updateTaskQuery = `
UPDATE tasks
SET name = ?1,
    status = ?2
WHERE id = ?3
`
	err = sqlitex.Execute(conn, updateTaskQuery, &sqlitex.ExecOptions{
		Args: []any{task.Name, task.Status, task.ID},
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("updated task")
	return task, nil
}

func (s *Store) DeleteTask(ctx context.Context, id int64, fn storage.TaskMutator) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return err
	}
	defer endFn(&err)

	task, err := getTask(conn, id)
	if err != nil {
		return err
	}

	err = fn(task)
	if err != nil {
		return err
	}

	err = sqlitex.Execute(conn, "DELETE FROM tasks WHERE id = ?1", &sqlitex.ExecOptions{
		Args: []any{task.ID},
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to delete task")
		return err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("deleted task")
	return nil
}

func getTask(conn *sqlite.Conn, id int64) (*models.Task, error) {
	const selectTaskQuery = `
SELECT ` + query.TaskColumns + `
FROM tasks t
JOIN users u ON u.id = t.owner_id
WHERE t.id = ?1
`
	var task *models.Task
	err := sqlitex.Execute(conn, selectTaskQuery, &sqlitex.ExecOptions{
		Args: []any{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			task = scanTask(stmt)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to select task: %w", err)
	}
	if task == nil {
		return nil, storage.ErrTaskNotFound
	}
	return task, nil
}

func scanUser(stmt *sqlite.Stmt) *models.User {
	return &models.User{
		ID:           stmt.ColumnInt64(0),
		Username:     stmt.ColumnText(1),
		PasswordHash: stmt.ColumnText(2),
		Role:         stmt.ColumnText(3),
		CreatedAt:    fromUnixNano(stmt.ColumnInt64(4)),
	}
}

func scanTask(stmt *sqlite.Stmt) *models.Task {
	return &models.Task{
		ID:            stmt.ColumnInt64(0),
		Name:          stmt.ColumnText(1),
		Status:        stmt.ColumnText(2),
		OwnerID:       stmt.ColumnInt64(3),
		CreatedAt:     fromUnixNano(stmt.ColumnInt64(4)),
		OwnerUsername: stmt.ColumnText(5),
	}
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
