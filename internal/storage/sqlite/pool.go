package sqlite

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// PoolConfig holds the parameters for opening a connection pool.
type PoolConfig struct {
	// Path is the database file. It is created if it does not exist.
	Path string

	// PoolSize defaults to max(runtime.NumCPU(), 4) when not positive.
	PoolSize int

	// OnConnect runs once per connection after the pragmas are applied.
	OnConnect func(conn *sqlite.Conn) error
}

// Pool is a fixed-size set of SQLite connections. Pool is safe for
// concurrent use; a connection is not, so every goroutine takes its own
// and puts it back when done.
type Pool struct {
	inner  *sqlitex.Pool
	logger zerolog.Logger
	path   string
}

func OpenPool(logger zerolog.Logger, cfg PoolConfig) (*Pool, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = max(runtime.NumCPU(), 4)
	}

	inner, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize: poolSize,
		PrepareConn: func(conn *sqlite.Conn) error {
			return prepareConn(conn, cfg.OnConnect)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening %s: %w", cfg.Path, err)
	}
	logger.Info().
		Str("path", cfg.Path).
		Int("pool_size", poolSize).
		Msg("opened sqlite pool")

	return &Pool{
		inner:  inner,
		logger: logger,
		path:   cfg.Path,
	}, nil
}

// Take blocks until a connection is free or ctx is done. The caller
// must Put the connection back.
func (p *Pool) Take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.inner.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite: take: %w", err)
	}
	return conn, nil
}

func (p *Pool) Put(conn *sqlite.Conn) {
	p.inner.Put(conn)
}

func (p *Pool) Close() error {
	err := p.inner.Close()
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("path", p.path).
			Msg("failed to close sqlite pool")
		return fmt.Errorf("sqlite: closing %s: %w", p.path, err)
	}
	p.logger.Info().
		Str("path", p.path).
		Msg("closed sqlite pool")
	return nil
}

func prepareConn(conn *sqlite.Conn, onConnect func(*sqlite.Conn) error) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		err := sqlitex.ExecuteTransient(conn, pragma, nil)
		if err != nil {
			return fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	if onConnect != nil {
		err := onConnect(conn)
		if err != nil {
			return fmt.Errorf("sqlite: on connect: %w", err)
		}
	}
	return nil
}
