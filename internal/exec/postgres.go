package exec

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sqlporter/sqlporter/internal/config"
)

// PostgresExecutor applies statements to PostgreSQL using pgx.
type PostgresExecutor struct {
	cfg  config.ExecutionConfig
	pool *pgxpool.Pool
}

func NewPostgresExecutor(cfg config.ExecutionConfig) *PostgresExecutor {
	return &PostgresExecutor{cfg: cfg}
}

func (e *PostgresExecutor) Connect(ctx context.Context) error {
	sslmode := "disable"
	if e.cfg.SSL {
		sslmode = "require"
	}
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(e.cfg.Username), url.QueryEscape(e.cfg.Password),
		e.cfg.Host, e.cfg.Port, e.cfg.Database, sslmode)

	pcfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return fmt.Errorf("parsing connection string: %w", err)
	}
	pcfg.MaxConns = 1 // DDL is applied serially
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("pinging PostgreSQL: %w", err)
	}
	e.pool = pool
	return nil
}

func (e *PostgresExecutor) Execute(ctx context.Context, stmt string) error {
	if _, err := e.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("executing statement: %w", err)
	}
	return nil
}

func (e *PostgresExecutor) Close() error {
	if e.pool != nil {
		e.pool.Close()
	}
	return nil
}
