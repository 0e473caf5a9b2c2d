package exec

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	// Oracle driver
	_ "github.com/sijms/go-ora/v2"

	"github.com/sqlporter/sqlporter/internal/config"
)

// OracleExecutor applies statements to Oracle using go-ora.
type OracleExecutor struct {
	cfg config.ExecutionConfig
	db  *sql.DB
}

func NewOracleExecutor(cfg config.ExecutionConfig) *OracleExecutor {
	return &OracleExecutor{cfg: cfg}
}

func (e *OracleExecutor) Connect(ctx context.Context) error {
	dsn := fmt.Sprintf("oracle://%s:%s@%s:%d/%s",
		url.QueryEscape(e.cfg.Username), url.QueryEscape(e.cfg.Password),
		e.cfg.Host, e.cfg.Port, e.cfg.Database)
	db, err := sql.Open("oracle", dsn)
	if err != nil {
		return fmt.Errorf("opening Oracle connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("pinging Oracle: %w", err)
	}
	e.db = db
	return nil
}

func (e *OracleExecutor) Execute(ctx context.Context, stmt string) error {
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("executing statement: %w", err)
	}
	return nil
}

func (e *OracleExecutor) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}
