package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ruslano69/tdtp-tds/pkg/adapters"
	"github.com/ruslano69/tdtp-tds/pkg/adapters/base"
)

// AdapterType - имя адаптера в фабрике
const AdapterType = "postgres"

// Compile-time check: Adapter должен реализовывать интерфейс adapters.Adapter
var _ adapters.Adapter = (*Adapter)(nil)

// Регистрация адаптера в глобальной фабрике
func init() {
	adapters.Register(AdapterType, func() adapters.Adapter {
		return &Adapter{}
	})
}

// Adapter представляет адаптер для работы с PostgreSQL через пул pgx
type Adapter struct {
	pool   *pgxpool.Pool
	schema string // public, custom, etc.
	types  *pgtype.Map
	cfg    adapters.Config
}

// Connect устанавливает подключение к PostgreSQL
func (a *Adapter) Connect(ctx context.Context, cfg adapters.Config) error {
	config, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to parse connection string: %w", err)
	}

	if cfg.MaxConns > 0 {
		config.MaxConns = int32(cfg.MaxConns)
	} else {
		config.MaxConns = 10 // default
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.pool = pool
	a.cfg = cfg
	a.types = pgtype.NewMap()
	a.schema = cfg.Schema
	if a.schema == "" {
		a.schema = "public"
	}
	return nil
}

// Close закрывает connection pool
func (a *Adapter) Close(ctx context.Context) error {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	return nil
}

// Ping проверяет доступность БД
func (a *Adapter) Ping(ctx context.Context) error {
	if a.pool == nil {
		return fmt.Errorf("adapter not connected")
	}
	return a.pool.Ping(ctx)
}

// GetDatabaseType возвращает тип СУБД
func (a *Adapter) GetDatabaseType() string {
	return AdapterType
}

// Pool возвращает *pgxpool.Pool для прямого доступа
func (a *Adapter) Pool() *pgxpool.Pool {
	return a.pool
}

// Query выполняет запрос. Строки читаются из pgx по одной при Fetch.
func (a *Adapter) Query(ctx context.Context, query string, args ...any) (adapters.Result, error) {
	if a.pool == nil {
		return nil, fmt.Errorf("adapter not connected")
	}

	cancel := context.CancelFunc(func() {})
	if a.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
	}

	rows, err := a.pool.Query(ctx, query, args...)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	mapper := adapters.TypeMapperFunc(FieldFromColumn)
	fds := rows.FieldDescriptions()
	columns := make([]base.Column, len(fds))
	for i, fd := range fds {
		columns[i] = base.BuildColumn(columnInfo(a.types, fd), mapper, columnHook)
	}

	res := base.NewResult(&pgRows{rows: rows}, columns)
	res.OnClose(cancel)
	return res, nil
}

// pgRows адаптирует pgx.Rows к base.Rows
type pgRows struct {
	rows pgx.Rows
}

func (r *pgRows) Next() bool             { return r.rows.Next() }
func (r *pgRows) Values() ([]any, error) { return r.rows.Values() }
func (r *pgRows) Err() error             { return r.rows.Err() }
func (r *pgRows) Close() error {
	r.rows.Close()
	return nil
}

// TableExists проверяет существование таблицы в текущей схеме
func (a *Adapter) TableExists(ctx context.Context, tableName string) (bool, error) {
	if a.pool == nil {
		return false, fmt.Errorf("adapter not connected")
	}
	var exists bool
	err := a.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)`, a.schema, tableName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check table existence: %w", err)
	}
	return exists, nil
}

// GetTableNames возвращает список таблиц текущей схемы
func (a *Adapter) GetTableNames(ctx context.Context) ([]string, error) {
	if a.pool == nil {
		return nil, fmt.Errorf("adapter not connected")
	}
	rows, err := a.pool.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`, a.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan table name: %w", err)
	}
	return names, nil
}

// GetDatabaseVersion возвращает версию PostgreSQL
func (a *Adapter) GetDatabaseVersion(ctx context.Context) (string, error) {
	if a.pool == nil {
		return "", fmt.Errorf("adapter not connected")
	}
	var version string
	if err := a.pool.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}
