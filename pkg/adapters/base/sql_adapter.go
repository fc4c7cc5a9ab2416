package base

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ruslano69/tdtp-tds/pkg/adapters"
)

// SQLAdapter - общая часть адаптеров поверх database/sql.
// Конкретный адаптер встраивает SQLAdapter и задает Mapper и Hook.
type SQLAdapter struct {
	DB      *sql.DB
	Mapper  adapters.TypeMapper
	Hook    ColumnHook
	Timeout time.Duration
}

// OpenDB открывает пул подключений и проверяет доступность БД
func OpenDB(ctx context.Context, driver string, cfg adapters.Config) (*sql.DB, error) {
	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Close закрывает пул подключений
func (a *SQLAdapter) Close(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	err := a.DB.Close()
	a.DB = nil
	return err
}

// Ping проверяет доступность БД
func (a *SQLAdapter) Ping(ctx context.Context) error {
	if a.DB == nil {
		return fmt.Errorf("adapter not connected")
	}
	return a.DB.PingContext(ctx)
}

// Query выполняет запрос. Таймаут действует до закрытия результата.
func (a *SQLAdapter) Query(ctx context.Context, query string, args ...any) (adapters.Result, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("adapter not connected")
	}

	cancel := context.CancelFunc(func() {})
	if a.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
	}

	rows, err := a.DB.QueryContext(ctx, query, args...)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	res, err := NewSQLResult(rows, a.Mapper, a.Hook)
	if err != nil {
		rows.Close()
		cancel()
		return nil, err
	}
	res.OnClose(cancel)
	return res, nil
}

// QueryStrings возвращает первую колонку всех строк запроса
func (a *SQLAdapter) QueryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("adapter not connected")
	}
	rows, err := a.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// QueryExists проверяет, что запрос COUNT(*) вернул больше нуля
func (a *SQLAdapter) QueryExists(ctx context.Context, query string, args ...any) (bool, error) {
	if a.DB == nil {
		return false, fmt.Errorf("adapter not connected")
	}
	var n int
	if err := a.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return n > 0, nil
}

// QueryString возвращает единственное значение запроса
func (a *SQLAdapter) QueryString(ctx context.Context, query string, args ...any) (string, error) {
	if a.DB == nil {
		return "", fmt.Errorf("adapter not connected")
	}
	var s string
	if err := a.DB.QueryRowContext(ctx, query, args...).Scan(&s); err != nil {
		return "", err
	}
	return s, nil
}
