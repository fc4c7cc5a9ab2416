package sqlite

import (
	"context"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ruslano69/tdtp-tds/pkg/adapters"
	"github.com/ruslano69/tdtp-tds/pkg/adapters/base"
)

const driverSqlite = "sqlite"

// AdapterType - имя адаптера в фабрике
const AdapterType = "sqlite"

// Compile-time check: Adapter должен реализовывать интерфейс adapters.Adapter
var _ adapters.Adapter = (*Adapter)(nil)

// Регистрация адаптера в глобальной фабрике
func init() {
	adapters.Register(AdapterType, func() adapters.Adapter {
		return &Adapter{}
	})
}

// Adapter представляет адаптер для работы с SQLite (modernc.org/sqlite, без cgo)
type Adapter struct {
	base.SQLAdapter
}

// Connect устанавливает подключение к SQLite
func (a *Adapter) Connect(ctx context.Context, cfg adapters.Config) error {
	// in-memory БД существует только в пределах одного подключения
	if isMemoryDSN(cfg.DSN) {
		cfg.MaxConns = 1
	}

	db, err := base.OpenDB(ctx, driverSqlite, cfg)
	if err != nil {
		return err
	}

	a.DB = db
	a.Mapper = adapters.TypeMapperFunc(FieldFromColumn)
	a.Timeout = cfg.Timeout

	if err := a.applyPragmas(ctx); err != nil {
		db.Close()
		a.DB = nil
		return fmt.Errorf("failed to apply PRAGMA settings: %w", err)
	}
	return nil
}

// NewAdapter создает и подключает адаптер к файлу БД
func NewAdapter(ctx context.Context, filePath string) (*Adapter, error) {
	a := &Adapter{}
	if err := a.Connect(ctx, adapters.Config{Type: AdapterType, DSN: filePath}); err != nil {
		return nil, err
	}
	return a, nil
}

// GetDatabaseType возвращает тип СУБД
func (a *Adapter) GetDatabaseType() string {
	return AdapterType
}

// GetDatabaseVersion возвращает версию SQLite
func (a *Adapter) GetDatabaseVersion(ctx context.Context) (string, error) {
	version, err := a.QueryString(ctx, "SELECT sqlite_version()")
	if err != nil {
		return "", fmt.Errorf("failed to get version: %w", err)
	}
	return "SQLite " + version, nil
}

// TableExists проверяет существование таблицы
func (a *Adapter) TableExists(ctx context.Context, tableName string) (bool, error) {
	return a.QueryExists(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", tableName)
}

// GetTableNames возвращает список пользовательских таблиц
func (a *Adapter) GetTableNames(ctx context.Context) ([]string, error) {
	names, err := a.QueryStrings(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return names, nil
}

// applyPragmas применяет настройки для чтения больших результатов
func (a *Adapter) applyPragmas(ctx context.Context) error {
	pragmas := []string{
		// 64MB кэша страниц
		"PRAGMA cache_size = -64000",
		// временные таблицы сортировки в памяти
		"PRAGMA temp_store = MEMORY",
	}
	for _, p := range pragmas {
		if _, err := a.DB.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == "" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
