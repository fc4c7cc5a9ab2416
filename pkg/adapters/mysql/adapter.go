package mysql

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/ruslano69/tdtp-tds/pkg/adapters"
	"github.com/ruslano69/tdtp-tds/pkg/adapters/base"
)

// AdapterType идентификатор MySQL адаптера
const AdapterType = "mysql"

var _ adapters.Adapter = (*Adapter)(nil)

func init() {
	// Регистрируем MySQL адаптер в фабрике
	adapters.Register(AdapterType, func() adapters.Adapter {
		return &Adapter{}
	})
}

// Adapter реализует adapters.Adapter для MySQL
type Adapter struct {
	base.SQLAdapter
}

// Connect подключается к MySQL базе данных.
// DATETIME и TIMESTAMP читаются как time.Time в UTC.
func (a *Adapter) Connect(ctx context.Context, cfg adapters.Config) error {
	dsn, err := normalizeDSN(cfg.DSN)
	if err != nil {
		return err
	}
	cfg.DSN = dsn

	db, err := base.OpenDB(ctx, "mysql", cfg)
	if err != nil {
		return err
	}

	a.DB = db
	a.Mapper = adapters.TypeMapperFunc(FieldFromColumn)
	a.Hook = columnHook
	a.Timeout = cfg.Timeout
	return nil
}

// normalizeDSN включает parseTime и задает UTC, если зона не указана
func normalizeDSN(dsn string) (string, error) {
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse DSN: %w", err)
	}
	mc.ParseTime = true
	if mc.Loc == nil {
		mc.Loc = time.UTC
	}
	return mc.FormatDSN(), nil
}

// GetDatabaseType возвращает тип адаптера
func (a *Adapter) GetDatabaseType() string {
	return AdapterType
}

// GetDatabaseVersion возвращает версию MySQL
func (a *Adapter) GetDatabaseVersion(ctx context.Context) (string, error) {
	version, err := a.QueryString(ctx, "SELECT VERSION()")
	if err != nil {
		return "", fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

// GetTableNames возвращает список всех таблиц в базе данных
func (a *Adapter) GetTableNames(ctx context.Context) ([]string, error) {
	names, err := a.QueryStrings(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	return names, nil
}

// TableExists проверяет существование таблицы
func (a *Adapter) TableExists(ctx context.Context, tableName string) (bool, error) {
	return a.QueryExists(ctx, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?`, tableName)
}
