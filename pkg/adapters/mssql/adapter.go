package mssql

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/denisenkom/go-mssqldb" // MS SQL Server driver

	"github.com/ruslano69/tdtp-tds/pkg/adapters"
	"github.com/ruslano69/tdtp-tds/pkg/adapters/base"
)

// AdapterType is the factory name of the adapter.
const AdapterType = "mssql"

var _ adapters.Adapter = (*Adapter)(nil)

func init() {
	adapters.Register(AdapterType, func() adapters.Adapter {
		return &Adapter{}
	})
}

// Adapter implements adapters.Adapter for Microsoft SQL Server.
type Adapter struct {
	base.SQLAdapter

	schema        string
	serverVersion int    // Major version: 11=2012, 13=2016, 14=2017, 15=2019, 16=2022
	versionString string // ProductVersion
}

// Connect opens the pool and detects the server version.
func (a *Adapter) Connect(ctx context.Context, cfg adapters.Config) error {
	db, err := base.OpenDB(ctx, "mssql", cfg)
	if err != nil {
		return err
	}

	a.DB = db
	a.Mapper = adapters.TypeMapperFunc(FieldFromColumn)
	a.Hook = columnHook
	a.Timeout = cfg.Timeout
	a.schema = cfg.Schema
	if a.schema == "" {
		a.schema = "dbo"
	}

	version, err := a.QueryString(ctx, "SELECT CAST(SERVERPROPERTY('ProductVersion') AS NVARCHAR(128))")
	if err != nil {
		db.Close()
		a.DB = nil
		return fmt.Errorf("failed to get server version: %w", err)
	}
	a.versionString = version
	a.serverVersion = parseServerVersion(version)
	return nil
}

// parseServerVersion parses SQL Server version string to major version number.
// Examples:
//   - "11.0.2100.60" → 11 (SQL Server 2012)
//   - "15.0.2000.5"  → 15 (SQL Server 2019)
func parseServerVersion(version string) int {
	major, _, _ := strings.Cut(version, ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return 0
	}
	return n
}

// serverVersionName returns human-readable server version name.
func serverVersionName(major int) string {
	switch major {
	case 11:
		return "SQL Server 2012"
	case 12:
		return "SQL Server 2014"
	case 13:
		return "SQL Server 2016"
	case 14:
		return "SQL Server 2017"
	case 15:
		return "SQL Server 2019"
	case 16:
		return "SQL Server 2022"
	default:
		return fmt.Sprintf("SQL Server (version %d)", major)
	}
}

// GetDatabaseType returns "mssql".
func (a *Adapter) GetDatabaseType() string {
	return AdapterType
}

// GetDatabaseVersion returns the product name and version.
func (a *Adapter) GetDatabaseVersion(ctx context.Context) (string, error) {
	if a.DB == nil {
		return "", fmt.Errorf("adapter not connected")
	}
	return fmt.Sprintf("%s (%s)", serverVersionName(a.serverVersion), a.versionString), nil
}

// GetTableNames lists base tables of the configured schema.
func (a *Adapter) GetTableNames(ctx context.Context) ([]string, error) {
	names, err := a.QueryStrings(ctx, `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_SCHEMA = @p1
		ORDER BY TABLE_NAME`, a.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return names, nil
}

// TableExists checks for a base table in the configured schema.
func (a *Adapter) TableExists(ctx context.Context, tableName string) (bool, error) {
	return a.QueryExists(ctx, `
		SELECT COUNT(*)
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2`,
		a.schema, tableName)
}
