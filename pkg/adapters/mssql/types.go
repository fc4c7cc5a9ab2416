package mssql

import (
	"github.com/ruslano69/tdtp-tds/pkg/adapters"
	"github.com/ruslano69/tdtp-tds/pkg/adapters/base"
	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// Type mapping for MS SQL Server 2012+
//
// SQL Server Type      TDS wire type     Notes
// ─────────────────────────────────────────────────────────
// TINYINT..BIGINT      INTN(1/2/4/8)
// BIT                  BITN
// REAL, FLOAT          FLTN(4/8)
// SMALLMONEY, MONEY    MONEYN(4/8)       exact, 4 decimal places
// DECIMAL              DECIMALN(p,s)
// NUMERIC              NUMERICN(p,s)
// VARCHAR, CHAR        BIGVARCHAR, BIGCHAR
// NVARCHAR, NCHAR      NVARCHAR, NCHAR
// TEXT                 TEXT              legacy
// NTEXT, XML           NVARCHAR
// UNIQUEIDENTIFIER     NVARCHAR(36)      canonical GUID text
// TIMESTAMP/ROWVERSION NVARCHAR(16)      hex without leading zeros
// BINARY, VARBINARY    NVARCHAR          0x-hex
// DATE, DATETIME2 ...  NVARCHAR          yyyy-mm-dd hh:mm:ss.fffffff

// FieldFromColumn converts a SQL Server column to a TDS field descriptor.
func FieldFromColumn(col adapters.ColumnInfo) tds.Field {
	name := col.Name
	switch col.Type {
	case "TINYINT":
		return adapters.IntegerField(name, 1)
	case "SMALLINT":
		return adapters.IntegerField(name, 2)
	case "INT":
		return adapters.IntegerField(name, 4)
	case "BIGINT":
		return adapters.IntegerField(name, 8)
	case "BIT":
		return adapters.BitField(name)

	case "REAL":
		return adapters.FloatField(name, 4)
	case "FLOAT":
		return adapters.FloatField(name, 8)

	case "MONEY":
		return adapters.MoneyField(name, 8)
	case "SMALLMONEY":
		return adapters.MoneyField(name, 4)

	case "DECIMAL", "NUMERIC":
		precision := col.Precision
		if precision == 0 {
			precision = 18 // SQL Server default
		}
		f := adapters.NumericField(name, precision, col.Scale)
		if col.Type == "DECIMAL" {
			f.Type = tds.TypeDecimalN
		}
		return f

	case "VARCHAR":
		return tds.Field{Name: name, Type: tds.TypeBigVarchar, Length: textLength(col.Length)}
	case "CHAR":
		return tds.Field{Name: name, Type: tds.TypeBigChar, Length: textLength(col.Length)}
	case "NCHAR":
		return tds.Field{Name: name, Type: tds.TypeNChar, Length: textLength(col.Length)}
	case "TEXT":
		return tds.Field{Name: name, Type: tds.TypeText}

	case "UNIQUEIDENTIFIER":
		return adapters.TextField(name, 36)
	case "TIMESTAMP", "ROWVERSION":
		return adapters.TextField(name, 16)

	default:
		// NVARCHAR, NTEXT, XML, dates, binary, SQL_VARIANT
		return adapters.TextField(name, textLength(col.Length))
	}
}

// textLength maps MAX and unknown lengths to 0.
func textLength(n int) int {
	if n <= 0 || n > 8000 {
		return 0
	}
	return n
}

// columnHook attaches converters for driver values that need formatting.
func columnHook(info adapters.ColumnInfo, c *base.Column) {
	switch info.Type {
	case "UNIQUEIDENTIFIER":
		c.Convert = convertUniqueIdentifier
	case "TIMESTAMP", "ROWVERSION":
		c.Convert = convertRowVersion
		c.Binary = false
	}
}
