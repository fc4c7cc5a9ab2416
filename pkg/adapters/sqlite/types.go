package sqlite

import (
	"github.com/ruslano69/tdtp-tds/pkg/adapters"
	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// FieldFromColumn конвертирует объявленный тип SQLite в дескриптор TDS.
//
// SQLite хранит тип как строку с возможными модификаторами
// (INTEGER, VARCHAR(100), DECIMAL(18,2)), значения типизированы динамически.
// Колонки без объявленного типа (выражения) выводятся как текст.
func FieldFromColumn(col adapters.ColumnInfo) tds.Field {
	switch col.Type {
	case "INTEGER", "INT", "TINYINT", "SMALLINT", "MEDIUMINT", "BIGINT", "INT2", "INT8":
		return adapters.IntegerField(col.Name, 8)
	case "BOOLEAN", "BOOL", "BIT":
		return adapters.BitField(col.Name)
	case "REAL", "FLOAT", "DOUBLE", "DOUBLE PRECISION":
		return adapters.FloatField(col.Name, 8)
	case "MONEY":
		return adapters.MoneyField(col.Name, 8)
	case "SMALLMONEY":
		return adapters.MoneyField(col.Name, 4)
	case "NUMERIC", "DECIMAL":
		// без точности значение хранится с NUMERIC affinity и может быть дробным
		if col.Precision == 0 {
			return adapters.FloatField(col.Name, 8)
		}
		return adapters.NumericField(col.Name, col.Precision, col.Scale)
	default:
		// TEXT, VARCHAR, CHAR, CLOB, DATE, DATETIME, BLOB (как hex)
		return adapters.TextField(col.Name, col.Length)
	}
}
