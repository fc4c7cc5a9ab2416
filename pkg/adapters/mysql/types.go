package mysql

import (
	"fmt"
	"strings"

	"github.com/ruslano69/tdtp-tds/pkg/adapters"
	"github.com/ruslano69/tdtp-tds/pkg/adapters/base"
	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// FieldFromColumn конвертирует тип MySQL в дескриптор TDS.
// go-sql-driver сообщает беззнаковые типы как "UNSIGNED INT" и т.п.
// TINYINT со знаком не помещается в TDS TINYINT (0..255), поэтому берется ширина 2.
func FieldFromColumn(col adapters.ColumnInfo) tds.Field {
	name := col.Name
	baseType, unsigned := strings.CutPrefix(col.Type, "UNSIGNED ")

	switch baseType {
	case "TINYINT":
		if unsigned {
			return adapters.IntegerField(name, 1)
		}
		return adapters.IntegerField(name, 2)
	case "SMALLINT", "YEAR":
		if unsigned {
			return adapters.IntegerField(name, 4)
		}
		return adapters.IntegerField(name, 2)
	case "MEDIUMINT":
		return adapters.IntegerField(name, 4)
	case "INT", "INTEGER":
		if unsigned {
			return adapters.IntegerField(name, 8)
		}
		return adapters.IntegerField(name, 4)
	case "BIGINT":
		// BIGINT UNSIGNED выходит за int64
		if unsigned {
			return adapters.NumericField(name, 20, 0)
		}
		return adapters.IntegerField(name, 8)
	case "BIT":
		return adapters.IntegerField(name, 8)
	case "FLOAT":
		return adapters.FloatField(name, 4)
	case "DOUBLE", "REAL":
		return adapters.FloatField(name, 8)
	case "DECIMAL", "NUMERIC":
		precision := col.Precision
		if precision == 0 {
			precision = 10 // default MySQL
		}
		return adapters.NumericField(name, precision, col.Scale)
	default:
		// VARCHAR, CHAR, TEXT, JSON, ENUM, SET, DATE, DATETIME, TIMESTAMP, TIME, BLOB
		return adapters.TextField(name, col.Length)
	}
}

// columnHook задает приведение BIT(n)
func columnHook(info adapters.ColumnInfo, c *base.Column) {
	if info.Type == "BIT" {
		c.Convert = convertBit
	}
}

// convertBit приводит BIT(n) (big-endian байты) к целому
func convertBit(v any) (any, error) {
	b, ok := v.([]byte)
	if !ok {
		return v, nil
	}
	if len(b) > 8 {
		return nil, fmt.Errorf("bit value too long: %d bytes", len(b))
	}
	var n uint64
	for _, x := range b {
		n = n<<8 | uint64(x)
	}
	return n, nil
}
