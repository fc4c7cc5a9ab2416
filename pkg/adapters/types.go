package adapters

import (
	"strconv"
	"strings"

	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// ColumnInfo - описание колонки результата, полученное от драйвера
type ColumnInfo struct {
	Name      string // Имя колонки
	Type      string // Базовый тип СУБД в верхнем регистре без параметров, например "DECIMAL"
	Length    int    // Длина (для строк), 0 если неизвестна
	Precision int    // Точность (для DECIMAL/NUMERIC), 0 если неизвестна
	Scale     int    // Масштаб
	Nullable  bool   // Допускает NULL
}

// TypeMapper - маппинг типа СУБД в дескриптор поля TDS.
// Каждый адаптер реализует свой TypeMapper.
type TypeMapper interface {
	// FieldFromColumn возвращает дескриптор поля для колонки.
	// Пример:
	//   MS SQL:  "MONEY"         → Field{Type: MONEYN, Length: 8}
	//   SQLite:  "DECIMAL", 10, 2 → Field{Type: NUMERICN, Precision: 10, Scale: 2}
	FieldFromColumn(col ColumnInfo) tds.Field
}

// TypeMapperFunc адаптирует функцию к TypeMapper
type TypeMapperFunc func(col ColumnInfo) tds.Field

func (f TypeMapperFunc) FieldFromColumn(col ColumnInfo) tds.Field { return f(col) }

// ParseSQLType разбирает тип с параметрами.
// Примеры:
//   - "INT" → ("INT", 0, 0, 0)
//   - "NVARCHAR(100)" → ("NVARCHAR", 100, 0, 0)
//   - "DECIMAL(18,2)" → ("DECIMAL", 0, 18, 2)
//   - "NUMERIC(10)" → ("NUMERIC", 0, 10, 0)
//   - "VARBINARY(MAX)" → ("VARBINARY", -1, 0, 0)
func ParseSQLType(sqlType string) (baseType string, length, precision, scale int) {
	sqlType = strings.ToUpper(strings.TrimSpace(sqlType))
	baseType = sqlType

	idx := strings.Index(sqlType, "(")
	if idx == -1 {
		return baseType, 0, 0, 0
	}
	baseType = strings.TrimSpace(sqlType[:idx])
	params := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sqlType[idx+1:]), ")"))

	if params == "MAX" {
		return baseType, -1, 0, 0
	}

	if p, s, ok := strings.Cut(params, ","); ok {
		precision, _ = strconv.Atoi(strings.TrimSpace(p))
		scale, _ = strconv.Atoi(strings.TrimSpace(s))
		return baseType, 0, precision, scale
	}

	n, _ := strconv.Atoi(params)
	switch baseType {
	case "DECIMAL", "NUMERIC", "DEC":
		precision = n
	default:
		length = n
	}
	return baseType, length, precision, scale
}

// Конструкторы дескрипторов, общие для адаптеров.
// Все колонки результата запроса считаются допускающими NULL,
// поэтому используются N-типы TDS.

// IntegerField - целое шириной width байт (1, 2, 4, 8)
func IntegerField(name string, width int) tds.Field {
	return tds.Field{Name: name, Type: tds.TypeIntN, Length: width}
}

// BitField - логическое значение
func BitField(name string) tds.Field {
	return tds.Field{Name: name, Type: tds.TypeBitN, Length: 1}
}

// FloatField - число с плавающей точкой шириной 4 или 8 байт
func FloatField(name string, width int) tds.Field {
	return tds.Field{Name: name, Type: tds.TypeFltN, Length: width}
}

// MoneyField - MONEY (8 байт) или SMALLMONEY (4 байта)
func MoneyField(name string, width int) tds.Field {
	return tds.Field{Name: name, Type: tds.TypeMoneyN, Length: width}
}

// NumericField - DECIMAL/NUMERIC(precision, scale)
func NumericField(name string, precision, scale int) tds.Field {
	if precision <= 0 || precision > 38 {
		precision = 38
	}
	if scale < 0 || scale > precision {
		scale = 0
	}
	return tds.Field{Name: name, Type: tds.TypeNumericN, Precision: precision, Scale: scale}
}

// TextField - строка Unicode
func TextField(name string, length int) tds.Field {
	if length < 0 {
		length = 0
	}
	return tds.Field{Name: name, Type: tds.TypeNVarchar, Length: length}
}
