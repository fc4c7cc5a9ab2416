package postgres

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ruslano69/tdtp-tds/pkg/adapters"
	"github.com/ruslano69/tdtp-tds/pkg/adapters/base"
	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// OID типов, которые pgtype не регистрирует
var extraTypeNames = map[uint32]string{
	790: "MONEY",
}

// columnInfo строит ColumnInfo из описания поля результата.
// Точность NUMERIC и длина VARCHAR берутся из модификатора типа.
func columnInfo(m *pgtype.Map, fd pgconn.FieldDescription) adapters.ColumnInfo {
	info := adapters.ColumnInfo{Name: fd.Name, Nullable: true}

	if t, ok := m.TypeForOID(fd.DataTypeOID); ok {
		info.Type = strings.ToUpper(t.Name)
	} else if name, ok := extraTypeNames[fd.DataTypeOID]; ok {
		info.Type = name
	} else {
		info.Type = fmt.Sprintf("OID%d", fd.DataTypeOID)
	}

	if mod := fd.TypeModifier; mod >= 4 {
		switch info.Type {
		case "NUMERIC":
			mod -= 4
			info.Precision = int((mod >> 16) & 0xFFFF)
			info.Scale = int(mod & 0xFFFF)
		case "VARCHAR", "BPCHAR":
			info.Length = int(mod - 4)
		}
	}
	return info
}

// FieldFromColumn конвертирует тип PostgreSQL в дескриптор TDS
func FieldFromColumn(col adapters.ColumnInfo) tds.Field {
	name := col.Name
	switch col.Type {
	case "INT2":
		return adapters.IntegerField(name, 2)
	case "INT4":
		return adapters.IntegerField(name, 4)
	case "INT8", "OID":
		return adapters.IntegerField(name, 8)
	case "BOOL":
		return adapters.BitField(name)
	case "FLOAT4":
		return adapters.FloatField(name, 4)
	case "FLOAT8":
		return adapters.FloatField(name, 8)
	case "MONEY":
		return adapters.MoneyField(name, 8)
	case "NUMERIC":
		// NUMERIC без модификатора имеет произвольный масштаб - выводится текстом
		if col.Precision == 0 {
			return adapters.TextField(name, 0)
		}
		return adapters.NumericField(name, col.Precision, col.Scale)
	default:
		// TEXT, VARCHAR, BPCHAR, UUID, JSON, JSONB, DATE, TIMESTAMP, BYTEA, массивы
		return adapters.TextField(name, col.Length)
	}
}

// columnHook приводит значения pgx, которые не являются скалярами Go
func columnHook(info adapters.ColumnInfo, c *base.Column) {
	switch info.Type {
	case "NUMERIC":
		c.Convert = convertNumeric
	case "UUID":
		c.Convert = convertUUID
	case "JSON", "JSONB":
		c.Convert = convertJSON
	case "MONEY":
		c.Convert = convertMoney
	}
}

// convertNumeric возвращает pgtype.Numeric в виде "мантисса e экспонента"
func convertNumeric(v any) (any, error) {
	n, ok := v.(pgtype.Numeric)
	if !ok {
		return v, nil
	}
	if !n.Valid {
		return nil, nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return nil, fmt.Errorf("non-finite numeric")
	}
	if n.Int == nil {
		return "0", nil
	}
	return n.Int.String() + "e" + strconv.FormatInt(int64(n.Exp), 10), nil
}

// convertUUID форматирует UUID: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx
func convertUUID(v any) (any, error) {
	var b []byte
	switch x := v.(type) {
	case [16]byte:
		b = x[:]
	case []byte:
		b = x
	case pgtype.UUID:
		if !x.Valid {
			return nil, nil
		}
		b = x.Bytes[:]
	case string:
		return x, nil
	default:
		return nil, fmt.Errorf("unexpected uuid value %T", v)
	}
	if len(b) != 16 {
		return nil, fmt.Errorf("uuid must be 16 bytes, got %d", len(b))
	}
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16]), nil
}

// convertJSON сериализует декодированный JSON обратно в текст
func convertJSON(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode json: %w", err)
	}
	return string(b), nil
}

// convertMoney убирает символ валюты и разделители групп из текста MONEY
// ("$4,100.00", "-$0.01"). Десятичный разделитель - точка (lc_monetary C/en_US).
func convertMoney(v any) (any, error) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return v, nil
	}
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			sb.WriteRune(r)
		case r == '(':
			// бухгалтерская запись отрицательных сумм
			sb.WriteRune('-')
		}
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("invalid money value %q", s)
	}
	return sb.String(), nil
}
