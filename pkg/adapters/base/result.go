package base

import (
	"database/sql"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ruslano69/tdtp-tds/pkg/adapters"
	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// Rows - курсор драйвера
type Rows interface {
	Next() bool
	Values() ([]any, error)
	Err() error
	Close() error
}

// ColumnHook дополняет колонку специфичным для СУБД приведением
type ColumnHook func(info adapters.ColumnInfo, c *Column)

// Result реализует adapters.Result поверх курсора драйвера.
// Каждая строка читается из курсора один раз при Fetch.
type Result struct {
	rows    Rows
	columns []Column
	fields  tds.Fields
	done    bool
	onClose func()
}

var _ adapters.Result = (*Result)(nil)

// NewResult создает Result для курсора с описанием колонок
func NewResult(rows Rows, columns []Column) *Result {
	fields := make(tds.Fields, len(columns))
	for i, c := range columns {
		fields[i] = c.Field
	}
	return &Result{rows: rows, columns: columns, fields: fields}
}

// Fields возвращает дескрипторы колонок
func (r *Result) Fields() tds.Fields { return r.fields }

// Columns возвращает описание колонок
func (r *Result) Columns() []Column { return r.columns }

// Fetch читает следующую строку курсора и приводит значения
func (r *Result) Fetch(fields tds.Fields) (tds.RawRecord, error) {
	if len(fields) != len(r.columns) {
		return nil, fmt.Errorf("result has %d columns, %d requested", len(r.columns), len(fields))
	}
	if r.done {
		return nil, io.EOF
	}
	if !r.rows.Next() {
		r.done = true
		if err := r.rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate rows: %w", err)
		}
		return nil, io.EOF
	}

	values, err := r.rows.Values()
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}
	if len(values) != len(r.columns) {
		return nil, fmt.Errorf("row has %d values, expected %d", len(values), len(r.columns))
	}

	rec := make(tds.RawRecord, len(values))
	for i, v := range values {
		if rec[i], err = EncodeValue(r.columns[i], v); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// Close закрывает курсор
func (r *Result) Close() error {
	r.done = true
	err := r.rows.Close()
	if r.onClose != nil {
		r.onClose()
		r.onClose = nil
	}
	return err
}

// OnClose регистрирует функцию, вызываемую после закрытия курсора
func (r *Result) OnClose(fn func()) { r.onClose = fn }

// sqlRows адаптирует *sql.Rows к Rows
type sqlRows struct {
	rows *sql.Rows
	vals []any
	ptrs []any
}

func (s *sqlRows) Next() bool   { return s.rows.Next() }
func (s *sqlRows) Err() error   { return s.rows.Err() }
func (s *sqlRows) Close() error { return s.rows.Close() }

func (s *sqlRows) Values() ([]any, error) {
	for i := range s.vals {
		s.vals[i] = nil
	}
	if err := s.rows.Scan(s.ptrs...); err != nil {
		return nil, err
	}
	out := make([]any, len(s.vals))
	for i, v := range s.vals {
		// драйвер может переиспользовать буфер []byte
		if b, ok := v.([]byte); ok {
			v = append([]byte(nil), b...)
		}
		out[i] = v
	}
	return out, nil
}

// NewSQLResult создает Result поверх *sql.Rows.
// Тип каждой колонки определяет mapper, hook может его уточнить.
func NewSQLResult(rows *sql.Rows, mapper adapters.TypeMapper, hook ColumnHook) (*Result, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	columns := make([]Column, len(types))
	for i, ct := range types {
		columns[i] = BuildColumn(ColumnInfoFromSQL(ct), mapper, hook)
	}

	sr := &sqlRows{rows: rows, vals: make([]any, len(types)), ptrs: make([]any, len(types))}
	for i := range sr.vals {
		sr.ptrs[i] = &sr.vals[i]
	}
	return NewResult(sr, columns), nil
}

// BuildColumn строит колонку по описанию драйвера
func BuildColumn(info adapters.ColumnInfo, mapper adapters.TypeMapper, hook ColumnHook) Column {
	c := Column{
		Field:  mapper.FieldFromColumn(info),
		Binary: IsBinaryType(info.Type),
	}
	if c.Field.Name == "" {
		c.Field.Name = info.Name
	}
	if hook != nil {
		hook(info, &c)
	}
	return c
}

// ColumnInfoFromSQL собирает ColumnInfo из sql.ColumnType.
// Параметры, которые драйвер не сообщает, берутся из объявленного типа.
func ColumnInfoFromSQL(ct *sql.ColumnType) adapters.ColumnInfo {
	baseType, length, precision, scale := adapters.ParseSQLType(ct.DatabaseTypeName())
	info := adapters.ColumnInfo{
		Name:      ct.Name(),
		Type:      baseType,
		Length:    length,
		Precision: precision,
		Scale:     scale,
		Nullable:  true,
	}
	if n, ok := ct.Length(); ok && n > 0 && n < math.MaxInt32 {
		info.Length = int(n)
	}
	if p, s, ok := ct.DecimalSize(); ok && p > 0 {
		info.Precision, info.Scale = int(p), int(s)
	}
	if nullable, ok := ct.Nullable(); ok {
		info.Nullable = nullable
	}
	return info
}

// IsBinaryType проверяет, что тип хранит двоичные данные
func IsBinaryType(baseType string) bool {
	switch strings.ToUpper(baseType) {
	case "BLOB", "BINARY", "VARBINARY", "IMAGE", "BYTEA", "TINYBLOB", "MEDIUMBLOB", "LONGBLOB":
		return true
	default:
		return false
	}
}
