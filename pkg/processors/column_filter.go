package processors

import (
	"context"
	"fmt"

	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// ColumnFilter оставляет в строках только указанные колонки в заданном порядке
type ColumnFilter struct {
	columns []string
}

// NewColumnFilter создает фильтр колонок
func NewColumnFilter(columns ...string) *ColumnFilter {
	return &ColumnFilter{columns: columns}
}

// Name возвращает имя процессора
func (f *ColumnFilter) Name() string {
	return "column_filter"
}

// Process проецирует строки на выбранные колонки.
// Неизвестная колонка - ошибка.
func (f *ColumnFilter) Process(_ context.Context, _ tds.Fields, rows []tds.Row) ([]tds.Row, error) {
	if len(f.columns) == 0 {
		return rows, nil
	}

	out := make([]tds.Row, len(rows))
	for i, row := range rows {
		values := make([]tds.Value, len(f.columns))
		for j, name := range f.columns {
			v, ok := row.Get(name)
			if !ok {
				return nil, fmt.Errorf("column %q not found", name)
			}
			values[j] = v
		}
		out[i] = tds.NewRow(f.columns, values)
	}
	return out, nil
}

// MapFields возвращает дескрипторы выбранных колонок
func (f *ColumnFilter) MapFields(fields tds.Fields) (tds.Fields, error) {
	if len(f.columns) == 0 {
		return fields, nil
	}
	out := make(tds.Fields, len(f.columns))
	for i, name := range f.columns {
		idx := fields.Index(name)
		if idx < 0 {
			return nil, fmt.Errorf("column %q not found", name)
		}
		out[i] = fields[idx]
	}
	return out, nil
}

// NewColumnFilterFromConfig создает ColumnFilter из параметров (columns: [a, b])
func NewColumnFilterFromConfig(params map[string]any) (*ColumnFilter, error) {
	raw, ok := params["columns"].([]any)
	if !ok || len(raw) == 0 {
		return nil, fmt.Errorf("missing or invalid 'columns' parameter")
	}
	columns := make([]string, len(raw))
	for i, c := range raw {
		s, ok := c.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("invalid column name at index %d", i)
		}
		columns[i] = s
	}
	return NewColumnFilter(columns...), nil
}
