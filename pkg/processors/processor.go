package processors

import (
	"context"

	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// Processor преобразует декодированные строки перед выводом
type Processor interface {
	// Name возвращает имя процессора
	Name() string

	// Process обрабатывает строки одного результата.
	// fields - дескрипторы колонок результата
	Process(ctx context.Context, fields tds.Fields, rows []tds.Row) ([]tds.Row, error)
}

// FieldMapper - процессор, меняющий набор колонок
type FieldMapper interface {
	MapFields(fields tds.Fields) (tds.Fields, error)
}

// Config содержит конфигурацию процессора
type Config struct {
	Type   string         `yaml:"type"`   // Тип процессора (field_masker, column_filter)
	Params map[string]any `yaml:"params"` // Параметры процессора
}
