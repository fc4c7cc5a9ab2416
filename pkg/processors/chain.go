package processors

import (
	"context"
	"fmt"

	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// Chain представляет цепочку процессоров
type Chain struct {
	processors []Processor
}

// NewChain создает новую цепочку процессоров
func NewChain(processors ...Processor) *Chain {
	return &Chain{processors: processors}
}

// Process выполняет процессоры последовательно.
// Каждый процессор получает дескрипторы после предыдущих шагов.
func (c *Chain) Process(ctx context.Context, fields tds.Fields, rows []tds.Row) ([]tds.Row, error) {
	result := rows
	for i, proc := range c.processors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		result, err = proc.Process(ctx, fields, result)
		if err != nil {
			return nil, fmt.Errorf("processor %d (%s) failed: %w", i, proc.Name(), err)
		}
		if fm, ok := proc.(FieldMapper); ok {
			if fields, err = fm.MapFields(fields); err != nil {
				return nil, fmt.Errorf("processor %d (%s) failed: %w", i, proc.Name(), err)
			}
		}
	}
	return result, nil
}

// OutputFields возвращает дескрипторы строк на выходе цепочки
func (c *Chain) OutputFields(fields tds.Fields) (tds.Fields, error) {
	for i, proc := range c.processors {
		fm, ok := proc.(FieldMapper)
		if !ok {
			continue
		}
		var err error
		if fields, err = fm.MapFields(fields); err != nil {
			return nil, fmt.Errorf("processor %d (%s) failed: %w", i, proc.Name(), err)
		}
	}
	return fields, nil
}

// Add добавляет процессор в цепочку
func (c *Chain) Add(processor Processor) {
	c.processors = append(c.processors, processor)
}

// Len возвращает количество процессоров в цепочке
func (c *Chain) Len() int {
	return len(c.processors)
}

// IsEmpty проверяет, пуста ли цепочка
func (c *Chain) IsEmpty() bool {
	return len(c.processors) == 0
}
