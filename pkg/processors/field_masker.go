package processors

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// MaskPattern определяет тип маскирования
type MaskPattern string

const (
	// MaskPartial оставляет первый и последний символ (email: j***@example.com)
	MaskPartial MaskPattern = "partial"
	// MaskMiddle скрывает средние цифры (card: 1234 XXXX XXXX 3456)
	MaskMiddle MaskPattern = "middle"
	// MaskStars заменяет все кроме разделителей на звездочки
	MaskStars MaskPattern = "stars"
	// MaskFirst2Last2 показывает только первые 2 и последние 2 символа
	MaskFirst2Last2 MaskPattern = "first2_last2"
)

var emailRegex = regexp.MustCompile(`^([a-zA-Z0-9._%+-]+)@([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})$`)

// FieldMasker маскирует текстовые колонки с чувствительными данными.
// NULL и нетекстовые значения не изменяются.
type FieldMasker struct {
	columns map[string]MaskPattern
}

// NewFieldMasker создает маскировщик: имя колонки -> паттерн
func NewFieldMasker(columns map[string]MaskPattern) *FieldMasker {
	return &FieldMasker{columns: columns}
}

// Name возвращает имя процессора
func (m *FieldMasker) Name() string {
	return "field_masker"
}

// Process маскирует значения в строках
func (m *FieldMasker) Process(_ context.Context, _ tds.Fields, rows []tds.Row) ([]tds.Row, error) {
	if len(m.columns) == 0 || len(rows) == 0 {
		return rows, nil
	}

	out := make([]tds.Row, len(rows))
	for i, row := range rows {
		names := row.Names()
		values := row.Values()
		changed := false
		for j, name := range names {
			pattern, ok := m.columns[name]
			if !ok {
				continue
			}
			s, ok := values[j].Text()
			if !ok || s == "" {
				continue
			}
			values[j] = tds.Text(maskValue(s, pattern))
			changed = true
		}
		if changed {
			out[i] = tds.NewRow(names, values)
		} else {
			out[i] = row
		}
	}
	return out, nil
}

func maskValue(s string, pattern MaskPattern) string {
	switch pattern {
	case MaskPartial:
		return maskPartial(s)
	case MaskMiddle:
		return maskMiddle(s)
	case MaskFirst2Last2:
		return maskFirst2Last2(s)
	default:
		return maskStars(s)
	}
}

// maskPartial: john.doe@example.com -> j***@example.com, Hello -> H***o
func maskPartial(s string) string {
	if m := emailRegex.FindStringSubmatch(s); m != nil {
		local := []rune(m[1])
		return string(local[0]) + "***@" + m[2]
	}
	r := []rune(s)
	if len(r) <= 2 {
		return "***"
	}
	return string(r[0]) + "***" + string(r[len(r)-1])
}

// maskMiddle: +1 (555) 123-4567 -> +1 (5XX) XXX-4567
func maskMiddle(s string) string {
	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits <= 4 {
		return strings.Repeat("X", len([]rune(s)))
	}

	visible := 4
	if digits < 8 {
		visible = digits / 2
	}

	runes := []rune(s)
	seen := 0
	for i, r := range runes {
		if !unicode.IsDigit(r) {
			continue
		}
		seen++
		if seen > visible && seen <= digits-visible {
			runes[i] = 'X'
		}
	}
	return string(runes)
}

// maskStars: 123-45-6789 -> ***-**-****
func maskStars(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		switch r {
		case ' ', '-', '(', ')', '.', '/':
		default:
			runes[i] = '*'
		}
	}
	return string(runes)
}

// maskFirst2Last2: 1234 567890 -> 12** ****90. Пробелы сохраняются.
func maskFirst2Last2(s string) string {
	runes := []rune(s)
	total := 0
	for _, r := range runes {
		if r != ' ' {
			total++
		}
	}
	if total <= 4 {
		return strings.Repeat("*", len(runes))
	}

	idx := 0
	for i, r := range runes {
		if r == ' ' {
			continue
		}
		if idx >= 2 && idx < total-2 {
			runes[i] = '*'
		}
		idx++
	}
	return string(runes)
}

// NewFieldMaskerFromConfig создает FieldMasker из параметров
//
//	params:
//	  fields:
//	    email: partial
//	    card: middle
func NewFieldMaskerFromConfig(params map[string]any) (*FieldMasker, error) {
	fields, ok := params["fields"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'fields' parameter")
	}

	columns := make(map[string]MaskPattern, len(fields))
	for name, raw := range fields {
		pattern := MaskPattern(fmt.Sprintf("%v", raw))
		switch pattern {
		case MaskPartial, MaskMiddle, MaskStars, MaskFirst2Last2:
			columns[name] = pattern
		default:
			return nil, fmt.Errorf("invalid mask pattern '%s' for field '%s'", pattern, name)
		}
	}
	return NewFieldMasker(columns), nil
}
