package processors

import (
	"context"
	"testing"

	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

func TestMaskValue(t *testing.T) {
	tests := []struct {
		pattern MaskPattern
		input   string
		want    string
	}{
		{MaskPartial, "john.doe@example.com", "j***@example.com"},
		{MaskPartial, "Hello", "H***o"},
		{MaskPartial, "ab", "***"},
		{MaskPartial, "Привет", "П***т"},
		{MaskMiddle, "1234 5678 9012 3456", "1234 XXXX XXXX 3456"},
		{MaskMiddle, "123", "XXX"},
		{MaskStars, "123-45-6789", "***-**-****"},
		{MaskFirst2Last2, "1234 567890", "12** ****90"},
		{MaskFirst2Last2, "40817810123456789012", "40****************12"},
		{MaskFirst2Last2, "1234", "****"},
	}

	for _, tt := range tests {
		t.Run(string(tt.pattern)+"/"+tt.input, func(t *testing.T) {
			if got := maskValue(tt.input, tt.pattern); got != tt.want {
				t.Errorf("maskValue(%q, %s) = %q, want %q", tt.input, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestFieldMasker(t *testing.T) {
	rows := testRows()
	m := NewFieldMasker(map[string]MaskPattern{"name": MaskPartial, "price": MaskStars})

	out, err := m.Process(context.Background(), nil, rows)
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := out[0].At(1).Text(); s != "B***r" {
		t.Errorf("name = %q, want %q", s, "B***r")
	}
	// decimals are not text and stay intact
	if d, _ := out[0].At(2).Decimal(); d != "4100.00000" {
		t.Errorf("price = %q", d)
	}
	if !out[2].At(1).IsNull() {
		t.Error("NULL must stay NULL")
	}
	if s, _ := rows[0].At(1).Text(); s != "Binford Lawnmower" {
		t.Error("Input rows were modified")
	}
}

func TestFactoryChain(t *testing.T) {
	chain, err := CreateChainFromConfigs([]Config{
		{Type: "column_filter", Params: map[string]any{"columns": []any{"name", "id"}}},
		{Type: "field_masker", Params: map[string]any{"fields": map[string]any{"name": "stars"}}},
	})
	if err != nil {
		t.Fatalf("CreateChainFromConfigs failed: %v", err)
	}
	if chain.Len() != 2 || chain.IsEmpty() {
		t.Fatalf("Len() = %d", chain.Len())
	}

	out, err := chain.Process(context.Background(), testFields, testRows())
	if err != nil {
		t.Fatal(err)
	}
	fields, err := chain.OutputFields(testFields)
	if err != nil {
		t.Fatalf("OutputFields failed: %v", err)
	}
	if len(fields) != 2 || fields[0] != testFields[1] || fields[1] != testFields[0] {
		t.Errorf("OutputFields = %v", fields)
	}
	want := tds.NewRow([]string{"name", "id"}, []tds.Value{tds.Text("******* *********"), tds.Int(1)})
	if !out[0].Equal(want) {
		t.Errorf("row = %v, want %v", out[0].Map(), want.Map())
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown type", Config{Type: "nope"}},
		{"masker without fields", Config{Type: "field_masker", Params: map[string]any{}}},
		{"bad pattern", Config{Type: "field_masker", Params: map[string]any{"fields": map[string]any{"a": "zigzag"}}}},
		{"filter without columns", Config{Type: "column_filter", Params: map[string]any{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DefaultFactory.Create(tt.cfg); err == nil {
				t.Error("Expected error")
			}
		})
	}

	t.Run("missing column", func(t *testing.T) {
		_, err := NewColumnFilter("missing").Process(context.Background(), nil, testRows())
		if err == nil {
			t.Error("Expected error for unknown column")
		}
		if _, err := NewColumnFilter("missing").MapFields(testFields); err == nil {
			t.Error("Expected MapFields error for unknown column")
		}
	})
}
