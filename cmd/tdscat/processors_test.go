package main

import (
	"testing"

	"github.com/ruslano69/tdtp-tds/pkg/processors"
)

func TestDetectMaskPattern(t *testing.T) {
	tests := []struct {
		name      string
		fieldName string
		expected  processors.MaskPattern
	}{
		{
			name:      "Email field",
			fieldName: "email",
			expected:  processors.MaskPartial,
		},
		{
			name:      "Customer email field",
			fieldName: "customer_email",
			expected:  processors.MaskPartial,
		},
		{
			name:      "Phone field",
			fieldName: "phone",
			expected:  processors.MaskMiddle,
		},
		{
			name:      "Mobile field",
			fieldName: "mobile_number",
			expected:  processors.MaskMiddle,
		},
		{
			name:      "Card field",
			fieldName: "card_number",
			expected:  processors.MaskFirst2Last2,
		},
		{
			name:      "Credit card field",
			fieldName: "credit_card",
			expected:  processors.MaskFirst2Last2,
		},
		{
			name:      "Passport field",
			fieldName: "passport_number",
			expected:  processors.MaskStars,
		},
		{
			name:      "SSN field",
			fieldName: "ssn",
			expected:  processors.MaskStars,
		},
		{
			name:      "Unknown field",
			fieldName: "some_field",
			expected:  processors.MaskPartial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := detectMaskPattern(tt.fieldName)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestProcessorManager_Chain(t *testing.T) {
	tests := []struct {
		name     string
		mask     []string
		columns  []string
		expected int
	}{
		{name: "Empty", expected: 0},
		{name: "Blank mask fields", mask: []string{"", " "}, expected: 0},
		{name: "Mask only", mask: []string{"email", " phone"}, expected: 1},
		{name: "Columns only", columns: []string{"id", "email"}, expected: 1},
		{name: "Mask and columns", mask: []string{"email"}, columns: []string{"email"}, expected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm := NewProcessorManager()
			pm.AddColumnFilter(tt.columns)
			pm.AddMaskProcessor(tt.mask)
			if got := pm.Chain().Len(); got != tt.expected {
				t.Errorf("expected %d processors, got %d", tt.expected, got)
			}
		})
	}
}

func TestProcessorManager_AddFromConfig(t *testing.T) {
	pm := NewProcessorManager()
	err := pm.AddFromConfig([]processors.Config{
		{Type: "unknown"},
	})
	if err == nil {
		t.Error("expected error for unknown processor type")
	}
}
