package mssql

import (
	"testing"
)

func TestRowVersionHex(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
		wantErr  bool
	}{
		{name: "Empty slice", input: []byte{}, expected: ""},
		{name: "All zeros", input: []byte{0, 0, 0, 0, 0, 0, 0, 0}, expected: "00"},
		{name: "Timestamp 1", input: []byte{0x00, 0x00, 0x00, 0x00, 0x18, 0x7F, 0x86, 0x3C}, expected: "187F863C"},
		{name: "Timestamp 2", input: []byte{0x00, 0x00, 0x00, 0x00, 0x18, 0x7F, 0x86, 0x40}, expected: "187F8640"},
		{name: "Non-zero high bytes", input: []byte{0x00, 0x00, 0x00, 0x19, 0xA4, 0xAE, 0x7C, 0x00}, expected: "19A4AE7C00"},
		{name: "Wrong length", input: []byte{0x01, 0x02}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := rowVersionHex(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("rowVersionHex(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if result != tt.expected {
				t.Errorf("rowVersionHex(%v) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestConvertUniqueIdentifier(t *testing.T) {
	// SQL Server byte order: first three groups little-endian
	raw := []byte{
		0x67, 0x45, 0x23, 0x01, 0xAB, 0x89, 0xEF, 0xCD,
		0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF,
	}
	got, err := convertUniqueIdentifier(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got != "01234567-89AB-CDEF-0123-456789ABCDEF" {
		t.Errorf("convertUniqueIdentifier = %v", got)
	}

	if _, err := convertUniqueIdentifier([]byte{1, 2, 3}); err == nil {
		t.Error("Expected error for short value")
	}
}

func BenchmarkRowVersionHex(b *testing.B) {
	data := []byte{0x00, 0x00, 0x00, 0x00, 0x18, 0x7F, 0x82, 0x5E}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = rowVersionHex(data)
	}
}
