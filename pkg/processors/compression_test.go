package processors

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"
)

func TestCompressDecompress(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"empty_data", []byte{}},
		{"simple_data", []byte("value1|value2|value3")},
		{"large_data", []byte(strings.Repeat("test data with some content|", 1000))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			compressed, err := Compress(tc.input, 3)
			if err != nil {
				t.Fatalf("Compression failed: %v", err)
			}
			if len(tc.input) == 0 {
				if compressed != nil {
					t.Errorf("Expected nil result for empty input, got %d bytes", len(compressed))
				}
				return
			}
			if !IsCompressed(compressed) {
				t.Error("Compressed data has no zstd magic")
			}

			plain, err := Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompression failed: %v", err)
			}
			if !bytes.Equal(plain, tc.input) {
				t.Error("Round trip mismatch")
			}
		})
	}
}

func TestCaptureStream(t *testing.T) {
	payload := bytes.Repeat([]byte{0x81, 0x01, 0x00, 0xD1, 0xFD}, 500)

	t.Run("compressed", func(t *testing.T) {
		var out bytes.Buffer
		counter := &CountingWriter{W: &out}
		w, err := NewCaptureWriter(counter, 0)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(payload); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		if counter.N != int64(out.Len()) {
			t.Errorf("CountingWriter.N = %d, want %d", counter.N, out.Len())
		}
		if counter.N >= int64(len(payload)) {
			t.Errorf("Expected compression, got %d >= %d", counter.N, len(payload))
		}

		r, err := OpenCapture(&out)
		if err != nil {
			t.Fatal(err)
		}
		defer r.Close()
		got, err := io.ReadAll(r)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, payload) {
			t.Error("Decompressed capture mismatch")
		}
	})

	t.Run("plain", func(t *testing.T) {
		r, err := OpenCapture(bytes.NewReader(payload))
		if err != nil {
			t.Fatal(err)
		}
		got, err := io.ReadAll(r)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, payload) {
			t.Error("Plain capture mismatch")
		}
	})

	t.Run("short file", func(t *testing.T) {
		r, err := OpenCapture(bytes.NewReader([]byte{0xFD}))
		if err != nil {
			t.Fatal(err)
		}
		got, _ := io.ReadAll(r)
		if len(got) != 1 {
			t.Errorf("Expected 1 byte, got %d", len(got))
		}
	})
}

func TestGetCompressionStats(t *testing.T) {
	stats := GetCompressionStats(1000, 250, time.Millisecond)
	if stats.Ratio != 4 {
		t.Errorf("Ratio = %v, want 4", stats.Ratio)
	}
	if GetCompressionStats(10, 0, 0).Ratio != 0 {
		t.Error("Expected zero ratio for empty output")
	}
}
