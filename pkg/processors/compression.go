package processors

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic - первые байты zstd фрейма
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// DefaultCompressionLevel хороший баланс скорости и степени сжатия
const DefaultCompressionLevel = 3

// NewCaptureWriter возвращает writer, сжимающий поток TDS в zstd.
// level: 1 (самый быстрый) - 22 (лучшее сжатие). Close обязателен.
func NewCaptureWriter(w io.Writer, level int) (io.WriteCloser, error) {
	if level <= 0 {
		level = DefaultCompressionLevel
	}
	enc, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderConcurrency(4),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return enc, nil
}

// OpenCapture возвращает reader файла захвата.
// Сжатые zstd файлы распознаются по магическим байтам, остальные читаются как есть.
func OpenCapture(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read capture header: %w", err)
	}
	if !bytes.Equal(head, zstdMagic) {
		return io.NopCloser(br), nil
	}

	dec, err := zstd.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return dec.IOReadCloser(), nil
}

// IsCompressed проверяет магические байты zstd
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}

// Compress сжимает блок данных целиком.
func Compress(input []byte, level int) ([]byte, error) {
	if len(input) == 0 {
		return nil, nil
	}
	if level <= 0 {
		level = DefaultCompressionLevel
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(input, nil), nil
}

// Decompress распаковывает блок данных.
func Decompress(input []byte) ([]byte, error) {
	if len(input) == 0 {
		return nil, nil
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(input, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress zstd: %w", err)
	}
	return out, nil
}

// CompressionStats содержит статистику сжатия.
type CompressionStats struct {
	OriginalSize   int64         `json:"original_size"`
	CompressedSize int64         `json:"compressed_size"`
	Ratio          float64       `json:"ratio"`
	Time           time.Duration `json:"time"`
}

// GetCompressionStats вычисляет статистику сжатия.
func GetCompressionStats(original, compressed int64, elapsed time.Duration) CompressionStats {
	stats := CompressionStats{
		OriginalSize:   original,
		CompressedSize: compressed,
		Time:           elapsed,
	}
	if compressed > 0 {
		stats.Ratio = float64(original) / float64(compressed)
	}
	return stats
}

// CountingWriter считает записанные байты
type CountingWriter struct {
	W io.Writer
	N int64
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.W.Write(p)
	c.N += int64(n)
	return n, err
}
