package processors

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/xxh3"

	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// Fingerprint накапливает xxh3 (64-bit) хеш декодированных строк.
// Одинаковые строки в одинаковом порядке дают одинаковый отпечаток
// независимо от источника (поток TDS, база данных, повторный проход после Seek).
type Fingerprint struct {
	h    *xxh3.Hasher
	rows int
	buf  []byte
}

// NewFingerprint создает пустой отпечаток
func NewFingerprint() *Fingerprint {
	return &Fingerprint{h: xxh3.New()}
}

// Add добавляет строку в отпечаток.
// Каждое значение кодируется как kind, длина и текстовое представление,
// поэтому NULL отличается от пустой строки.
func (f *Fingerprint) Add(row tds.Row) {
	f.buf = f.buf[:0]
	for i, v := range row.Values() {
		if i > 0 {
			f.buf = append(f.buf, 0x1F)
		}
		f.buf = append(f.buf, byte(v.Kind()))
		s := v.String()
		if v.IsNull() {
			s = ""
		}
		f.buf = binary.LittleEndian.AppendUint32(f.buf, uint32(len(s)))
		f.buf = append(f.buf, s...)
	}
	f.buf = append(f.buf, 0x1E)
	_, _ = f.h.Write(f.buf)
	f.rows++
}

// Rows возвращает количество добавленных строк
func (f *Fingerprint) Rows() int { return f.rows }

// Sum возвращает hex-encoded хеш
func (f *Fingerprint) Sum() string {
	return hex.EncodeToString(binary.BigEndian.AppendUint64(nil, f.h.Sum64()))
}

// Reset сбрасывает состояние
func (f *Fingerprint) Reset() {
	f.h.Reset()
	f.rows = 0
}

// FingerprintRows вычисляет отпечаток набора строк
func FingerprintRows(rows []tds.Row) string {
	f := NewFingerprint()
	for _, r := range rows {
		f.Add(r)
	}
	return f.Sum()
}

// ComputeChecksum вычисляет xxh3 хеш данных и возвращает hex-encoded строку.
func ComputeChecksum(data []byte) string {
	return hex.EncodeToString(binary.BigEndian.AppendUint64(nil, xxh3.Hash(data)))
}

// ValidateChecksum проверяет соответствие данных ожидаемому хешу.
func ValidateChecksum(data []byte, expectedHash string) error {
	actual := ComputeChecksum(data)
	if actual != expectedHash {
		return fmt.Errorf("checksum validation failed: expected %s, got %s", expectedHash, actual)
	}
	return nil
}
