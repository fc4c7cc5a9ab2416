package mssql

import (
	"encoding/binary"
	"fmt"

	mssqldb "github.com/denisenkom/go-mssqldb"
)

// rowVersionHex converts an 8-byte timestamp/rowversion value to a hex
// string without leading zeros. Zero allocations apart from the result.
//
// Examples:
//   - []byte{0x00, 0x00, 0x00, 0x00, 0x18, 0x7F, 0x86, 0x3C} → "187F863C"
//   - []byte{0x00, 0x00, 0x00, 0x19, 0xA4, 0xAE, 0x7C, 0x00} → "19A4AE7C00"
//   - []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00} → "00"
func rowVersionHex(data []byte) (string, error) {
	switch len(data) {
	case 0:
		return "", nil
	case 8:
	default:
		return "", fmt.Errorf("rowversion must be 8 bytes, got %d", len(data))
	}

	value := binary.BigEndian.Uint64(data)
	if value == 0 {
		return "00", nil
	}

	const hexChars = "0123456789ABCDEF"
	var result [16]byte
	pos := len(result)
	for value > 0 {
		pos--
		result[pos] = hexChars[value&0x0F]
		value >>= 4
	}
	return string(result[pos:]), nil
}

// convertRowVersion is the column converter for TIMESTAMP/ROWVERSION.
func convertRowVersion(v any) (any, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected rowversion value %T", v)
	}
	return rowVersionHex(b)
}

// convertUniqueIdentifier formats a UNIQUEIDENTIFIER using the mixed-endian
// GUID layout SQL Server stores.
func convertUniqueIdentifier(v any) (any, error) {
	var u mssqldb.UniqueIdentifier
	if err := u.Scan(v); err != nil {
		return nil, fmt.Errorf("invalid uniqueidentifier: %w", err)
	}
	return u.String(), nil
}
