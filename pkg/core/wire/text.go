package wire

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeUCS2 converts UTF-16LE wire text (NVARCHAR, NCHAR, names) to UTF-8.
func decodeUCS2(b []byte) (string, error) {
	out, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func encodeUCS2(s string) ([]byte, error) {
	return utf16le.NewEncoder().Bytes([]byte(s))
}

// decodeSingleByte converts code-page text. A nil charset passes bytes through.
func decodeSingleByte(charset encoding.Encoding, b []byte) (string, error) {
	if charset == nil {
		return string(b), nil
	}
	out, err := charset.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func encodeSingleByte(charset encoding.Encoding, s string) ([]byte, error) {
	if charset == nil {
		return []byte(s), nil
	}
	return charset.NewEncoder().Bytes([]byte(s))
}
