package tds

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedValue marks raw bytes inconsistent with the declared wire type.
	ErrMalformedValue = errors.New("tds: malformed value")

	// ErrUnsupportedType marks a wire type the decoder does not know.
	ErrUnsupportedType = errors.New("tds: unsupported type")
)

// DecodeError is returned for any column that cannot be decoded.
// Err is one of ErrMalformedValue or ErrUnsupportedType.
// Decode errors are fatal for the result set they occur in.
type DecodeError struct {
	Field  string
	Type   WireType
	Err    error
	Detail string
}

func (e *DecodeError) Error() string {
	msg := e.Err.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s for field '%s' (%s)", msg, e.Field, e.Type)
	} else if e.Type != 0 {
		msg = fmt.Sprintf("%s (%s)", msg, e.Type)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Malformed builds a DecodeError wrapping ErrMalformedValue.
func Malformed(f Field, format string, args ...any) *DecodeError {
	return &DecodeError{Field: f.Name, Type: f.Type, Err: ErrMalformedValue, Detail: fmt.Sprintf(format, args...)}
}

// Unsupported builds a DecodeError wrapping ErrUnsupportedType.
func Unsupported(f Field) *DecodeError {
	return &DecodeError{Field: f.Name, Type: f.Type, Err: ErrUnsupportedType}
}

func malformedf(format string, args ...any) error {
	return &DecodeError{Err: ErrMalformedValue, Detail: fmt.Sprintf(format, args...)}
}
