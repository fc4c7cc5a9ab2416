// Package wire reads and writes TDS token streams carrying result sets.
//
// The layout follows MS-TDS 7.2 for COLMETADATA, ROW and DONE tokens, all
// integers little-endian:
//
//	COLMETADATA 0x81  count:u16, per column: usertype:u32 flags:u16 TYPE_INFO name:B_VARCHAR
//	ROW         0xD1  column data in descriptor order
//	DONE        0xFD  status:u16 curcmd:u16 rowcount:u64 (also DONEPROC 0xFE, DONEINPROC 0xFF)
//	ERROR       0xAA  length:u16 number:i32 state:u8 class:u8 msg:US_VARCHAR server:B_VARCHAR proc:B_VARCHAR line:i32
//
// INFO, ENVCHANGE, ORDER, LOGINACK and RETURNSTATUS tokens are skipped.
//
// A Reader implements resultset.Source, so a result set read off the wire
// can be wrapped directly in a cursor:
//
//	r := wire.NewReader(conn)
//	fields, err := r.NextResult()
//	rs := resultset.NewBuffered(r, fields)
package wire

import (
	"fmt"
)

// Token types.
const (
	TokenReturnStatus byte = 0x79
	TokenColMetadata  byte = 0x81
	TokenOrder        byte = 0xA9
	TokenError        byte = 0xAA
	TokenInfo         byte = 0xAB
	TokenLoginAck     byte = 0xAD
	TokenRow          byte = 0xD1
	TokenEnvChange    byte = 0xE3
	TokenDone         byte = 0xFD
	TokenDoneProc     byte = 0xFE
	TokenDoneInProc   byte = 0xFF
)

// DONE status bits.
const (
	DoneFinal  uint16 = 0x0000
	DoneMore   uint16 = 0x0001
	DoneError  uint16 = 0x0002
	DoneInXact uint16 = 0x0004
	DoneCount  uint16 = 0x0010
	DoneAttn   uint16 = 0x0020
)

// noMetadata is the COLMETADATA count sent when a statement has no columns.
const noMetadata uint16 = 0xFFFF

// nullLength marks a NULL value of a USHORTLEN type.
const nullLength uint16 = 0xFFFF

// Column flags.
const (
	flagNullable uint16 = 0x0001
)

// defaultCollation is Latin1_General_CI_AS.
var defaultCollation = [5]byte{0x09, 0x04, 0xD0, 0x00, 0x34}

// Done is the payload of a DONE, DONEPROC or DONEINPROC token.
type Done struct {
	Token    byte
	Status   uint16
	CurCmd   uint16
	RowCount uint64
}

// More reports whether further results follow.
func (d Done) More() bool { return d.Status&DoneMore != 0 }

// HasCount reports whether RowCount is valid.
func (d Done) HasCount() bool { return d.Status&DoneCount != 0 }

// ServerError is an ERROR token raised by the server inside a result stream.
type ServerError struct {
	Number     int32
	State      uint8
	Class      uint8
	Message    string
	ServerName string
	ProcName   string
	LineNumber int32
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("tds: server error %d (state %d, class %d): %s", e.Number, e.State, e.Class, e.Message)
}
