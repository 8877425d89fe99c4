package empstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

const (
	NameLen     = 50
	PositionLen = 50

	idOff       = 0
	nameOff     = idOff + 4
	positionOff = nameOff + NameLen
	salaryOff   = positionOff + PositionLen

	// RecordSize is the size of a single encoded record
	RecordSize = salaryOff + 4
)

// Encode writes e into buf, which must be at least RecordSize bytes.
// Text fields are zero padded. Returns an error if a text field
// doesn't fit.
func Encode(e *Employee, buf []byte) error {
	if len(buf) < RecordSize {
		return fmt.Errorf("buffer too small: %d bytes, need %d", len(buf), RecordSize)
	}
	if len(e.Name) > NameLen {
		return validationErr("name", ErrFieldTooLong)
	}
	if len(e.Position) > PositionLen {
		return validationErr("position", ErrFieldTooLong)
	}
	buf = buf[:RecordSize]
	clear(buf)
	binary.LittleEndian.PutUint32(buf[idOff:], uint32(e.ID))
	copy(buf[nameOff:nameOff+NameLen], e.Name)
	copy(buf[positionOff:positionOff+PositionLen], e.Position)
	binary.LittleEndian.PutUint32(buf[salaryOff:], math.Float32bits(e.Salary))
	return nil
}

func decodeText(d []byte) string {
	return string(bytes.TrimRight(d, "\x00"))
}

// Decode parses a record from the first RecordSize bytes of buf
func Decode(buf []byte) (Employee, error) {
	var e Employee
	if len(buf) < RecordSize {
		return e, fmt.Errorf("buffer too small: %d bytes, need %d", len(buf), RecordSize)
	}
	e.ID = int32(binary.LittleEndian.Uint32(buf[idOff:]))
	e.Name = decodeText(buf[nameOff : nameOff+NameLen])
	e.Position = decodeText(buf[positionOff : positionOff+PositionLen])
	e.Salary = math.Float32frombits(binary.LittleEndian.Uint32(buf[salaryOff:]))
	return e, nil
}

func (e *Employee) MarshalBinary() ([]byte, error) {
	buf := make([]byte, RecordSize)
	if err := Encode(e, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (e *Employee) UnmarshalBinary(d []byte) error {
	if len(d) != RecordSize {
		return fmt.Errorf("invalid record size: %d, expected %d", len(d), RecordSize)
	}
	var err error
	*e, err = Decode(d)
	return err
}
