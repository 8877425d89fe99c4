// Package siser frames blocks of data as human-readable records:
//
//	--- ${size} ${timestamp_in_unix_epoch_ms} ${name}\n
//	${data}\n
//
// It's used for the audit event log, where each event is a toon-encoded
// block of key / value pairs.
package siser

import (
	"bytes"
	"io"
	"strconv"
	"sync"
	"time"
)

var hdrPrefix = []byte("--- ")

// Writer writes records to in a structured format
type Writer struct {
	w io.Writer
	// NoTimestamp disables writing timestamp, which
	// makes serialized data not depend on when they were written
	NoTimestamp bool

	writeBuf bytes.Buffer
	mu       sync.Mutex
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w: w,
	}
}

// Write writes a block of data with timestamp and optional name.
// Zero t means current time.
// Returns number of bytes written (length of d + length of metadata)
func (w *Writer) Write(d []byte, t time.Time, name string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.NoTimestamp {
		t = time.Time{}
	} else if t.IsZero() {
		t = time.Now()
	}
	d2 := MarshalLine(name, t, d, &w.writeBuf)
	return w.w.Write(d2)
}

// MarshalLine serializes a single record. Zero t is not written.
// wb is re-used to avoid allocations, can be nil.
func MarshalLine(name string, t time.Time, d []byte, wb *bytes.Buffer) []byte {
	if wb == nil {
		wb = &bytes.Buffer{}
	} else {
		wb.Reset()
	}
	wb.Grow(len(hdrPrefix) + len(name) + len(d) + 32)

	wb.Write(hdrPrefix)
	dataLen := len(d)
	wb.WriteString(strconv.Itoa(dataLen))
	if !t.IsZero() {
		wb.WriteString(" ")
		wb.WriteString(strconv.FormatInt(t.UnixMilli(), 10))
	}
	if name != "" {
		wb.WriteString(" ")
		wb.WriteString(name)
	}
	wb.WriteByte('\n')
	// for readability, if the data doesn't end with newline,
	// we add one at the end
	if dataLen > 0 {
		wb.Write(d)
		if d[dataLen-1] != '\n' {
			wb.WriteByte('\n')
		}
	}
	return wb.Bytes()
}
