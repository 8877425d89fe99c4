package siser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Reader reads records written by Writer
type Reader struct {
	r *bufio.Reader

	// hints that the data was written without a timestamp
	// (see Writer.NoTimestamp)
	NoTimestamp bool

	// Data / Name / Timestamp are available after ReadNextData.
	// They are over-written in next ReadNextData.
	Data      []byte
	Name      string
	Timestamp time.Time

	err  error
	done bool
}

func NewReader(r io.Reader) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{
		r: br,
	}
}

// Done returns true if we're finished reading from the reader
func (r *Reader) Done() bool {
	return r.err != nil || r.done
}

// Err returns error from last read. io.EOF is not an error.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) badHeader(hdr []byte) bool {
	r.err = fmt.Errorf("unexpected header '%s'", string(bytes.TrimSpace(hdr)))
	return false
}

// ReadNextData reads next record, returns false when there are no
// more records. If returns false, check Err() to see if there were errors.
func (r *Reader) ReadNextData() bool {
	if r.Done() {
		return false
	}
	r.Name = ""
	r.Timestamp = time.Time{}

	hdr, err := r.r.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(hdr) == 0 {
			r.done = true
		} else if err == io.EOF {
			r.err = io.ErrUnexpectedEOF
		} else {
			r.err = err
		}
		return false
	}
	rest, ok := bytes.CutPrefix(hdr[:len(hdr)-1], hdrPrefix)
	if !ok {
		return r.badHeader(hdr)
	}

	parts := bytes.SplitN(rest, []byte{' '}, 3)
	size, err := strconv.Atoi(string(parts[0]))
	if err != nil || size < 0 {
		return r.badHeader(hdr)
	}
	parts = parts[1:]
	if !r.NoTimestamp {
		if len(parts) == 0 {
			return r.badHeader(hdr)
		}
		ms, err := strconv.ParseInt(string(parts[0]), 10, 64)
		if err != nil {
			return r.badHeader(hdr)
		}
		r.Timestamp = time.UnixMilli(ms)
		parts = parts[1:]
	}
	if len(parts) > 0 {
		r.Name = string(bytes.Join(parts, []byte{' '}))
	}

	r.Data = make([]byte, size)
	if _, err = io.ReadFull(r.r, r.Data); err != nil {
		r.err = err
		return false
	}
	// same as newline logic in MarshalLine
	if size > 0 && r.Data[size-1] != '\n' {
		if _, err = r.r.Discard(1); err != nil {
			r.err = err
			return false
		}
	}
	return true
}
