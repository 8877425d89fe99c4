package u

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type Compression string

const (
	CompressionNone   Compression = ""
	CompressionGzip   Compression = "gzip"
	CompressionZstd   Compression = "zstd"
	CompressionBrotli Compression = "brotli"
	CompressionLZ4    Compression = "lz4"
)

// CompressionFromPath picks compression based on file extension
func CompressionFromPath(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	case ".br":
		return CompressionBrotli
	case ".lz4":
		return CompressionLZ4
	}
	return CompressionNone
}

// implement io.ReadCloser over os.File wrapped with io.Reader.
// io.Closer goes to os.File (and decoder, if it needs closing),
// io.Reader goes to wrapping reader
type readerWrappedFile struct {
	f       *os.File
	r       io.Reader
	closeFn func()
}

func (rc *readerWrappedFile) Close() error {
	if rc.closeFn != nil {
		rc.closeFn()
	}
	return rc.f.Close()
}

func (rc *readerWrappedFile) Read(p []byte) (int, error) {
	return rc.r.Read(p)
}

// NewReaderMaybeCompressed wraps r in a decompressor
func NewReaderMaybeCompressed(r io.Reader, c Compression) (io.Reader, func(), error) {
	switch c {
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { zr.Close() }, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case CompressionBrotli:
		return brotli.NewReader(r), nil, nil
	case CompressionLZ4:
		return lz4.NewReader(r), nil, nil
	}
	return r, nil, nil
}

// OpenFileMaybeCompressed opens a file that might be compressed,
// based on file extension
func OpenFileMaybeCompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	c := CompressionFromPath(path)
	if c == CompressionNone {
		return f, nil
	}
	r, closeFn, err := NewReaderMaybeCompressed(f, c)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &readerWrappedFile{
		f:       f,
		r:       r,
		closeFn: closeFn,
	}, nil
}

// ReadFileMaybeCompressed reads file, decompressing if needed
func ReadFileMaybeCompressed(path string) ([]byte, error) {
	r, err := OpenFileMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// NewWriterMaybeCompressed wraps w in a compressor. Close() must be called
// to flush compressed data; it doesn't close w.
func NewWriterMaybeCompressed(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionGzip:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case CompressionZstd:
		// in my tests zstd.SpeedBestCompression is much slower and not much better.
		// zero frames so that an empty store produces a readable snapshot
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithZeroFrames(true))
	case CompressionBrotli:
		return brotli.NewWriterLevel(w, brotli.BestCompression), nil
	case CompressionLZ4:
		// fast, for big exports
		return lz4.NewWriter(w), nil
	}
	return nopWriteCloser{w}, nil
}
