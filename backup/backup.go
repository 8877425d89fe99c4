// Package backup creates and restores snapshots of the employee data file,
// locally or in S3-compatible storage.
//
// A snapshot is the data file, optionally compressed. Compression is picked
// from the file extension: .zst, .br, .gz, .lz4 or none.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/kjk/employees/atomicfile"
	"github.com/kjk/employees/empstore"
	"github.com/kjk/employees/log"
	"github.com/kjk/employees/u"
	"github.com/minio/minio-go/v7"
)

// ErrNotEmpty is returned when restoring into a store that has records.
// Records are never deleted so a snapshot only goes into an empty store.
var ErrNotEmpty = errors.New("data file is not empty")

// Remote is implemented by *minioutil.Client
type Remote interface {
	UploadFile(ctx context.Context, name string, path string) (minio.UploadInfo, error)
	DownloadFileAtomically(ctx context.Context, dstPath string, name string) error
}

type Info struct {
	Path    string
	Records int
	// size of the snapshot file, after compression
	Size int64
}

// Create writes a snapshot of s to dstPath. Records are read and
// re-encoded so a damaged data file fails the backup instead of
// being copied.
func Create(s *empstore.Store, dstPath string) (*Info, error) {
	f, err := atomicfile.New(dstPath)
	if err != nil {
		return nil, err
	}
	defer f.RemoveIfNotClosed()

	w, err := u.NewWriterMaybeCompressed(f, u.CompressionFromPath(dstPath))
	if err != nil {
		return nil, err
	}
	wClosed := false
	defer func() {
		if !wClosed {
			w.Close()
		}
	}()
	n := 0
	buf := make([]byte, empstore.RecordSize)
	for e, err := range s.All() {
		if err != nil {
			return nil, err
		}
		if err = empstore.Encode(&e, buf); err != nil {
			return nil, err
		}
		if _, err = w.Write(buf); err != nil {
			return nil, err
		}
		n++
	}
	wClosed = true
	if err = w.Close(); err != nil {
		return nil, err
	}
	if err = f.Close(); err != nil {
		return nil, err
	}
	res := &Info{
		Path:    dstPath,
		Records: n,
		Size:    u.FileSize(dstPath),
	}
	log.Verbosef("backup: wrote %d records to '%s' (%d bytes)\n", n, dstPath, res.Size)
	return res, nil
}

// Read decodes all records from a snapshot. The snapshot must contain
// only complete, valid records with unique ids.
func Read(path string) ([]empstore.Employee, error) {
	r, err := u.OpenFileMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return readRecords(r, path)
}

func readRecords(r io.Reader, path string) ([]empstore.Employee, error) {
	d, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", path, err)
	}
	if len(d)%empstore.RecordSize != 0 {
		return nil, fmt.Errorf("%w: '%s' is %d bytes, not a multiple of %d", empstore.ErrCorrupt, path, len(d), empstore.RecordSize)
	}
	n := len(d) / empstore.RecordSize
	res := make([]empstore.Employee, 0, n)
	seen := roaring.New()
	for i := 0; i < n; i++ {
		e, err := empstore.Decode(d[i*empstore.RecordSize:])
		if err != nil {
			return nil, err
		}
		if err = empstore.Validate(&e); err != nil {
			return nil, fmt.Errorf("record %d in '%s': %w", i, path, err)
		}
		// ids are validated to be positive so they fit in uint32
		if !seen.CheckedAdd(uint32(e.ID)) {
			return nil, fmt.Errorf("record %d in '%s': %w: %d", i, path, empstore.ErrDuplicateID, e.ID)
		}
		res = append(res, e)
	}
	return res, nil
}

// checkEmpty returns ErrNotEmpty if the data file of s has any data,
// including a partial record
func checkEmpty(s *empstore.Store) error {
	path := s.FilePath()
	if size := u.FileSize(path); size > 0 {
		return fmt.Errorf("%w: '%s' is %d bytes", ErrNotEmpty, path, size)
	}
	return nil
}

// Restore writes records from a snapshot into s, which must be empty.
// The data file is written atomically and only if the whole
// snapshot is valid.
func Restore(s *empstore.Store, srcPath string) (int, error) {
	if err := checkEmpty(s); err != nil {
		return 0, err
	}
	emps, err := Read(srcPath)
	if err != nil {
		return 0, err
	}
	d := make([]byte, len(emps)*empstore.RecordSize)
	for i := range emps {
		if err = empstore.Encode(&emps[i], d[i*empstore.RecordSize:]); err != nil {
			return 0, err
		}
	}
	dst := s.FilePath()
	if err = os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, err
	}
	// the store might have been written to while we were reading
	if err = checkEmpty(s); err != nil {
		return 0, err
	}
	if err = atomicfile.WriteFile(dst, d); err != nil {
		return 0, fmt.Errorf("%w '%s': %w", empstore.ErrWrite, dst, err)
	}
	log.Verbosef("backup: restored %d records from '%s'\n", len(emps), srcPath)
	return len(emps), nil
}

// Upload creates a snapshot in a temporary directory and uploads it as name
func Upload(ctx context.Context, remote Remote, s *empstore.Store, name string) (*Info, error) {
	dir, err := os.MkdirTemp("", "emp-backup-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, filepath.Base(name))
	info, err := Create(s, path)
	if err != nil {
		return nil, err
	}
	if _, err = remote.UploadFile(ctx, name, path); err != nil {
		return nil, fmt.Errorf("upload of '%s' failed: %w", name, err)
	}
	info.Path = name
	return info, nil
}

// Download fetches snapshot name and restores it into s, which must be empty
func Download(ctx context.Context, remote Remote, s *empstore.Store, name string) (int, error) {
	if err := checkEmpty(s); err != nil {
		return 0, err
	}
	dir, err := os.MkdirTemp("", "emp-restore-")
	if err != nil {
		return 0, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, filepath.Base(name))
	if err = remote.DownloadFileAtomically(ctx, path, name); err != nil {
		return 0, fmt.Errorf("download of '%s' failed: %w", name, err)
	}
	return Restore(s, path)
}
