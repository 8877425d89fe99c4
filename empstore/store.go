package empstore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
)

// DefaultFileName is used when Store.Path is empty
const DefaultFileName = "employees.dat"

type Store struct {
	// Path of the data file. The file is created on first Append.
	Path string
	// NoSync skips fsync after each append. Faster, useful in tests
	// and bulk imports.
	NoSync bool
}

func New(path string) *Store {
	return &Store{Path: path}
}

// FilePath returns path of the data file
func (s *Store) FilePath() string {
	return s.path()
}

func (s *Store) path() string {
	if s.Path == "" {
		return DefaultFileName
	}
	return s.Path
}

// Add validates e, makes sure its id is not taken and appends it.
// Rejected records never touch the file.
func (s *Store) Add(e *Employee) error {
	if err := Validate(e); err != nil {
		return err
	}
	exists, err := s.Exists(e.ID)
	if err != nil {
		return err
	}
	if exists {
		return validationErr("id", fmt.Errorf("%w: %d", ErrDuplicateID, e.ID))
	}
	return s.Append(e)
}

// Append writes e as a single block at the end of the file.
// The caller is responsible for validation (see Add).
// If the write fails, the file is truncated back to its previous
// size so that a partial record is never left behind.
func (s *Store) Append(e *Employee) error {
	var buf [RecordSize]byte
	if err := Encode(e, buf[:]); err != nil {
		return err
	}
	return appendToFileRobust(s.path(), buf[:], !s.NoSync)
}

// writeRecord is replaced in tests to simulate failed writes
var writeRecord = func(f *os.File, d []byte) (int, error) {
	return f.Write(d)
}

func appendToFileRobust(path string, d []byte, sync bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w '%s': %w", ErrOpen, path, err)
		}
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("%w '%s': %w", ErrOpen, path, err)
	}
	// with O_APPEND writes go to the end so the size before
	// the write is where we roll back to
	st, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("%w '%s': %w", ErrOpen, path, err)
	}
	offset := st.Size()

	rollback := func(err error) error {
		_ = file.Truncate(offset)
		file.Close()
		return fmt.Errorf("%w to '%s': %w", ErrWrite, path, err)
	}

	n, err := writeRecord(file, d)
	if err == nil && n != len(d) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return rollback(err)
	}
	if sync {
		if err = file.Sync(); err != nil {
			return rollback(err)
		}
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("%w to '%s': %w", ErrWrite, path, err)
	}
	return nil
}

// All returns a sequence of all records in storage order.
// A missing file is an empty store. Each iteration re-opens the file
// and reads it from the beginning.
func (s *Store) All() iter.Seq2[Employee, error] {
	return func(yield func(Employee, error) bool) {
		path := s.path()
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return
			}
			yield(Employee{}, fmt.Errorf("%w '%s': %w", ErrOpen, path, err))
			return
		}
		defer f.Close()

		r := bufio.NewReaderSize(f, RecordSize*64)
		buf := make([]byte, RecordSize)
		var off int64
		for {
			_, err = io.ReadFull(r, buf)
			if err == io.EOF {
				return
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				yield(Employee{}, fmt.Errorf("%w: '%s' offset %d", ErrCorrupt, path, off))
				return
			}
			if err != nil {
				yield(Employee{}, fmt.Errorf("failed to read '%s' at offset %d: %w", path, off, err))
				return
			}
			e, derr := Decode(buf)
			if !yield(e, derr) {
				return
			}
			off += RecordSize
		}
	}
}

// ScanAll calls fn for every record in storage order and returns
// the number of records visited
func (s *Store) ScanAll(fn func(Employee)) (int, error) {
	n := 0
	for e, err := range s.All() {
		if err != nil {
			return n, err
		}
		n++
		if fn != nil {
			fn(e)
		}
	}
	return n, nil
}

// FindByID returns the first record with a given id.
// Returns ErrNotFound if there's none.
func (s *Store) FindByID(id int32) (Employee, error) {
	for e, err := range s.All() {
		if err != nil {
			return Employee{}, err
		}
		if e.ID == id {
			return e, nil
		}
	}
	return Employee{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
}

func (s *Store) Exists(id int32) (bool, error) {
	_, err := s.FindByID(id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Count returns number of complete records, based on the file size
func (s *Store) Count() (int, error) {
	st, err := os.Stat(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w '%s': %w", ErrOpen, s.path(), err)
	}
	return int(st.Size() / RecordSize), nil
}
