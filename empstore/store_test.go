package empstore

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/alecthomas/assert"
	"github.com/kjk/employees/require"
)

var rng = rand.New(rand.NewSource(time.Now().UnixNano()))

func createStore(t *testing.T) *Store {
	dir := t.TempDir()
	return &Store{
		Path:   filepath.Join(dir, "employees.dat"),
		NoSync: true,
	}
}

func fileSize(t *testing.T, path string) int64 {
	st, err := os.Stat(path)
	if os.IsNotExist(err) {
		return -1
	}
	require.NoError(t, err)
	return st.Size()
}

func scanAll(t *testing.T, s *Store) []Employee {
	var res []Employee
	n, err := s.ScanAll(func(e Employee) {
		res = append(res, e)
	})
	require.NoError(t, err)
	require.Equal(t, len(res), n)
	return res
}

func genRandomEmployees(n int) []Employee {
	positions := []string{"Clerk", "Lead", "Engineer", "Manager", "Intern"}
	res := make([]Employee, n)
	for i := range res {
		res[i] = Employee{
			ID:       int32(i + 1),
			Name:     fmt.Sprintf("name_%c%d", 'a'+rng.Intn(26), i),
			Position: positions[rng.Intn(len(positions))],
			Salary:   float32(rng.Intn(1000000)) / 100,
		}
	}
	return res
}

func TestStoreScenario(t *testing.T) {
	s := createStore(t)
	ann := Employee{ID: 1, Name: "Ann", Position: "Clerk", Salary: 1000.00}
	bo := Employee{ID: 2, Name: "Bo", Position: "Lead", Salary: 2500.50}

	require.NoError(t, s.Add(&ann))
	require.NoError(t, s.Add(&bo))
	assert.Equal(t, []Employee{ann, bo}, scanAll(t, s))

	got, err := s.FindByID(2)
	require.NoError(t, err)
	assert.Equal(t, bo, got)

	_, err = s.FindByID(3)
	require.ErrorIs(t, err, ErrNotFound)

	dup := Employee{ID: 1, Name: "Cy", Position: "Temp", Salary: 1}
	err = s.Add(&dup)
	require.ErrorIs(t, err, ErrDuplicateID)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, []Employee{ann, bo}, scanAll(t, s))
	assert.Equal(t, int64(2*RecordSize), fileSize(t, s.Path))
}

func TestStoreMissingFile(t *testing.T) {
	s := createStore(t)

	n, err := s.ScanAll(func(e Employee) {
		t.Fatalf("unexpected record %v", e)
	})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	ok, err := s.Exists(1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.FindByID(1)
	require.ErrorIs(t, err, ErrNotFound)

	n, err = s.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// reads don't create the file
	assert.Equal(t, int64(-1), fileSize(t, s.Path))
}

func TestStoreEmptyFile(t *testing.T) {
	s := createStore(t)
	require.NoError(t, os.WriteFile(s.Path, nil, 0644))
	assert.Len(t, scanAll(t, s), 0)
}

func TestStoreRejectsInvalid(t *testing.T) {
	s := createStore(t)
	require.NoError(t, s.Add(&Employee{ID: 5, Name: "Ann", Position: "Clerk"}))

	invalid := []Employee{
		{ID: 0, Name: "Ann", Position: "Clerk"},
		{ID: -3, Name: "Ann", Position: "Clerk"},
		{ID: 6, Name: "   ", Position: "Clerk"},
		{ID: 6, Name: "Ann", Position: ""},
		{ID: 6, Name: "Ann", Position: "Clerk", Salary: -1},
		{ID: 5, Name: "Ann", Position: "Clerk"},
	}
	for _, e := range invalid {
		err := s.Add(&e)
		require.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, int64(RecordSize), fileSize(t, s.Path), "after %v", e)
	}
}

func TestStoreNotFoundDoesNotModify(t *testing.T) {
	s := createStore(t)
	require.NoError(t, s.Add(&Employee{ID: 1, Name: "Ann", Position: "Clerk"}))
	before, err := os.ReadFile(s.Path)
	require.NoError(t, err)

	_, err = s.FindByID(42)
	require.ErrorIs(t, err, ErrNotFound)

	after, err := os.ReadFile(s.Path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStoreManyRecords(t *testing.T) {
	s := createStore(t)
	emps := genRandomEmployees(500)
	for i := range emps {
		require.NoError(t, s.Append(&emps[i]))
	}

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, len(emps), n)
	assert.Equal(t, emps, scanAll(t, s))

	for _, i := range []int{0, 1, 250, 499} {
		got, err := s.FindByID(emps[i].ID)
		require.NoError(t, err)
		assert.Equal(t, emps[i], got)
	}
}

func TestStoreFindFirstMatch(t *testing.T) {
	// ids are unique when written through Add, but Append doesn't check
	s := createStore(t)
	require.NoError(t, s.Append(&Employee{ID: 9, Name: "first", Position: "p"}))
	require.NoError(t, s.Append(&Employee{ID: 9, Name: "second", Position: "p"}))
	got, err := s.FindByID(9)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)
}

func TestStoreAllStopsEarly(t *testing.T) {
	s := createStore(t)
	emps := genRandomEmployees(10)
	for i := range emps {
		require.NoError(t, s.Append(&emps[i]))
	}
	n := 0
	for _, err := range s.All() {
		require.NoError(t, err)
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
	// restartable
	assert.Len(t, scanAll(t, s), 10)
}

func TestStoreCorruptTail(t *testing.T) {
	s := createStore(t)
	require.NoError(t, s.Add(&Employee{ID: 1, Name: "Ann", Position: "Clerk"}))
	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var got []Employee
	n, err := s.ScanAll(func(e Employee) {
		got = append(got, e)
	})
	require.ErrorIs(t, err, ErrCorrupt)
	assert.Equal(t, 1, n)
	assert.Len(t, got, 1)

	// a match before the damaged part is still found
	e, err := s.FindByID(1)
	require.NoError(t, err)
	assert.Equal(t, "Ann", e.Name)
	_, err = s.FindByID(2)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestStoreOpenFailure(t *testing.T) {
	// a directory can't be opened for writing
	s := &Store{Path: t.TempDir()}
	err := s.Append(&Employee{ID: 1, Name: "Ann", Position: "Clerk"})
	require.ErrorIs(t, err, ErrOpen)
	assert.False(t, errors.Is(err, ErrWrite))
}

func TestStoreRejectsNul(t *testing.T) {
	s := createStore(t)
	err := s.Add(&Employee{ID: 1, Name: "\x00", Position: "Clerk\x00"})
	require.ErrorIs(t, err, ErrNulByte)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, int64(-1), fileSize(t, s.Path))
}

func TestStoreWriteFailure(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("needs /dev/full")
	}
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("no /dev/full")
	}
	s := &Store{Path: "/dev/full", NoSync: true}
	err := s.Append(&Employee{ID: 1, Name: "Ann", Position: "Clerk"})
	require.ErrorIs(t, err, ErrWrite)
	assert.False(t, errors.Is(err, ErrOpen))
}

func failWrites(t *testing.T, n int, err error) {
	orig := writeRecord
	writeRecord = func(f *os.File, d []byte) (int, error) {
		written, werr := f.Write(d[:n])
		if werr != nil {
			return written, werr
		}
		return written, err
	}
	t.Cleanup(func() {
		writeRecord = orig
	})
}

func TestStoreWriteRollback(t *testing.T) {
	s := createStore(t)
	ann := Employee{ID: 1, Name: "Ann", Position: "Clerk", Salary: 1000}
	require.NoError(t, s.Add(&ann))

	// part of the record reaches the file before the error
	failWrites(t, RecordSize/2, errors.New("disk on fire"))
	err := s.Add(&Employee{ID: 2, Name: "Bo", Position: "Lead"})
	require.ErrorIs(t, err, ErrWrite)
	assert.Equal(t, int64(RecordSize), fileSize(t, s.Path))
	assert.Equal(t, []Employee{ann}, scanAll(t, s))
}

func TestStoreShortWriteRollback(t *testing.T) {
	s := createStore(t)
	ann := Employee{ID: 1, Name: "Ann", Position: "Clerk", Salary: 1000}
	require.NoError(t, s.Add(&ann))

	// no error but not everything written
	failWrites(t, 10, nil)
	err := s.Add(&Employee{ID: 2, Name: "Bo", Position: "Lead"})
	require.ErrorIs(t, err, ErrWrite)
	assert.Equal(t, int64(RecordSize), fileSize(t, s.Path))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStoreCreatesDir(t *testing.T) {
	s := &Store{Path: filepath.Join(t.TempDir(), "sub", "dir", "emp.dat")}
	require.NoError(t, s.Add(&Employee{ID: 1, Name: "Ann", Position: "Clerk", Salary: 1}))
	assert.Equal(t, int64(RecordSize), fileSize(t, s.Path))
}

func TestStoreReopen(t *testing.T) {
	s := createStore(t)
	require.NoError(t, s.Add(&Employee{ID: 1, Name: "Ann", Position: "Clerk", Salary: 1000}))
	s2 := New(s.Path)
	ok, err := s2.Exists(1)
	require.NoError(t, err)
	assert.True(t, ok)
	require.ErrorIs(t, s2.Add(&Employee{ID: 1, Name: "Ann", Position: "Clerk"}), ErrDuplicateID)
}

func TestDefaultPath(t *testing.T) {
	s := &Store{}
	assert.Equal(t, DefaultFileName, s.path())
}
