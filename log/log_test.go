package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert"
	"github.com/kjk/employees/require"
)

func todayFile(dir string, kind string) string {
	return filepath.Join(dir, kind, time.Now().UTC().Format("2006-01-02")+".txt")
}

func initTestLog(t *testing.T) (string, *bytes.Buffer) {
	dir := t.TempDir()
	var buf bytes.Buffer
	Init(&Config{
		Dir:     dir,
		Console: &buf,
	})
	t.Cleanup(Close)
	return dir, &buf
}

func TestLogf(t *testing.T) {
	dir, buf := initTestLog(t)
	var seen []string
	onLog = func(s string) {
		seen = append(seen, s)
	}

	Logf("added employee %d\n", 5)
	Verbose = false
	Verbosef("not logged\n")
	Verbose = true
	Verbosef("logged\n")
	Verbose = false
	Close()

	assert.Equal(t, "added employee 5\nlogged\n", buf.String())
	d, err := os.ReadFile(todayFile(dir, "log"))
	require.NoError(t, err)
	assert.Equal(t, "added employee 5\nlogged\n", string(d))
	assert.Equal(t, []string{"added employee 5\n", "logged\n"}, seen)
}

func TestErrorf(t *testing.T) {
	dir, buf := initTestLog(t)
	assert.False(t, IfErrf(nil))
	assert.True(t, IfErrf(errors.New("disk full")))
	assert.True(t, IfErrf(errors.New("x"), "append of %d failed", 7))
	Close()

	assert.Equal(t, "disk full\nappend of 7 failed\n", buf.String())
	d, err := os.ReadFile(todayFile(dir, "errors"))
	require.NoError(t, err)
	s := string(d)
	assert.True(t, strings.Contains(s, "disk full"))
	assert.True(t, strings.Contains(s, "log_test.go"), "missing callstack in %s", s)
}

func TestEvents(t *testing.T) {
	dir, _ := initTestLog(t)
	require.NoError(t, Event("employee.add", "id", 1, "name", "Ann"))
	require.NoError(t, Event("employee.add", "id", 2, "name", "Bo"))
	require.NoError(t, Event("backup"))

	var got []*EventRecord
	err := ReadEvents(dir, func(ev *EventRecord) bool {
		got = append(got, ev)
		return true
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "employee.add", got[0].Name)
	assert.True(t, strings.Contains(string(got[0].Data), "Ann"))
	assert.True(t, strings.Contains(string(got[1].Data), "Bo"))
	assert.Equal(t, "backup", got[2].Name)
	assert.Len(t, got[2].Data, 0)
	assert.False(t, got[0].Timestamp.IsZero())

	n := 0
	err = ReadEvents(dir, func(ev *EventRecord) bool {
		n++
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEventOddArgsPanics(t *testing.T) {
	defer func() {
		assert.NotNil(t, recover())
	}()
	_ = Event("bad", "id")
}

func TestReadEventsMissingDir(t *testing.T) {
	n := 0
	err := ReadEvents(filepath.Join(t.TempDir(), "nope"), func(ev *EventRecord) bool {
		n++
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestNoDir(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Console: &buf})
	defer Close()
	Logf("only console\n")
	require.NoError(t, Event("x", "a", 1))
	assert.Equal(t, "only console\n", buf.String())
}
