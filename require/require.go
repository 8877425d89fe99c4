// Package require is like github.com/alecthomas/assert but stops
// the test on the first failure.
package require

import (
	"errors"

	"github.com/alecthomas/assert"
)

// TestingT is an interface wrapper around *testing.T
type TestingT interface {
	Errorf(format string, args ...interface{})
	FailNow()
}

// recorder remembers if an assertion reported a failure
type recorder struct {
	t      TestingT
	failed bool
}

func (r *recorder) Errorf(format string, args ...interface{}) {
	r.failed = true
	r.t.Errorf(format, args...)
}

func (r *recorder) FailNow() {
	r.failed = true
	r.t.FailNow()
}

// check runs fn against a recorder and stops the test if it failed
func check(t TestingT, fn func(t assert.TestingT)) {
	r := &recorder{t: t}
	fn(r)
	if r.failed {
		t.FailNow()
	}
}

// Len asserts that the specified object has specific length.
//
//	require.Len(t, mySlice, 3)
func Len(t TestingT, object interface{}, length int, msgAndArgs ...interface{}) {
	check(t, func(t assert.TestingT) {
		assert.Len(t, object, length, msgAndArgs...)
	})
}

// NoError asserts that a function returned no error (i.e. `nil`).
//
//	err := store.Add(e)
//	require.NoError(t, err)
func NoError(t TestingT, err error, msgAndArgs ...interface{}) {
	check(t, func(t assert.TestingT) {
		assert.NoError(t, err, msgAndArgs...)
	})
}

// Error asserts that a function returned an error
func Error(t TestingT, err error, msgAndArgs ...interface{}) {
	check(t, func(t assert.TestingT) {
		assert.Error(t, err, msgAndArgs...)
	})
}

// ErrorIs asserts that errors.Is(err, target) is true
//
//	require.ErrorIs(t, err, empstore.ErrNotFound)
func ErrorIs(t TestingT, err error, target error) {
	if errors.Is(err, target) {
		return
	}
	t.Errorf("expected error matching '%v', got '%v'", target, err)
	t.FailNow()
}

// Equal asserts that two objects are equal.
//
//	require.Equal(t, 123, 123)
func Equal(t TestingT, expected interface{}, actual interface{}, msgAndArgs ...interface{}) {
	check(t, func(t assert.TestingT) {
		assert.Equal(t, expected, actual, msgAndArgs...)
	})
}

// True asserts that the specified value is true.
//
//	require.True(t, myBool)
func True(t TestingT, value bool, msgAndArgs ...interface{}) {
	check(t, func(t assert.TestingT) {
		assert.True(t, value, msgAndArgs...)
	})
}

// False asserts that the specified value is false.
//
//	require.False(t, myBool)
func False(t TestingT, value bool, msgAndArgs ...interface{}) {
	check(t, func(t assert.TestingT) {
		assert.False(t, value, msgAndArgs...)
	})
}
