package console

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert"
	"github.com/kjk/employees/empstore"
	"github.com/kjk/employees/require"
)

func createApp(t *testing.T, input string) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	s := &empstore.Store{
		Path:   filepath.Join(t.TempDir(), "employees.dat"),
		NoSync: true,
	}
	in := NewPrompter(strings.NewReader(input), &out)
	in.MaxAttempts = 3
	return &App{Store: s, In: in, Out: &out}, &out
}

func lines(a ...string) string {
	return strings.Join(a, "\n") + "\n"
}

func TestAppScenario(t *testing.T) {
	input := lines(
		"1", "1", "Ann", "Clerk", "1000", "",
		"1", "2", "Bo", "Lead", "2500.50", "",
		"2", "",
		"3", "2", "",
		"3", "3", "",
		"4",
	)
	a, out := createApp(t, input)
	var added []int32
	a.OnAdd = func(e *empstore.Employee) {
		added = append(added, e.ID)
	}
	require.NoError(t, a.Run())
	assert.Equal(t, []int32{1, 2}, added)

	s := out.String()
	assert.Equal(t, 2, strings.Count(s, "Employee added successfully."))
	assert.True(t, strings.Contains(s, "1        Ann                      Clerk                         1000.00\n"))
	assert.True(t, strings.Contains(s, "2        Bo                       Lead                          2500.50\n"))
	assert.True(t, strings.Contains(s, "\nTotal: 2\n"))
	assert.True(t, strings.Contains(s, "Employee found:\nID:       2\nName:     Bo\nPosition: Lead\nSalary:   2500.50\n"))
	assert.True(t, strings.Contains(s, "Employee with ID 3 not found.\n"))
	assert.True(t, strings.HasSuffix(s, "Exiting the program.\n"))
	assert.Equal(t, 6, strings.Count(s, "Enter your choice: "))

	n, err := a.Store.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAppDuplicateID(t *testing.T) {
	input := lines(
		"1", "1", "Ann", "Clerk", "1000", "",
		"1", "1", "0", "abc", "",
		"4",
	)
	a, out := createApp(t, input)
	require.NoError(t, a.Run())

	s := out.String()
	assert.True(t, strings.Contains(s, "Error: invalid id: id already exists. Please try again.\n"))
	assert.True(t, strings.Contains(s, "Error: invalid id: id must be a positive integer. Please try again.\n"))
	assert.True(t, strings.Contains(s, "too many invalid attempts, going back to the menu.\n"))

	n, err := a.Store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAppEmptyList(t *testing.T) {
	a, out := createApp(t, lines("2", "", "4"))
	require.NoError(t, a.Run())
	s := out.String()
	assert.True(t, strings.Contains(s, "No employees found.\n"))
	assert.False(t, strings.Contains(s, "Total:"))
}

func TestAppInvalidChoice(t *testing.T) {
	a, out := createApp(t, lines("7", "", "x", "4"))
	require.NoError(t, a.Run())
	s := out.String()
	assert.True(t, strings.Contains(s, "Invalid choice. Please try again.\n"))
	assert.True(t, strings.Contains(s, "Invalid input. Please enter an integer.\n"))
}

func TestAppEndOfInput(t *testing.T) {
	// input ends in the middle of adding an employee
	a, out := createApp(t, lines("1", "5", "Ann"))
	require.NoError(t, a.Run())
	assert.False(t, strings.Contains(out.String(), "Employee added successfully."))
	_, err := os.Stat(a.Store.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestAppSearchOutOfRange(t *testing.T) {
	a, out := createApp(t, lines("3", "-4", "", "3", "99999999999", "", "4"))
	require.NoError(t, a.Run())
	s := out.String()
	assert.True(t, strings.Contains(s, "Employee with ID -4 not found.\n"))
	assert.True(t, strings.Contains(s, "Employee with ID 99999999999 not found.\n"))
}

func TestAppClearScreen(t *testing.T) {
	a, out := createApp(t, lines("4"))
	a.ClearScreen = true
	require.NoError(t, a.Run())
	assert.True(t, strings.HasPrefix(out.String(), clearSeq))
}

func TestAppStoreError(t *testing.T) {
	// a directory where data file should be makes every write fail
	a, out := createApp(t, lines("1", "1", "", "4"))
	require.NoError(t, os.MkdirAll(a.Store.Path, 0755))
	var reported []error
	a.OnError = func(err error) {
		reported = append(reported, err)
	}
	require.NoError(t, a.Run())
	assert.Equal(t, 1, len(reported))
	assert.True(t, strings.Contains(out.String(), "Error: failed to read employee data: "))
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, nil))
	assert.Equal(t, "No employees found.\n", buf.String())

	buf.Reset()
	emps := []empstore.Employee{{ID: 1, Name: "Ann", Position: "Clerk", Salary: 1000}}
	require.NoError(t, WriteTable(&buf, emps))
	exp := "ID       Name                     Position                       Salary\n" +
		strings.Repeat("-", 74) + "\n" +
		"1        Ann                      Clerk                         1000.00\n"
	assert.Equal(t, exp, buf.String())
}
