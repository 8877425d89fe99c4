package dump

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/carlmjohnson/requests"
	"github.com/kjk/employees/empstore"
	"github.com/kjk/employees/u"
)

// Skipped is a record that was rejected during import
type Skipped struct {
	// position in the input
	Index int
	ID    int64
	Err   error
}

type ImportResult struct {
	Added   int
	Skipped []Skipped
}

func (e employeeJSON) validate() (*empstore.Employee, error) {
	if err := empstore.ValidateID(e.ID); err != nil {
		return nil, err
	}
	if err := empstore.ValidateSalary(e.Salary); err != nil {
		return nil, err
	}
	emp := &empstore.Employee{
		ID:       int32(e.ID),
		Name:     e.Name,
		Position: e.Position,
		Salary:   float32(e.Salary),
	}
	return emp, empstore.Validate(emp)
}

// importRows adds rows to s one by one. Invalid and duplicate rows are
// skipped, an i/o error stops the import.
func importRows(s *empstore.Store, rows []employeeJSON) (*ImportResult, error) {
	res := &ImportResult{}
	for i, row := range rows {
		e, err := row.validate()
		if err == nil {
			err = s.Add(e)
		}
		if err == nil {
			res.Added++
			continue
		}
		if !errors.Is(err, empstore.ErrValidation) {
			return res, err
		}
		res.Skipped = append(res.Skipped, Skipped{Index: i, ID: row.ID, Err: err})
	}
	return res, nil
}

// Import reads a json array of employees (as written by Export in json format)
func Import(s *empstore.Store, r io.Reader) (*ImportResult, error) {
	var rows []employeeJSON
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return importRows(s, rows)
}

// ImportFile is like Import but reads from a (possibly compressed) file
func ImportFile(s *empstore.Store, path string) (*ImportResult, error) {
	r, err := u.OpenFileMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Import(s, r)
}

// ImportURL downloads a json array of employees from uri
func ImportURL(ctx context.Context, s *empstore.Store, uri string) (*ImportResult, error) {
	var rows []employeeJSON
	err := requests.
		URL(uri).
		Accept("application/json").
		ToJSON(&rows).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch '%s': %w", uri, err)
	}
	return importRows(s, rows)
}
