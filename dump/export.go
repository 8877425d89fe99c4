// Package dump exports employee records to human and machine readable
// formats and imports them back.
package dump

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/kjk/employees/atomicfile"
	"github.com/kjk/employees/console"
	"github.com/kjk/employees/empstore"
	"github.com/kjk/employees/u"
	"github.com/tidwall/pretty"
	"github.com/toon-format/toon-go"
)

type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatTOON  Format = "toon"
	FormatDebug Format = "debug"
)

var Formats = []Format{FormatText, FormatJSON, FormatTOON, FormatDebug}

func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatText, nil
	}
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format '%s', must be one of: %v", s, Formats)
}

// employeeJSON is the json / toon shape of empstore.Employee.
// Import uses wider types so that out of range values are reported
// as validation errors instead of being silently truncated.
type employeeJSON struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Position string  `json:"position"`
	Salary   float64 `json:"salary"`
}

func toJSON(e empstore.Employee) employeeJSON {
	return employeeJSON{
		ID:       int64(e.ID),
		Name:     e.Name,
		Position: e.Position,
		// go through string to avoid float32 => float64 noise
		// i.e. 2500.1 becoming 2500.10009765625
		Salary: float32ToFloat64(e.Salary),
	}
}

func float32ToFloat64(f float32) float64 {
	res, _ := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	return res
}

func readAll(s *empstore.Store) ([]empstore.Employee, error) {
	var res []empstore.Employee
	_, err := s.ScanAll(func(e empstore.Employee) {
		res = append(res, e)
	})
	return res, err
}

// Export writes all records from s to w. Returns number of records written.
func Export(s *empstore.Store, w io.Writer, format Format) (int, error) {
	emps, err := readAll(s)
	if err != nil {
		return 0, err
	}
	switch format {
	case FormatText, "":
		err = console.WriteTable(w, emps)
	case FormatJSON:
		err = writeJSON(w, emps)
	case FormatTOON:
		err = writeTOON(w, emps)
	case FormatDebug:
		// DisableMethods so that spew shows fields, not Employee.String()
		cfg := spew.ConfigState{Indent: "  ", DisableMethods: true, DisablePointerAddresses: true, SortKeys: true}
		for _, e := range emps {
			cfg.Fdump(w, e)
		}
	default:
		err = fmt.Errorf("unknown format '%s'", format)
	}
	if err != nil {
		return 0, err
	}
	return len(emps), nil
}

func writeJSON(w io.Writer, emps []empstore.Employee) error {
	rows := make([]employeeJSON, 0, len(emps))
	for _, e := range emps {
		rows = append(rows, toJSON(e))
	}
	d, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	_, err = w.Write(pretty.Pretty(d))
	return err
}

func writeTOON(w io.Writer, emps []empstore.Employee) error {
	rows := make([]map[string]any, 0, len(emps))
	for _, e := range emps {
		j := toJSON(e)
		rows = append(rows, map[string]any{
			"id":       j.ID,
			"name":     j.Name,
			"position": j.Position,
			"salary":   j.Salary,
		})
	}
	d, err := toon.Marshal(map[string]any{"employees": rows})
	if err != nil {
		return err
	}
	if len(d) > 0 && d[len(d)-1] != '\n' {
		d = append(d, '\n')
	}
	_, err = w.Write(d)
	return err
}

// ExportFile atomically writes records to path, compressed if path
// ends with .gz, .zst, .br or .lz4
func ExportFile(s *empstore.Store, path string, format Format) (int, error) {
	f, err := atomicfile.New(path)
	if err != nil {
		return 0, err
	}
	defer f.RemoveIfNotClosed()

	w, err := u.NewWriterMaybeCompressed(f, u.CompressionFromPath(path))
	if err != nil {
		return 0, err
	}
	wClosed := false
	defer func() {
		if !wClosed {
			w.Close()
		}
	}()
	n, err := Export(s, w, format)
	if err != nil {
		return 0, err
	}
	wClosed = true
	if err = w.Close(); err != nil {
		return 0, err
	}
	return n, f.Close()
}
