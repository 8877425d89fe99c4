package console

import (
	"fmt"
	"io"

	"github.com/kjk/employees/empstore"
)

const (
	rowFmt    = "%-8d %-24s %-24s %12.2f\n"
	headerFmt = "%-8s %-24s %-24s %12s\n"
	clearSeq  = "\033[2J\033[H"
)

func WriteHeader(w io.Writer) error {
	_, err := fmt.Fprintf(w, headerFmt, "ID", "Name", "Position", "Salary")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", "--------------------------------------------------------------------------")
	return err
}

func WriteEmployee(w io.Writer, e empstore.Employee) error {
	_, err := fmt.Fprintf(w, rowFmt, e.ID, e.Name, e.Position, e.Salary)
	return err
}

// WriteDetails writes a single employee, one field per line
func WriteDetails(w io.Writer, e empstore.Employee) error {
	_, err := fmt.Fprintf(w, "ID:       %d\nName:     %s\nPosition: %s\nSalary:   %.2f\n", e.ID, e.Name, e.Position, e.Salary)
	return err
}

// WriteTable writes employees with a header
func WriteTable(w io.Writer, emps []empstore.Employee) error {
	if len(emps) == 0 {
		_, err := fmt.Fprintf(w, "No employees found.\n")
		return err
	}
	if err := WriteHeader(w); err != nil {
		return err
	}
	for _, e := range emps {
		if err := WriteEmployee(w, e); err != nil {
			return err
		}
	}
	return nil
}

func ClearScreen(w io.Writer) {
	fmt.Fprint(w, clearSeq)
}
