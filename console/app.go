package console

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/kjk/employees/empstore"
)

const (
	choiceAdd    = 1
	choiceList   = 2
	choiceSearch = 3
	choiceExit   = 4
)

// App is the interactive menu over a store
type App struct {
	Store *empstore.Store
	In    *Prompter
	Out   io.Writer
	// clear terminal before showing the menu
	ClearScreen bool
	// called after an employee was added e.g. to write audit log
	OnAdd func(e *empstore.Employee)
	// called for errors that were reported to the user
	OnError func(err error)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.Out, format, args...)
}

func (a *App) reportError(msg string, err error) {
	a.printf("Error: %s: %s\n", msg, err)
	if a.OnError != nil {
		a.OnError(err)
	}
}

func (a *App) printMenu() {
	a.printf("==============================\n")
	a.printf("Employee Management System\n")
	a.printf("==============================\n")
	a.printf("1. Add Employee\n")
	a.printf("2. List Employees\n")
	a.printf("3. Search Employee by ID\n")
	a.printf("4. Exit\n")
	a.printf("==============================\n")
}

// Run shows the menu until user picks exit or the input ends.
// Errors of individual actions are reported and the menu is shown again.
func (a *App) Run() error {
	for {
		if a.ClearScreen {
			ClearScreen(a.Out)
		}
		a.printMenu()
		choice, err := a.In.Int("Enter your choice: ")
		if errors.Is(err, ErrCancelled) {
			return nil
		}
		if errors.Is(err, ErrTooManyAttempts) {
			a.printf("%s\n", err)
			continue
		}
		if err != nil {
			return err
		}

		switch choice {
		case choiceAdd:
			err = a.AddEmployee()
		case choiceList:
			err = a.ListEmployees()
		case choiceSearch:
			err = a.SearchEmployee()
		case choiceExit:
			a.printf("Exiting the program.\n")
			return nil
		default:
			a.printf("Invalid choice. Please try again.\n")
		}
		if errors.Is(err, ErrTooManyAttempts) {
			a.printf("%s, going back to the menu.\n", err)
		} else if err != nil {
			// ErrCancelled or a broken input stream
			return ignoreCancelled(err)
		}
		if err = a.In.WaitForEnter(); err != nil {
			return ignoreCancelled(err)
		}
	}
}

func ignoreCancelled(err error) error {
	if errors.Is(err, ErrCancelled) {
		return nil
	}
	return err
}

func (a *App) checkNewID(id int64) error {
	if err := empstore.ValidateID(id); err != nil {
		return err
	}
	exists, err := a.Store.Exists(int32(id))
	if err != nil {
		return Abort(err)
	}
	if exists {
		return &empstore.ValidationError{Field: "id", Err: empstore.ErrDuplicateID}
	}
	return nil
}

// AddEmployee asks for all fields and appends a new employee.
// Store errors are reported to the user, only input errors are returned.
func (a *App) AddEmployee() error {
	id, err := a.In.IntWhere("Enter employee ID: ", a.checkNewID)
	if err != nil {
		if errors.Is(err, ErrCancelled) || errors.Is(err, ErrTooManyAttempts) {
			return err
		}
		a.reportError("failed to read employee data", err)
		return nil
	}
	name, err := a.In.LineWhere("Enter name: ", empstore.NameLen, empstore.ValidateName)
	if err != nil {
		return err
	}
	position, err := a.In.LineWhere("Enter position: ", empstore.PositionLen, empstore.ValidatePosition)
	if err != nil {
		return err
	}
	salary, err := a.In.FloatWhere("Enter salary: ", empstore.ValidateSalary)
	if err != nil {
		return err
	}

	e := &empstore.Employee{
		ID:       int32(id),
		Name:     name,
		Position: position,
		Salary:   float32(salary),
	}
	if err = a.Store.Add(e); err != nil {
		a.reportError("failed to add employee", err)
		return nil
	}
	a.printf("Employee added successfully.\n")
	if a.OnAdd != nil {
		a.OnAdd(e)
	}
	return nil
}

// ListEmployees prints all employees in storage order
func (a *App) ListEmployees() error {
	headerWritten := false
	n, err := a.Store.ScanAll(func(e empstore.Employee) {
		if !headerWritten {
			WriteHeader(a.Out)
			headerWritten = true
		}
		WriteEmployee(a.Out, e)
	})
	if err != nil {
		a.reportError("failed to list employees", err)
		return nil
	}
	if n == 0 {
		a.printf("No employees found.\n")
		return nil
	}
	a.printf("\nTotal: %d\n", n)
	return nil
}

// SearchEmployee asks for an id and prints matching employee
func (a *App) SearchEmployee() error {
	id, err := a.In.Int("Enter employee ID to search: ")
	if err != nil {
		return err
	}
	if id <= 0 || id > math.MaxInt32 {
		a.printf("Employee with ID %d not found.\n", id)
		return nil
	}
	e, err := a.Store.FindByID(int32(id))
	if errors.Is(err, empstore.ErrNotFound) {
		a.printf("Employee with ID %d not found.\n", id)
		return nil
	}
	if err != nil {
		a.reportError("search failed", err)
		return nil
	}
	a.printf("Employee found:\n")
	WriteDetails(a.Out, e)
	return nil
}
