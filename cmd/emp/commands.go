package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gobwas/glob"
	"github.com/kjk/employees/backup"
	"github.com/kjk/employees/console"
	"github.com/kjk/employees/dump"
	"github.com/kjk/employees/empstore"
	"github.com/kjk/employees/log"
	"github.com/kjk/employees/minioutil"
	"github.com/kjk/employees/u"
)

type command struct {
	name string
	help string
	run  func(e *env, args []string) error
}

var commands = []*command{
	{"add", "add an employee", cmdAdd},
	{"list", "list all employees", cmdList},
	{"search", "show employee with a given id", cmdSearch},
	{"export", "export employees to a file", cmdExport},
	{"import", "import employees from a json file or url", cmdImport},
	{"backup", "create a snapshot of the data file", cmdBackup},
	{"restore", "load a snapshot into an empty data file", cmdRestore},
	{"backups", "list snapshots in s3", cmdBackups},
	{"history", "show audit events", cmdHistory},
}

func findCommand(name string) *command {
	for _, c := range commands {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (e *env) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("emp "+name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

func cmdAdd(e *env, args []string) error {
	fs := e.flagSet("add")
	id := fs.Int64("id", 0, "employee id, 1 to 2147483647")
	name := fs.String("name", "", "name")
	position := fs.String("position", "", "position")
	salary := fs.Float64("salary", math.NaN(), "salary, >= 0")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := empstore.ValidateID(*id); err != nil {
		return err
	}
	if err := empstore.ValidateSalary(*salary); err != nil {
		return err
	}
	emp := &empstore.Employee{
		ID:       int32(*id),
		Name:     *name,
		Position: *position,
		Salary:   float32(*salary),
	}
	if err := e.store.Add(emp); err != nil {
		return err
	}
	e.employeeAdded(emp)
	fmt.Fprintf(e.stdout, "Employee added successfully.\n")
	return nil
}

func cmdList(e *env, args []string) error {
	fs := e.flagSet("list")
	formatStr := fs.String("format", "text", fmt.Sprintf("output format, one of: %v", dump.Formats))
	if err := fs.Parse(args); err != nil {
		return err
	}
	format, err := dump.ParseFormat(*formatStr)
	if err != nil {
		return err
	}
	n, err := dump.Export(e.store, e.stdout, format)
	if err != nil {
		return err
	}
	if format == dump.FormatText && n > 0 {
		fmt.Fprintf(e.stdout, "\nTotal: %d\n", n)
	}
	return nil
}

func cmdSearch(e *env, args []string) error {
	fs := e.flagSet("search")
	id := fs.Int64("id", 0, "employee id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 || *id > math.MaxInt32 {
		return fmt.Errorf("%w: id %d", empstore.ErrNotFound, *id)
	}
	emp, err := e.store.FindByID(int32(*id))
	if err != nil {
		return err
	}
	return console.WriteDetails(e.stdout, emp)
}

// formatFromPath guesses export format from file name
// e.g. "emp.toon.gz" => toon, defaults to json
func formatFromPath(path string) dump.Format {
	for _, f := range dump.Formats {
		if strings.Contains(path, "."+string(f)) {
			return f
		}
	}
	if strings.Contains(path, ".txt") {
		return dump.FormatText
	}
	return dump.FormatJSON
}

func cmdExport(e *env, args []string) error {
	fs := e.flagSet("export")
	out := fs.String("o", "", "output file, compressed if ends with .gz, .zst, .br or .lz4")
	formatStr := fs.String("format", "", "output format (default: based on file name, json)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return errors.New("export: missing -o")
	}
	format := formatFromPath(*out)
	if *formatStr != "" {
		var err error
		if format, err = dump.ParseFormat(*formatStr); err != nil {
			return err
		}
	}
	n, err := dump.ExportFile(e.store, *out, format)
	if err != nil {
		return err
	}
	e.event("employee.export", "path", *out, "format", string(format), "count", n)
	fmt.Fprintf(e.stdout, "Exported %d employees to '%s'\n", n, *out)
	return nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func cmdImport(e *env, args []string) error {
	fs := e.flagSet("import")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("import: expected a single file or url")
	}
	src := fs.Arg(0)
	var res *dump.ImportResult
	var err error
	if isURL(src) {
		res, err = dump.ImportURL(e.ctx, e.store, src)
	} else {
		if !u.FileExists(src) {
			return fmt.Errorf("import: file '%s' doesn't exist", src)
		}
		res, err = dump.ImportFile(e.store, src)
	}
	// some records might have been added before the error
	if res != nil && res.Added > 0 {
		e.event("employee.import", "source", src, "added", res.Added, "skipped", len(res.Skipped))
	}
	if err != nil {
		return err
	}
	for _, sk := range res.Skipped {
		fmt.Fprintf(e.stdout, "Skipped record #%d (id %d): %s\n", sk.Index, sk.ID, sk.Err)
	}
	fmt.Fprintf(e.stdout, "Added %d employees, skipped %d\n", res.Added, len(res.Skipped))
	return nil
}

func (e *env) remote() (*minioutil.Client, error) {
	config := e.config.S3
	if e.config.Verbose {
		config.RequestTrace = e.stderr
	}
	return minioutil.New(e.ctx, &config)
}

// exactlyOne returns an error unless exactly one of a, b is set
func exactlyOne(cmd string, a, aName, b, bName string) error {
	if (a == "") == (b == "") {
		return fmt.Errorf("%s: need exactly one of -%s or -%s", cmd, aName, bName)
	}
	return nil
}

func cmdBackup(e *env, args []string) error {
	fs := e.flagSet("backup")
	out := fs.String("o", "", "snapshot file, compressed if ends with .gz, .zst, .br or .lz4")
	s3Name := fs.String("s3", "", "upload snapshot to s3 under this name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := exactlyOne("backup", *out, "o", *s3Name, "s3"); err != nil {
		return err
	}
	var info *backup.Info
	var err error
	if *out != "" {
		info, err = backup.Create(e.store, *out)
	} else {
		var c *minioutil.Client
		if c, err = e.remote(); err != nil {
			return err
		}
		info, err = backup.Upload(e.ctx, c, e.store, *s3Name)
	}
	if err != nil {
		return err
	}
	e.event("backup", "path", info.Path, "records", info.Records, "size", info.Size)
	fmt.Fprintf(e.stdout, "Backed up %d employees to '%s' (%s)\n", info.Records, info.Path, humanize.Bytes(uint64(info.Size)))
	return nil
}

func cmdRestore(e *env, args []string) error {
	fs := e.flagSet("restore")
	in := fs.String("i", "", "snapshot file")
	s3Name := fs.String("s3", "", "name of snapshot in s3")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := exactlyOne("restore", *in, "i", *s3Name, "s3"); err != nil {
		return err
	}
	var n int
	var err error
	src := *in
	if src != "" {
		n, err = backup.Restore(e.store, src)
	} else {
		src = *s3Name
		var c *minioutil.Client
		if c, err = e.remote(); err != nil {
			return err
		}
		if !c.Exists(e.ctx, src) {
			return fmt.Errorf("snapshot '%s' doesn't exist in bucket '%s'", c.RemotePath(src), c.Bucket)
		}
		n, err = backup.Download(e.ctx, c, e.store, src)
	}
	if err != nil {
		return err
	}
	e.event("restore", "path", src, "records", n)
	fmt.Fprintf(e.stdout, "Restored %d employees from '%s'\n", n, src)
	return nil
}

func cmdBackups(e *env, args []string) error {
	fs := e.flagSet("backups")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, err := e.remote()
	if err != nil {
		return err
	}
	names, err := c.List(e.ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintf(e.stdout, "%s\n", name)
	}
	return nil
}

func cmdHistory(e *env, args []string) error {
	fs := e.flagSet("history")
	pattern := fs.String("name", "*", "only show events matching this glob e.g. 'employee.*'")
	if err := fs.Parse(args); err != nil {
		return err
	}
	match, err := glob.Compile(*pattern)
	if err != nil {
		return fmt.Errorf("history: bad -name pattern '%s': %w", *pattern, err)
	}
	if e.config.LogDir == "" {
		return errors.New("history: no log directory, use -logdir or log_dir in config")
	}
	// flush events written by this process
	log.Close()
	n := 0
	err = log.ReadEvents(e.config.LogDir, func(ev *log.EventRecord) bool {
		if !match.Match(ev.Name) {
			return true
		}
		n++
		fmt.Fprintf(e.stdout, "%s %s\n", ev.Timestamp.Local().Format(time.DateTime), ev.Name)
		for _, line := range bytes.Split(bytes.TrimSpace(ev.Data), []byte("\n")) {
			if len(line) > 0 {
				fmt.Fprintf(e.stdout, "    %s\n", line)
			}
		}
		return true
	})
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintf(e.stdout, "No events found.\n")
	}
	return nil
}
