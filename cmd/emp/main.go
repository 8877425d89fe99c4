// emp manages employee records stored in a binary data file.
//
// Without a command it shows an interactive menu. Run "emp -h" for
// the list of commands.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/kjk/employees/console"
	"github.com/kjk/employees/empstore"
	"github.com/kjk/employees/log"
)

type globalFlags struct {
	configPath string
	dataFile   string
	logDir     string
	verbose    bool
}

// env is everything a command needs
type env struct {
	ctx    context.Context
	config *Config
	store  *empstore.Store
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	// set for interactive sessions, ties together events of one session
	session string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv)
	stop()
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "emp: %s\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, "Usage: emp [options] [command] [command options]\n\n")
	fmt.Fprintf(w, "Without a command shows interactive menu.\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.help)
	}
	fmt.Fprintf(w, "\nOptions:\n")
	fs.PrintDefaults()
}

func parseGlobalFlags(args []string, stderr io.Writer) (*globalFlags, []string, error) {
	f := &globalFlags{}
	fs := flag.NewFlagSet("emp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "config", "", "path to configuration file (YAML)")
	fs.StringVar(&f.dataFile, "data", "", "path to data file (default \""+empstore.DefaultFileName+"\")")
	fs.StringVar(&f.logDir, "logdir", "", "directory for logs and audit events")
	fs.BoolVar(&f.verbose, "verbose", false, "verbose logging")
	fs.Usage = func() {
		printUsage(stderr, fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer, getenv func(string) string) error {
	f, rest, err := parseGlobalFlags(args, stderr)
	if err != nil {
		return err
	}
	config, err := resolveConfig(f, getenv)
	if err != nil {
		return err
	}

	var cmd *command
	if len(rest) > 0 {
		cmd = findCommand(rest[0])
		if cmd == nil {
			return fmt.Errorf("unknown command '%s', see 'emp -h'", rest[0])
		}
		rest = rest[1:]
	}

	// the menu owns the terminal so log messages only go to files
	var logConsole io.Writer
	if cmd != nil {
		logConsole = stderr
	}
	log.Verbose = config.Verbose
	log.Init(&log.Config{
		Dir:     config.LogDir,
		Console: logConsole,
	})
	defer log.Close()

	e := &env{
		ctx:    ctx,
		config: config,
		store:  empstore.New(config.DataFile),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	if cmd == nil {
		return e.runInteractive()
	}
	log.Verbosef("emp %s, data file: '%s'\n", cmd.name, e.store.FilePath())
	return cmd.run(e, rest)
}

func (e *env) runInteractive() error {
	e.session = uuid.NewString()
	in := console.NewPrompter(e.stdin, e.stdout)
	in.MaxAttempts = e.config.MaxAttempts
	app := &console.App{
		Store:       e.store,
		In:          in,
		Out:         e.stdout,
		ClearScreen: e.config.ClearScreen,
		OnAdd:       e.employeeAdded,
		OnError: func(err error) {
			log.Errorf("%s", err)
		},
	}
	n, err := e.store.Count()
	if err != nil {
		return err
	}
	log.Logf("interactive session %s, data file: '%s', %d records\n", e.session, e.store.FilePath(), n)
	return app.Run()
}

// event records an audit event, failure to do so is only logged
func (e *env) event(name string, vals ...any) {
	err := log.Event(name, vals...)
	log.IfErrf(err, "failed to record event '%s': %s", name, err)
}

func (e *env) employeeAdded(emp *empstore.Employee) {
	log.Logf("added employee %d\n", emp.ID)
	vals := []any{
		"id", int64(emp.ID),
		"name", emp.Name,
		"position", emp.Position,
		"salary", float64(emp.Salary),
	}
	if e.session != "" {
		vals = append(vals, "session", e.session)
	}
	e.event("employee.add", vals...)
}
