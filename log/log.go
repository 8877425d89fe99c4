package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kjk/employees/siser"
	"github.com/kjk/employees/u"
	"github.com/toon-format/toon-go"
)

var (
	logFile   *WriteDaily
	errorsLog *WriteDaily
	eventsLog *WriteDaily

	// gets a copy of every Logf() message, nil disables console logging
	console io.Writer = os.Stdout
	onLog   func(s string)
	mu      sync.Mutex

	// if true, Verbosef() will log messages
	Verbose bool
)

// WriteDaily writes to a file named after the current day (UTC),
// e.g. 2026-10-19.txt. A new file is started when the day changes.
type WriteDaily struct {
	Dir         string
	currentDate int // YYYYMMDD format
	file        *os.File
	mu          sync.Mutex
}

func NewWriteDaily(dir string) *WriteDaily {
	return &WriteDaily{
		Dir: dir,
	}
}

func dayFromTime(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// Writer returns an io.Writer for today's log file.
// It creates the directory and the file if needed.
func (w *WriteDaily) Writer() (io.Writer, error) {
	if w == nil {
		return nil, fmt.Errorf("w is nil")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now().UTC()
	today := dayFromTime(now)
	if w.file != nil && w.currentDate != today {
		if err := w.close(); err != nil {
			return nil, err
		}
	}
	if w.file == nil {
		if err := os.MkdirAll(w.Dir, 0755); err != nil {
			return nil, err
		}
		path := filepath.Join(w.Dir, now.Format("2006-01-02")+".txt")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		w.file = f
		w.currentDate = today
	}
	return w.file, nil
}

// Write writes data to the daily log file
// it's safe to call on nil receiver
func (w *WriteDaily) Write(d []byte) error {
	if w == nil {
		return nil
	}
	wr, err := w.Writer()
	if err != nil {
		return err
	}
	_, err = wr.Write(d)
	return err
}

func (w *WriteDaily) close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	w.currentDate = 0
	return err
}

// Close closes the daily log file
// it's safe to call on nil receiver
func (w *WriteDaily) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		_ = w.file.Sync()
	}
	return w.close()
}

type Config struct {
	// directory where log files are stored
	// logs, errors and events each go to their own subdirectory
	// empty means no log files
	Dir string
	// gets a copy of every message, nil means no console output
	Console io.Writer
	// called for every Logf() call
	OnLog func(s string)
}

// Init initializes the logging system
func Init(config *Config) {
	Close()
	mu.Lock()
	defer mu.Unlock()
	console = config.Console
	onLog = config.OnLog
	if config.Dir == "" {
		return
	}
	dir := config.Dir
	logFile = NewWriteDaily(filepath.Join(dir, "log"))
	errorsLog = NewWriteDaily(filepath.Join(dir, "errors"))
	eventsLog = NewWriteDaily(filepath.Join(dir, "events"))
}

// Close closes all log files
func Close() {
	mu.Lock()
	defer mu.Unlock()
	for _, wd := range []**WriteDaily{&logFile, &errorsLog, &eventsLog} {
		(*wd).Close()
		*wd = nil
	}
}

func logTo(wd *WriteDaily, s string) {
	mu.Lock()
	w := console
	fn := onLog
	mu.Unlock()
	if w != nil {
		fmt.Fprint(w, s)
	}
	_ = wd.Write([]byte(s))
	if fn != nil {
		fn(s)
	}
}

func Logf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	logTo(logFile, s)
}

func Verbosef(format string, args ...any) {
	if !Verbose {
		return
	}
	Logf(format, args...)
}

func GetCallstackFrames(skip int) []string {
	var callers [32]uintptr
	n := runtime.Callers(skip+1, callers[:])
	frames := runtime.CallersFrames(callers[:n])
	var cs []string
	for {
		frame, more := frames.Next()
		if !more {
			break
		}
		s := frame.File + ":" + strconv.Itoa(frame.Line)
		cs = append(cs, s)
	}
	return cs
}

func GetCallstack(skip int) string {
	frames := GetCallstackFrames(skip + 1)
	return strings.Join(frames, "\n")
}

// Errorf logs an error message. Errors log also gets the callstack.
func Errorf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	logTo(logFile, s)
	_ = errorsLog.Write([]byte(s + GetCallstack(2) + "\n"))
}

// if err != nil, log and return true
// IfErrf(err) => logs err.Error()
// IfErrf(err, "error is: %v", err) => logs message formatted
func IfErrf(err error, a ...any) bool {
	if err == nil {
		return false
	}
	if len(a) == 0 {
		Errorf("%s", err.Error())
		return true
	}
	s, ok := a[0].(string)
	if !ok {
		s = fmt.Sprintf("%s", a[0])
	}
	if len(a) > 1 {
		s = fmt.Sprintf(s, a[1:]...)
	}
	Errorf("%s", s)
	return true
}

// Event records an audit event e.g. Event("employee.add", "id", 5, "name", "Ann").
// Values are encoded as toon and framed as a siser record in events log.
func Event(name string, vals ...any) error {
	n := len(vals)
	u.PanicIf(n%2 != 0, "Event: odd number of vals (%d)", n)
	var d []byte
	if n > 0 {
		m := map[string]any{}
		for i := 0; i < n; i += 2 {
			k, ok := vals[i].(string)
			u.PanicIf(!ok, "Event: key must be a string, got %T", vals[i])
			m[k] = vals[i+1]
		}
		var err error
		d, err = toon.Marshal(m)
		if err != nil {
			return err
		}
	}
	mu.Lock()
	w := eventsLog
	mu.Unlock()
	d2 := siser.MarshalLine(name, time.Now().UTC(), d, nil)
	return w.Write(d2)
}

// EventRecord is an event read back by ReadEvents
type EventRecord struct {
	Name      string
	Timestamp time.Time
	// toon-encoded values
	Data []byte
}

// ReadEvents calls fn for every event logged in dir (same as Config.Dir),
// oldest first. Stops early if fn returns false.
func ReadEvents(dir string, fn func(ev *EventRecord) bool) error {
	eventsDir := filepath.Join(dir, "events")
	entries, err := os.ReadDir(eventsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".txt") {
			names = append(names, e.Name())
		}
	}
	// file names are dates so this is chronological
	sort.Strings(names)
	for _, name := range names {
		cont, err := readEventsFile(filepath.Join(eventsDir, name), fn)
		if err != nil || !cont {
			return err
		}
	}
	return nil
}

func readEventsFile(path string, fn func(ev *EventRecord) bool) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	r := siser.NewReader(f)
	for r.ReadNextData() {
		ev := &EventRecord{
			Name:      r.Name,
			Timestamp: r.Timestamp,
			Data:      r.Data,
		}
		if !fn(ev) {
			return false, nil
		}
	}
	if err := r.Err(); err != nil {
		return false, fmt.Errorf("failed to read events from '%s': %w", path, err)
	}
	return true, nil
}
