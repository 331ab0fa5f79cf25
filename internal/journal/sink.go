package journal

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sync"

	"filenest/internal/errors"

	"github.com/gofrs/flock"
)

// Sink receives records as the organizer produces them.
type Sink interface {
	Write(rec Record) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(rec Record) error

func (f SinkFunc) Write(rec Record) error { return f(rec) }

// Discard drops every record.
var Discard Sink = SinkFunc(func(Record) error { return nil })

// FileSink appends lines to a log file. Each record is a single write on an
// O_APPEND descriptor; an advisory lock on path+".lock" keeps concurrent
// filenest processes (and log cleanup) from interleaving.
type FileSink struct {
	mu   sync.Mutex
	path string
	file *os.File
	lock *flock.Flock
}

// OpenFileSink opens or creates the log at path, creating parent directories.
func OpenFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.NewFileError("failed to create log directory", filepath.Dir(path), errors.FileCreateFailed, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.FileErrorFrom("failed to open move log", path, err)
	}
	return &FileSink{path: path, file: f, lock: LockFor(path)}, nil
}

// LockFor returns the advisory lock guarding the log at path.
func LockFor(path string) *flock.Flock {
	return flock.New(path + ".lock")
}

// Path returns the log file location.
func (s *FileSink) Path() string {
	return s.path
}

func (s *FileSink) Write(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return errors.NewFileError("move log is closed", s.path, errors.FileOperationFailed, nil)
	}
	if err := s.lock.Lock(); err != nil {
		return errors.NewFileError("failed to lock move log", s.path, errors.FileAccessDenied, err)
	}
	defer s.lock.Unlock()

	if err := s.reopenIfReplaced(); err != nil {
		return err
	}
	if _, err := s.file.WriteString(rec.Line() + "\n"); err != nil {
		return errors.NewFileError("failed to append to move log", s.path, errors.FileOperationFailed, err)
	}
	return nil
}

// reopenIfReplaced follows the path after log cleanup swapped in a rewritten
// file. Must be called with the lock held.
func (s *FileSink) reopenIfReplaced() error {
	onDisk, err := os.Stat(s.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.FileErrorFrom("failed to stat move log", s.path, err)
	}
	if err == nil {
		if open, err := s.file.Stat(); err == nil && os.SameFile(onDisk, open) {
			return nil
		}
	}
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return errors.FileErrorFrom("failed to reopen move log", s.path, err)
	}
	s.file.Close()
	s.file = f
	return nil
}

// Close releases the log file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// MemorySink collects records in memory.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
}

func (s *MemorySink) Write(rec Record) error {
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
	return nil
}

// Records returns a copy of the collected records.
func (s *MemorySink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// multiSink fans out to several sinks, reporting every failure.
type multiSink []Sink

// MultiSink returns a sink writing to each non-nil sink in order.
func MultiSink(sinks ...Sink) Sink {
	var out multiSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) Write(rec Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteLines renders records to w, one line each.
func WriteLines(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		if _, err := bw.WriteString(rec.Line() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadLines parses every line from r. Malformed lines are returned separately
// so callers can report them without aborting.
func ReadLines(r io.Reader) ([]Record, []string, error) {
	var (
		records []Record
		bad     []string
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		rec, err := ParseLine(line)
		if err != nil {
			bad = append(bad, line)
			continue
		}
		records = append(records, rec)
	}
	return records, bad, scanner.Err()
}
