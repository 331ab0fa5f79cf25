// Package organize moves the files of a directory into category subfolders
// chosen by extension, resolving name collisions and reporting every action
// as a journal record.
package organize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"filenest/internal/errors"
	"filenest/internal/fsops"
	"filenest/internal/journal"
	"filenest/internal/log"
	"filenest/internal/rules"
	"filenest/pkg/types"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options configures an Engine.
type Options struct {
	Rules      *rules.RuleSet
	Exclusions *rules.Exclusions
	Strategy   types.DuplicateStrategy
	Preview    bool
	Workers    int          // Parallel moves; values below 1 mean sequential
	SkipHidden bool         // Leave dotfiles in place
	MaxSize    int64        // Files larger than this many bytes are skipped; zero disables
	OwnFiles   []string     // Absolute paths never touched (config, log, history)
	Sink       journal.Sink // Receives every record as it is produced
	SessionID  string       // Generated when empty
	Now        func() time.Time
}

// Engine handles file organization runs.
type Engine struct {
	opts Options
	own  map[string]struct{}
}

// New creates an Engine. Missing rules fall back to an empty rule set where
// everything lands in the default catch-all folder.
func New(opts Options) *Engine {
	if opts.Rules == nil {
		opts.Rules = rules.New(nil, rules.DefaultCatchAll)
	}
	if !opts.Strategy.Valid() {
		opts.Strategy = types.StrategyRename
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Sink == nil {
		opts.Sink = journal.Discard
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	own := make(map[string]struct{}, len(opts.OwnFiles))
	for _, p := range opts.OwnFiles {
		if abs, err := filepath.Abs(p); err == nil {
			own[abs] = struct{}{}
		}
	}
	return &Engine{opts: opts, own: own}
}

// IsPreview reports whether the engine only simulates.
func (e *Engine) IsPreview() bool {
	return e.opts.Preview
}

// Run organizes the direct entries of dir. A missing or unreadable dir is
// returned as a *errors.FileError before anything is touched; failures of
// individual files are recorded and never stop the run. On cancellation the
// files already scheduled finish and the partial summary is returned with
// the context error.
func (e *Engine) Run(ctx context.Context, dir string) (*Summary, error) {
	root, entries, err := e.scan(dir)
	if err != nil {
		return nil, err
	}

	sessionID := e.opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	r := &run{
		engine:  e,
		root:    root,
		folders: make(map[string]*folder),
		claimed: make(map[string]struct{}),
		summary: &Summary{
			SessionID: sessionID,
			Dir:       root,
			Preview:   e.opts.Preview,
			Strategy:  e.opts.Strategy,
			Started:   e.opts.Now(),
		},
	}

	logger := log.LogWithFields(log.F("dir", root), log.F("session", sessionID), log.F("preview", e.opts.Preview))
	logger.Debugf("Organizing %d entries with %d worker(s)", len(entries), e.opts.Workers)

	g := new(errgroup.Group)
	g.SetLimit(e.opts.Workers)
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// Go may have waited for a free worker while ctx was cancelled.
			if ctx.Err() != nil {
				return nil
			}
			r.handle(entry)
			return nil
		})
	}
	_ = g.Wait()

	r.summary.Finished = e.opts.Now()
	if err := ctx.Err(); err != nil {
		r.summary.Interrupted = true
		logger.Warnf("Run interrupted after %d records", len(r.summary.Records))
		return r.summary, err
	}

	s := r.summary
	logger.With(
		log.F("moved", s.Moved), log.F("skipped", s.Skipped),
		log.F("errors", s.Errors), log.F("folders", s.FoldersCreated),
	).Info("Run complete")
	return s, nil
}

// scan validates dir and lists its entries in name order.
func (e *Engine) scan(dir string) (string, []os.DirEntry, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, errors.NewFileError("invalid target directory", dir, errors.InvalidPath, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", nil, errors.FileErrorFrom("cannot access target directory", root, err)
	}
	if !info.IsDir() {
		return "", nil, errors.NewFileError("target is not a directory", root, errors.InvalidPath, nil)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", nil, errors.FileErrorFrom("cannot read target directory", root, err)
	}
	return root, entries, nil
}

// run is the mutable state of a single Run.
type run struct {
	engine *Engine
	root   string

	mu      sync.Mutex // Guards summary and claimed, serializes the sink
	summary *Summary
	claimed map[string]struct{} // Destinations taken by simulated moves

	foldersMu sync.Mutex
	folders   map[string]*folder
}

type folder struct {
	once sync.Once
	err  error
}

func (r *run) handle(entry os.DirEntry) {
	name := entry.Name()
	src := filepath.Join(r.root, name)

	if skip, reason := r.filter(entry, src); skip {
		if reason != "" {
			r.emit(journal.Record{Action: journal.ActionSkipped, Name: name, SourceDir: r.root, Reason: reason})
		}
		return
	}

	category := r.engine.opts.Rules.Categorize(name)
	destDir := filepath.Join(r.root, category)
	log.LogWithFields(log.F("file", name), log.F("category", category)).Debug("Categorized")

	if err := r.ensureFolder(category, destDir); err != nil {
		r.fail(name, err)
		return
	}

	if r.engine.opts.Preview {
		r.simulate(name, destDir)
		return
	}

	switch r.engine.opts.Strategy {
	case types.StrategySkip:
		r.moveOrSkip(name, src, destDir)
	case types.StrategyOverwrite:
		r.moveOverwrite(name, src, destDir)
	default:
		r.moveRename(name, src, destDir)
	}
}

// filter decides whether an entry is left alone. A non-empty reason produces
// a skip record; silent skips cover directories and filenest's own files.
func (r *run) filter(entry os.DirEntry, src string) (bool, string) {
	name := entry.Name()
	if entry.IsDir() {
		return true, ""
	}
	if _, ok := r.engine.own[src]; ok {
		return true, ""
	}
	if fsops.IsPartial(name) {
		return true, ""
	}

	mode := entry.Type()
	if mode&os.ModeSymlink != 0 {
		if info, err := os.Stat(src); err == nil && info.IsDir() {
			return true, ""
		}
	} else if !mode.IsRegular() {
		return true, "not a regular file"
	}

	if r.engine.opts.SkipHidden && strings.HasPrefix(name, ".") {
		return true, "hidden file"
	}
	if pattern, ok := r.engine.opts.Exclusions.Match(name); ok {
		return true, fmt.Sprintf("excluded by %q", pattern)
	}
	if limit := r.engine.opts.MaxSize; limit > 0 {
		// Stat errors are left to the move, which records them.
		if info, err := os.Stat(src); err == nil && info.Size() > limit {
			return true, "larger than " + humanize.Bytes(uint64(limit))
		}
	}
	return false, ""
}

// ensureFolder creates the category folder once per run. A folder created
// concurrently by someone else counts as success and is not recorded.
func (r *run) ensureFolder(category, path string) error {
	r.foldersMu.Lock()
	f, ok := r.folders[category]
	if !ok {
		f = &folder{}
		r.folders[category] = f
	}
	r.foldersMu.Unlock()

	f.once.Do(func() {
		if r.engine.opts.Preview {
			f.err = r.previewFolder(category, path)
			return
		}
		f.err = r.createFolder(category, path)
	})
	return f.err
}

func (r *run) createFolder(category, path string) error {
	err := os.Mkdir(path, 0o755)
	if errors.Is(err, os.ErrNotExist) {
		err = os.MkdirAll(path, 0o755)
	}
	switch {
	case err == nil:
		r.emit(journal.Record{Action: journal.ActionCreatedFolder, Name: category, SourceDir: r.root, DestDir: path})
		return nil
	case errors.Is(err, os.ErrExist):
		return requireDir(path)
	default:
		return err
	}
}

func (r *run) previewFolder(category, path string) error {
	_, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		r.emit(journal.Record{Action: journal.ActionCreatedFolder, Name: category, SourceDir: r.root, DestDir: path})
		return nil
	}
	if err != nil {
		return err
	}
	return requireDir(path)
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists and is not a directory", filepath.Base(path))
	}
	return nil
}

// moveRename places the file under the first free name, retrying with the
// next suffix whenever the atomic move reports the name as taken.
func (r *run) moveRename(name, src, destDir string) {
	for n := 0; n <= maxSuffix; n++ {
		candidate := SuffixedName(name, n)
		err := fsops.MoveNoReplace(src, filepath.Join(destDir, candidate))
		if err == nil {
			rec := journal.Record{Action: journal.ActionMoved, Name: name, SourceDir: r.root, DestDir: destDir}
			if n > 0 {
				rec.DestName = candidate
			}
			r.emit(rec)
			return
		}
		if !errors.Is(err, os.ErrExist) {
			r.fail(name, err)
			return
		}
	}
	r.fail(name, fmt.Errorf("no free name after %d attempts", maxSuffix))
}

func (r *run) moveOrSkip(name, src, destDir string) {
	err := fsops.MoveNoReplace(src, filepath.Join(destDir, name))
	switch {
	case err == nil:
		r.emit(journal.Record{Action: journal.ActionMoved, Name: name, SourceDir: r.root, DestDir: destDir})
	case errors.Is(err, os.ErrExist):
		r.emit(journal.Record{Action: journal.ActionSkipped, Name: name, SourceDir: r.root, DestDir: destDir, Reason: ReasonExists})
	default:
		r.fail(name, err)
	}
}

func (r *run) moveOverwrite(name, src, destDir string) {
	dst := filepath.Join(destDir, name)
	_, statErr := os.Lstat(dst)
	if err := fsops.MoveReplace(src, dst); err != nil {
		r.fail(name, err)
		return
	}
	r.emit(journal.Record{Action: journal.ActionMoved, Name: name, SourceDir: r.root, DestDir: destDir, Overwrote: statErr == nil})
}

// simulate reports what a real run would do. Names handed out earlier in the
// same preview count as taken.
func (r *run) simulate(name, destDir string) {
	rec := journal.Record{Action: journal.ActionMoved, Name: name, SourceDir: r.root, DestDir: destDir}

	r.mu.Lock()
	taken := func(candidate string) bool {
		path := filepath.Join(destDir, candidate)
		if _, ok := r.claimed[path]; ok {
			return true
		}
		_, err := os.Lstat(path)
		return err == nil
	}

	switch r.engine.opts.Strategy {
	case types.StrategySkip:
		if taken(name) {
			rec.Action, rec.Reason = journal.ActionSkipped, ReasonExists
		}
	case types.StrategyOverwrite:
		rec.Overwrote = taken(name)
	default:
		n := 0
		for n < maxSuffix && taken(SuffixedName(name, n)) {
			n++
		}
		if n > 0 {
			rec.DestName = SuffixedName(name, n)
		}
	}
	if rec.Action == journal.ActionMoved {
		r.claimed[rec.DestPath()] = struct{}{}
	}
	r.mu.Unlock()

	r.emit(rec)
}

func (r *run) fail(name string, err error) {
	log.LogWithError(err).With(log.F("file", name)).Warn("File not organized")
	r.emit(journal.Record{Action: journal.ActionError, Name: name, SourceDir: r.root, Reason: fsops.Reason(err)})
}

// emit stamps the record, adds it to the summary and hands it to the sink.
// Records leave in one lane so the sink never sees concurrent writes.
func (r *run) emit(rec journal.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec.Time = r.engine.opts.Now().UTC()
	rec.Session = r.summary.SessionID
	rec.Simulated = r.engine.opts.Preview
	r.summary.add(rec)

	if err := r.engine.opts.Sink.Write(rec); err != nil {
		log.LogWithError(err).Warn("Failed to persist record")
	}
}
