package main

import (
	"context"
	"io"
	"os"
	"time"

	"filenest/internal/config"
	"filenest/internal/errors"
	"filenest/internal/history"
	"filenest/internal/journal"
	"filenest/internal/log"
	"filenest/internal/organize"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
)

// app carries the state shared by every command of one invocation.
type app struct {
	cfgFile  string
	debug    bool
	logJSON  bool
	noColor  bool
	diagFile string

	out    io.Writer
	errOut io.Writer
	cfg    *config.Config
	theme  theme
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut, theme: plainTheme}
}

// setup configures diagnostics and colors; it runs before every command.
func (a *app) setup() {
	opts := []log.Option{log.WithOutput(a.errOut)}
	if a.logJSON {
		opts = append(opts, log.WithJSON())
	}
	if a.debug {
		opts = append(opts, log.WithLevel("debug"))
	}
	if a.diagFile != "" {
		opts = append(opts, log.WithFile(a.diagFile))
	}
	log.Configure(opts...)
	log.SetDebug(a.debug)

	a.theme = plainTheme
	if !a.noColor && os.Getenv("NO_COLOR") == "" && isTerminal(a.out) {
		a.theme = colorTheme
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// loadConfig loads the configuration once, from --config when given.
func (a *app) loadConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	var (
		cfg *config.Config
		err error
	)
	if a.cfgFile != "" {
		cfg, err = config.LoadConfigFile(a.cfgFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, err
	}
	log.LogWithFields(log.F("config", cfg.Path())).Debug("Configuration loaded")
	a.cfg = cfg
	return cfg, nil
}

// stores holds the open move log and history database.
type stores struct {
	log     *journal.FileSink
	history *history.Store
}

func (a *app) openStores(cfg *config.Config) (*stores, error) {
	s := &stores{}
	var err error
	if cfg.LogFile != "" {
		if s.log, err = journal.OpenFileSink(cfg.LogFile); err != nil {
			return nil, err
		}
	}
	if cfg.HistoryDB != "" {
		if s.history, err = history.Open(cfg.HistoryDB); err != nil {
			s.close()
			return nil, err
		}
	}
	return s, nil
}

// sink fans records out to the log and, when withHistory is set, the history.
func (s *stores) sink(withHistory bool) journal.Sink {
	var sinks []journal.Sink
	if s.log != nil {
		sinks = append(sinks, s.log)
	}
	if s.history != nil && withHistory {
		sinks = append(sinks, s.history)
	}
	return journal.MultiSink(sinks...)
}

func (s *stores) close() {
	if s.log != nil {
		if err := s.log.Close(); err != nil {
			log.LogWithError(err).Warn("Failed to close move log")
		}
	}
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			log.LogWithError(err).Warn("Failed to close history")
		}
	}
}

// sessionOrganizer runs a fresh engine per call and keeps the history in
// step: a session row before the run, final counts after it. Watch mode
// calls Run repeatedly, so each trigger becomes its own undoable session.
type sessionOrganizer struct {
	cfg       *config.Config
	stores    *stores
	overrides organize.Overrides
}

func (o *sessionOrganizer) Run(ctx context.Context, dir string) (*organize.Summary, error) {
	overrides := o.overrides
	overrides.SessionID = uuid.NewString()
	overrides.Sink = o.stores.sink(true)

	org, err := organize.CurrentOrganizerFactory(o.cfg, overrides)
	if err != nil {
		return nil, err
	}

	abs, err := config.ExpandPath(dir)
	if err != nil {
		return nil, errors.NewFileError("invalid target directory", dir, errors.InvalidPath, err)
	}
	if info, statErr := os.Stat(abs); statErr != nil || !info.IsDir() {
		// The engine reports the target error; there is nothing to record.
		return org.Run(ctx, abs)
	}

	started := time.Now()
	if h := o.stores.history; h != nil {
		strategy := overrides.Strategy
		if strategy == "" {
			strategy = o.cfg.DuplicateStrategy
		}
		if err := h.BeginSession(ctx, history.Session{
			ID: overrides.SessionID, Dir: abs, Preview: overrides.Preview,
			Strategy: string(strategy), Started: started,
		}); err != nil {
			return nil, errors.Wrap(err, "cannot start history session")
		}
	}

	summary, runErr := org.Run(ctx, abs)
	if h := o.stores.history; h != nil && summary != nil {
		counts := history.Counts{
			Moved: summary.Moved, Skipped: summary.Skipped,
			Errors: summary.Errors, Folders: summary.FoldersCreated,
		}
		// Recorded even after cancellation so the moves made stay undoable.
		if err := h.FinishSession(context.WithoutCancel(ctx), overrides.SessionID, summary.Finished, counts); err != nil {
			log.LogWithError(err).Warn("Failed to finish history session")
		}
	}
	return summary, runErr
}
