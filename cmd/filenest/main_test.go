package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"filenest/internal/config"
	"filenest/internal/errors"
	"filenest/internal/journal"
	"filenest/pkg/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTarget writes a test config rooted in a fresh directory and returns
// the directory and the config path.
func setupTarget(t *testing.T, edit func(*config.Config)) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.NewTestConfig(dir)
	if edit != nil {
		edit(cfg)
	}
	require.NoError(t, config.SaveConfig(cfg, cfg.Path()))
	return dir, cfg.Path()
}

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, args ...string) result {
	t.Helper()
	return runCLIContext(t, context.Background(), args...)
}

func runCLIContext(t *testing.T, ctx context.Context, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(ctx, args, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

var sampleFiles = map[string]string{
	"photo.jpg":  "photo",
	"report.pdf": "report",
	"notes.xyz":  "notes",
}

func TestOrganizeThenUndo(t *testing.T) {
	dir, cfgPath := setupTarget(t, nil)
	testutils.CreateTestFilesWithContent(t, dir, sampleFiles)

	res := runCLI(t, "--config", cfgPath, dir)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "3 moved")
	assert.Contains(t, res.stdout, "Run 'filenest undo' to reverse it.")

	testutils.AssertFileContent(t, filepath.Join(dir, "Images", "photo.jpg"), "photo")
	testutils.AssertFileContent(t, filepath.Join(dir, "Documents", "report.pdf"), "report")
	testutils.AssertFileContent(t, filepath.Join(dir, "Others", "notes.xyz"), "notes")

	res = runCLI(t, "--config", cfgPath, "undo")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "3 restored, 3 folders removed")

	for name, content := range sampleFiles {
		testutils.AssertFileContent(t, filepath.Join(dir, name), content)
	}
	assert.NoDirExists(t, filepath.Join(dir, "Images"))
	assert.NoDirExists(t, filepath.Join(dir, "Others"))

	res = runCLI(t, "--config", cfgPath, "undo")
	assert.Equal(t, exitFatal, res.code)
	assert.Contains(t, res.stderr, "nothing to undo")
}

func TestDryRunMovesNothing(t *testing.T) {
	dir, cfgPath := setupTarget(t, nil)
	testutils.CreateTestFilesWithContent(t, dir, sampleFiles)
	before := testutils.Snapshot(t, dir)

	res := runCLI(t, "--config", cfgPath, "-n", dir)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Dry run for")
	assert.Contains(t, res.stdout, "Dry run: no files were moved.")
	assert.Contains(t, res.stdout, "photo.jpg")

	after := testutils.Snapshot(t, dir)
	for name, content := range before {
		assert.Equal(t, content, after[name], name)
	}
	assert.NoDirExists(t, filepath.Join(dir, "Images"))

	// A dry run is never the session undo picks.
	res = runCLI(t, "--config", cfgPath, "undo")
	assert.Equal(t, exitFatal, res.code)
	assert.Contains(t, res.stderr, "nothing to undo")

	res = runCLI(t, "--config", cfgPath, "log")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "[dry-run] Moved | photo.jpg")
}

func TestOrganizeJSON(t *testing.T) {
	dir, cfgPath := setupTarget(t, nil)
	testutils.CreateTestFilesWithContent(t, dir, sampleFiles)

	res := runCLI(t, "--config", cfgPath, "organize", "--json", dir)
	require.Equal(t, exitOK, res.code, res.stderr)

	var summary struct {
		SessionID string `json:"session_id"`
		Moved     int    `json:"moved"`
		Folders   int    `json:"folders_created"`
		Records   []struct {
			Action string `json:"action"`
			Name   string `json:"name"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &summary))
	assert.NotEmpty(t, summary.SessionID)
	assert.Equal(t, 3, summary.Moved)
	assert.Equal(t, 3, summary.Folders)
	assert.Len(t, summary.Records, 6)
}

func TestPerFileErrorsExitWithTwo(t *testing.T) {
	dir, cfgPath := setupTarget(t, func(cfg *config.Config) {
		cfg.Exclude = []string{"Documents"}
	})
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{
		"Documents":  "a file where the category folder should be",
		"report.pdf": "report",
		"photo.jpg":  "photo",
	})

	res := runCLI(t, "--config", cfgPath, dir)
	assert.Equal(t, exitFileError, res.code)
	assert.Contains(t, res.stdout, "not a directory")
	assert.NotContains(t, res.stderr, "Error:")
	testutils.AssertFileContent(t, filepath.Join(dir, "report.pdf"), "report")
	assert.FileExists(t, filepath.Join(dir, "Images", "photo.jpg"))

	res = runCLI(t, "--config", cfgPath, "log", "--errors-only")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "| Error | report.pdf |")
	assert.NotContains(t, res.stdout, "photo.jpg")

	res = runCLI(t, "--config", cfgPath, "log", "--action", "moved")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "| Moved | photo.jpg |")
	assert.NotContains(t, res.stdout, "report.pdf")

	res = runCLI(t, "--config", cfgPath, "log", "--stats")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Records: 4")
	assert.Contains(t, res.stdout, "Moves by category:")
}

func TestInvalidFlagsAreFatal(t *testing.T) {
	dir, cfgPath := setupTarget(t, nil)

	res := runCLI(t, "--config", cfgPath, "organize", "--strategy", "bogus", dir)
	assert.Equal(t, exitFatal, res.code)
	assert.Contains(t, res.stderr, "invalid duplicate strategy")

	res = runCLI(t, "--config", cfgPath, "log", "--action", "teleported")
	assert.Equal(t, exitFatal, res.code)
	assert.Contains(t, res.stderr, "unknown action")

	res = runCLI(t, "--config", cfgPath, filepath.Join(dir, "missing"))
	assert.Equal(t, exitFatal, res.code)
	assert.Contains(t, res.stderr, "Error:")
}

func TestUndoDryRunThenUndo(t *testing.T) {
	dir, cfgPath := setupTarget(t, nil)
	testutils.CreateTestFilesWithContent(t, dir, sampleFiles)
	require.Equal(t, exitOK, runCLI(t, "--config", cfgPath, dir).code)

	res := runCLI(t, "--config", cfgPath, "undo", "--dry-run")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Dry run: undo of session")
	assert.FileExists(t, filepath.Join(dir, "Images", "photo.jpg"))

	res = runCLI(t, "--config", cfgPath, "undo")
	require.Equal(t, exitOK, res.code, res.stderr)
	testutils.AssertFileContent(t, filepath.Join(dir, "photo.jpg"), "photo")
}

func TestUndoSkipsRunsThatChangedNothing(t *testing.T) {
	dir, cfgPath := setupTarget(t, nil)
	testutils.CreateTestFilesWithContent(t, dir, sampleFiles)
	require.Equal(t, exitOK, runCLI(t, "--config", cfgPath, dir).code)

	// The rerun finds nothing left to move.
	res := runCLI(t, "--config", cfgPath, dir)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Nothing to organize.")

	res = runCLI(t, "--config", cfgPath, "undo")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "3 restored")
	for name, content := range sampleFiles {
		testutils.AssertFileContent(t, filepath.Join(dir, name), content)
	}
	assert.NoDirExists(t, filepath.Join(dir, "Images"))
}

func TestUndoNeverClobbers(t *testing.T) {
	dir, cfgPath := setupTarget(t, nil)
	testutils.CreateTestFilesWithContent(t, dir, sampleFiles)
	require.Equal(t, exitOK, runCLI(t, "--config", cfgPath, dir).code)

	// A new file takes the original name before the undo.
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{"photo.jpg": "newer"})

	res := runCLI(t, "--config", cfgPath, "undo")
	assert.Equal(t, exitFileError, res.code)
	assert.Contains(t, res.stdout, "original name is taken")
	testutils.AssertFileContent(t, filepath.Join(dir, "photo.jpg"), "newer")
	testutils.AssertFileContent(t, filepath.Join(dir, "Images", "photo.jpg"), "photo")
	testutils.AssertFileContent(t, filepath.Join(dir, "report.pdf"), "report")
}

func TestHistoryListsSessions(t *testing.T) {
	dir, cfgPath := setupTarget(t, nil)
	testutils.CreateTestFilesWithContent(t, dir, sampleFiles)

	require.Equal(t, exitOK, runCLI(t, "--config", cfgPath, "-n", dir).code)
	require.Equal(t, exitOK, runCLI(t, "--config", cfgPath, dir).code)

	res := runCLI(t, "--config", cfgPath, "history")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "dry run")
	assert.Contains(t, res.stdout, "done")
	assert.Contains(t, res.stdout, "rename")

	require.Equal(t, exitOK, runCLI(t, "--config", cfgPath, "undo").code)
	res = runCLI(t, "--config", cfgPath, "history", "--limit", "1")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "undone")
	assert.NotContains(t, res.stdout, "dry run")
}

func TestLogExportAndCleanup(t *testing.T) {
	dir, cfgPath := setupTarget(t, nil)
	testutils.CreateTestFilesWithContent(t, dir, sampleFiles)
	require.Equal(t, exitOK, runCLI(t, "--config", cfgPath, dir).code)

	export := filepath.Join(t.TempDir(), "log.csv")
	res := runCLI(t, "--config", cfgPath, "log", "--export", export)
	require.Equal(t, exitOK, res.code, res.stderr)
	data, err := os.ReadFile(export)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "time,action,simulated,undo,name"))
	assert.Equal(t, 7, strings.Count(string(data), "\n"))

	// An existing export is never replaced.
	res = runCLI(t, "--config", cfgPath, "log", "--export", export)
	assert.Equal(t, exitFatal, res.code)
	assert.Contains(t, res.stderr, "failed to create export file")
	assert.Contains(t, res.stderr, "Pick another path")

	res = runCLI(t, "--config", cfgPath, "log", "cleanup", "--days", "1")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Removed 0 log lines")
	assert.Contains(t, res.stdout, "Removed 0 history sessions")

	res = runCLI(t, "--config", cfgPath, "log", "--count", "1")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, 1, strings.Count(res.stdout, "\n"))

	res = runCLI(t, "--config", cfgPath, "log", "--search", "NO-SUCH-FILE")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "No log lines match.")
}

func TestLogShowsRecentLinesByDefault(t *testing.T) {
	dir, cfgPath := setupTarget(t, nil)
	cfg, err := config.LoadConfigFile(cfgPath)
	require.NoError(t, err)

	sink, err := journal.OpenFileSink(cfg.LogFile)
	require.NoError(t, err)
	start := time.Now().Add(-time.Hour).UTC()
	for i := 0; i < 60; i++ {
		require.NoError(t, sink.Write(journal.Record{
			Time: start.Add(time.Duration(i) * time.Second), Action: journal.ActionMoved,
			Name: fmt.Sprintf("file-%02d.jpg", i), SourceDir: dir, DestDir: filepath.Join(dir, "Images"),
		}))
	}
	require.NoError(t, sink.Close())

	res := runCLI(t, "--config", cfgPath, "log")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, defaultLogCount, strings.Count(res.stdout, "\n"))
	assert.NotContains(t, res.stdout, "file-09.jpg")
	assert.Contains(t, res.stdout, "file-10.jpg")
	assert.Contains(t, res.stdout, "file-59.jpg")

	res = runCLI(t, "--config", cfgPath, "log", "--count", "0")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Equal(t, 60, strings.Count(res.stdout, "\n"))

	res = runCLI(t, "--config", cfgPath, "log", "--stats")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Records: 60")
}

func TestRulesEditConfig(t *testing.T) {
	_, cfgPath := setupTarget(t, nil)

	res := runCLI(t, "--config", cfgPath, "rules", "add", "ebooks", ".epub", "MOBI")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Added .epub, MOBI to Ebooks")

	res = runCLI(t, "--config", cfgPath, "rules", "add", "images", "webp")
	require.Equal(t, exitOK, res.code, res.stderr)

	cfg, err := config.LoadConfigFile(cfgPath)
	require.NoError(t, err)
	idx := cfg.Categories.Find("Ebooks")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, []string{".epub", ".mobi"}, cfg.Categories[idx].Extensions)
	assert.True(t, cfg.Categories[cfg.Categories.Find("Images")].HasExtension(".webp"))

	// Extensions belong to one category only.
	res = runCLI(t, "--config", cfgPath, "rules", "add", "Pictures", ".jpg")
	assert.Equal(t, exitFatal, res.code)

	require.Equal(t, exitOK, runCLI(t, "--config", cfgPath, "rules", "remove", "Ebooks").code)
	require.Equal(t, exitOK, runCLI(t, "--config", cfgPath, "rules", "strategy", "skip").code)
	require.Equal(t, exitOK, runCLI(t, "--config", cfgPath, "rules", "catch-all", "Misc").code)

	cfg, err = config.LoadConfigFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.Categories.Find("Ebooks"))
	assert.Equal(t, "skip", string(cfg.DuplicateStrategy))
	assert.Equal(t, "Misc", cfg.OthersFolder)

	res = runCLI(t, "--config", cfgPath, "rules")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Images")
	assert.Contains(t, res.stdout, ".webp")
	assert.Contains(t, res.stdout, "Misc")
	assert.Contains(t, res.stdout, "Duplicate strategy: skip")

	res = runCLI(t, "--config", cfgPath, "rules", "strategy", "merge")
	assert.Equal(t, exitFatal, res.code)
}

func TestInitRefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filenest", "config.yaml")

	res := runCLI(t, "--config", path, "init")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.FileExists(t, path)

	cfg, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultCategories().Names(), cfg.Categories.Names())

	res = runCLI(t, "--config", path, "init")
	assert.Equal(t, exitFatal, res.code)
	assert.Contains(t, res.stderr, "already exists")

	res = runCLI(t, "--config", path, "init", "--force")
	assert.Equal(t, exitOK, res.code, res.stderr)
}

func TestInitWithProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	res := runCLI(t, "--config", path, "init", "--profile", "developer")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "with the developer profile")

	cfg, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "developer", cfg.Profile)
	assert.Equal(t, []string{"Python", "Web", "Config", "Docs", "Archives", "Executables"}, cfg.Categories.Names())
	assert.Contains(t, cfg.Exclude, "*.pyc")

	res = runCLI(t, "--config", filepath.Join(t.TempDir(), "other.yaml"), "init", "--profile", "astronaut")
	assert.Equal(t, exitFatal, res.code)
	assert.Contains(t, res.stderr, "unknown profile")
}

func TestRulesProfileAndSizeLimit(t *testing.T) {
	dir, cfgPath := setupTarget(t, nil)

	res := runCLI(t, "--config", cfgPath, "rules", "profile")
	require.Equal(t, exitOK, res.code, res.stderr)
	for _, name := range config.ProfileNames() {
		assert.Contains(t, res.stdout, name)
	}

	res = runCLI(t, "--config", cfgPath, "rules", "profile", "Student")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Applied the student profile")

	res = runCLI(t, "--config", cfgPath, "rules", "max-size", "1KB")
	require.Equal(t, exitOK, res.code, res.stderr)
	res = runCLI(t, "--config", cfgPath, "rules", "max-size", "lots")
	assert.Equal(t, exitFatal, res.code)

	res = runCLI(t, "--config", cfgPath, "rules")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Textbooks")
	assert.Contains(t, res.stdout, "Size limit:         1KB")
	assert.Contains(t, res.stdout, "Profile:            student")

	testutils.CreateTestFilesWithContent(t, dir, map[string]string{
		"lecture.pdf": strings.Repeat("p", 4096),
		"essay.docx":  "essay",
	})
	res = runCLI(t, "--config", cfgPath, dir)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "larger than 1.0 kB")
	assert.FileExists(t, filepath.Join(dir, "lecture.pdf"))
	assert.FileExists(t, filepath.Join(dir, "Assignments", "essay.docx"))

	// A larger limit on the command line lets the file through.
	res = runCLI(t, "--config", cfgPath, "--max-size", "1MB", dir)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.FileExists(t, filepath.Join(dir, "Textbooks", "lecture.pdf"))
}

func TestWatchOrganizesOnStart(t *testing.T) {
	dir, cfgPath := setupTarget(t, nil)
	testutils.CreateTestFilesWithContent(t, dir, sampleFiles)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	res := runCLIContext(t, ctx, "--config", cfgPath, "watch", "--debounce", "50ms", dir)
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Watching")
	assert.Contains(t, res.stdout, "3 moved")
	assert.FileExists(t, filepath.Join(dir, "Images", "photo.jpg"))
}

func TestDiagnosticsFile(t *testing.T) {
	dir, cfgPath := setupTarget(t, nil)
	testutils.CreateTestFilesWithContent(t, dir, sampleFiles)
	diag := filepath.Join(t.TempDir(), "filenest.log")

	res := runCLI(t, "--config", cfgPath, "--diagnostics-file", diag, dir)
	require.Equal(t, exitOK, res.code, res.stderr)

	data, err := os.ReadFile(diag)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Run complete")
	assert.Contains(t, res.stderr, "Run complete")
}

func TestErrorHint(t *testing.T) {
	denied := errors.NewFileError("cannot access target directory", "/in", errors.FileAccessDenied, nil)
	exists := errors.NewFileError("failed to create export file", "/out.csv", errors.DestinationExists, nil)

	assert.Contains(t, errorHint(denied), "read and write")
	assert.Contains(t, errorHint(fmt.Errorf("run: %w", exists)), "another path")
	assert.Empty(t, errorHint(errors.New("nothing to undo")))
}

func TestVersion(t *testing.T) {
	res := runCLI(t, "version")
	assert.Equal(t, exitOK, res.code)
	assert.True(t, strings.HasPrefix(res.stdout, "filenest dev"))
}

func TestWithDefaultCommand(t *testing.T) {
	root := newRootCmd(newApp(io.Discard, io.Discard))

	tests := []struct {
		args []string
		want []string
	}{
		{nil, []string{"organize"}},
		{[]string{"-n"}, []string{"organize", "-n"}},
		{[]string{"~/Downloads"}, []string{"organize", "~/Downloads"}},
		{[]string{"--config", "c.yaml", "undo"}, []string{"--config", "c.yaml", "undo"}},
		{[]string{"--config", "c.yaml", "-n", "dir"}, []string{"organize", "--config", "c.yaml", "-n", "dir"}},
		{[]string{"log", "--today"}, []string{"log", "--today"}},
		{[]string{"help"}, []string{"help"}},
		{[]string{"--help"}, []string{"--help"}},
		{[]string{"--version"}, []string{"--version"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, withDefaultCommand(root, tt.args), "%v", tt.args)
	}
}
