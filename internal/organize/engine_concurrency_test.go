package organize_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"filenest/internal/journal"
	"filenest/internal/organize"
	"filenest/pkg/testutils"
	"filenest/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentWorkers runs a large directory through a worker pool and
// checks that every file lands exactly once and every folder is reported once.
func TestConcurrentWorkers(t *testing.T) {
	dir := t.TempDir()
	files := make(map[string]string)
	exts := []string{".jpg", ".png", ".pdf", ".txt", ".zip", ".bin"}
	for i := 0; i < 240; i++ {
		name := fmt.Sprintf("file-%03d%s", i, exts[i%len(exts)])
		files[name] = name
	}
	// Pre-existing names force the rename path for a slice of the files.
	for i := 0; i < 240; i += 10 {
		name := fmt.Sprintf("file-%03d%s", i, exts[i%len(exts)])
		category := testRules().Categorize(name)
		files[category+"/"+name] = "existing"
	}
	testutils.CreateTestFilesWithContent(t, dir, files)

	var sink journal.MemorySink
	summary := run(t, newEngine(organize.Options{Workers: 8, Strategy: types.StrategyRename, Sink: &sink}), dir)

	assert.Equal(t, 240, summary.Moved)
	assert.Equal(t, 0, summary.Errors)
	assert.Equal(t, 1, summary.FoldersCreated, "only Others did not exist")
	assert.Len(t, sink.Records(), len(summary.Records))

	renamed := 0
	seen := make(map[string]bool)
	for _, rec := range summary.Filter(journal.ActionMoved) {
		assert.False(t, seen[rec.DestPath()], "destination used twice: %s", rec.DestPath())
		seen[rec.DestPath()] = true
		testutils.AssertFileContent(t, rec.DestPath(), rec.Name)
		if rec.Renamed() {
			renamed++
		}
	}
	assert.Equal(t, 24, renamed)
	assert.Equal(t, []string{"Archives", "Documents", "Images", "Others"}, testutils.ListFiles(t, dir))
}

// TestConcurrentRunsOnOneDirectory races several engines over the same
// directory. Each file is moved by exactly one of them and each category
// folder is reported as created exactly once.
func TestConcurrentRunsOnOneDirectory(t *testing.T) {
	dir := t.TempDir()
	files := make(map[string]string)
	for i := 0; i < 60; i++ {
		files[fmt.Sprintf("f%02d.jpg", i)] = "jpg"
		files[fmt.Sprintf("f%02d.pdf", i)] = "pdf"
	}
	testutils.CreateTestFilesWithContent(t, dir, files)

	const runs = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		moved     int
		folders   int
		errReason []string
	)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			summary, err := newEngine(organize.Options{Workers: 4}).Run(context.Background(), dir)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			moved += summary.Moved
			folders += summary.FoldersCreated
			for _, rec := range summary.Filter(journal.ActionError) {
				errReason = append(errReason, rec.Reason)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, len(files), moved)
	assert.Equal(t, 2, folders)
	for _, reason := range errReason {
		// A file another run already moved has vanished from under us.
		assert.Equal(t, "no such file or directory", reason)
	}
	assert.Equal(t, []string{"Documents", "Images"}, testutils.ListFiles(t, dir))
	assert.Len(t, testutils.ListFiles(t, filepath.Join(dir, "Images")), 60)
}

func TestFolderCreatedByAnotherProcessIsNotRecorded(t *testing.T) {
	dir := t.TempDir()
	testutils.CreateTestFilesWithContent(t, dir, map[string]string{"a.jpg": "a"})

	// Another invocation won the mkdir race.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Images"), 0o755))

	summary := run(t, newEngine(organize.Options{}), dir)
	assert.Equal(t, 0, summary.FoldersCreated)
	assert.Equal(t, 1, summary.Moved)
}
