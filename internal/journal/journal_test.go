package journal

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stamp = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func TestRecordLine(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{
			name: "moved",
			rec:  Record{Time: stamp, Action: ActionMoved, Name: "photo.jpg", SourceDir: "/in", DestDir: "/in/Images"},
			want: "2024-03-09T14:05:07Z | Moved | photo.jpg | /in | /in/Images",
		},
		{
			name: "renamed",
			rec:  Record{Time: stamp, Action: ActionMoved, Name: "a.txt", DestName: "a (1).txt", SourceDir: "/in", DestDir: "/in/Documents"},
			want: "2024-03-09T14:05:07Z | Moved (renamed to a (1).txt) | a.txt | /in | /in/Documents",
		},
		{
			name: "overwrote",
			rec:  Record{Time: stamp, Action: ActionMoved, Overwrote: true, Name: "a.txt", SourceDir: "/in", DestDir: "/in/Documents"},
			want: "2024-03-09T14:05:07Z | Moved (overwrote existing) | a.txt | /in | /in/Documents",
		},
		{
			name: "skipped",
			rec:  Record{Time: stamp, Action: ActionSkipped, Name: "a.txt", SourceDir: "/in", Reason: "already exists"},
			want: "2024-03-09T14:05:07Z | Skipped | a.txt | /in | already exists",
		},
		{
			name: "error",
			rec:  Record{Time: stamp, Action: ActionError, Name: "b.pdf", SourceDir: "/in", Reason: "permission denied"},
			want: "2024-03-09T14:05:07Z | Error | b.pdf | /in | permission denied",
		},
		{
			name: "created folder",
			rec:  Record{Time: stamp, Action: ActionCreatedFolder, Name: "Images", SourceDir: "/in", DestDir: "/in/Images"},
			want: "2024-03-09T14:05:07Z | Created folder | Images | /in | /in/Images",
		},
		{
			name: "simulated",
			rec:  Record{Time: stamp, Action: ActionMoved, Simulated: true, Name: "photo.jpg", SourceDir: "/in", DestDir: "/in/Images"},
			want: "2024-03-09T14:05:07Z | [dry-run] Moved | photo.jpg | /in | /in/Images",
		},
		{
			name: "undo",
			rec:  Record{Time: stamp, Action: ActionMoved, Undo: true, Name: "photo.jpg", SourceDir: "/in/Images", DestDir: "/in"},
			want: "2024-03-09T14:05:07Z | Moved (undo) | photo.jpg | /in/Images | /in",
		},
		{
			name: "local time is rendered in utc",
			rec:  Record{Time: stamp.In(time.FixedZone("X", 3600)), Action: ActionSkipped, Name: ".x", SourceDir: "/in", Reason: "hidden file"},
			want: "2024-03-09T14:05:07Z | Skipped | .x | /in | hidden file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.Line())

			parsed, err := ParseLine(tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.want, parsed.Line())
			assert.Equal(t, tt.rec.Action, parsed.Action)
			assert.Equal(t, tt.rec.FinalName(), parsed.FinalName())
		})
	}
}

func TestParseLineRejectsGarbage(t *testing.T) {
	for _, line := range []string{
		"",
		"not a record",
		"yesterday | Moved | a | b | c",
		"2024-03-09T14:05:07Z | Teleported | a | b | c",
		"2024-03-09T14:05:07Z | Moved (sideways) | a | b | c",
	} {
		_, err := ParseLine(line)
		assert.Error(t, err, line)
	}
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction("created-folder")
	assert.True(t, ok)
	assert.Equal(t, ActionCreatedFolder, a)

	a, ok = ParseAction(" MOVED ")
	assert.True(t, ok)
	assert.Equal(t, ActionMoved, a)

	_, ok = ParseAction("deleted")
	assert.False(t, ok)
}

func TestFileSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "log.txt")

	sink, err := OpenFileSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Write(Record{Time: stamp, Action: ActionMoved, Name: "a.jpg", SourceDir: "/in", DestDir: "/in/Images"}))
	require.NoError(t, sink.Close())

	// Reopening appends instead of truncating.
	sink, err = OpenFileSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Write(Record{Time: stamp, Action: ActionSkipped, Name: "b.jpg", SourceDir: "/in", Reason: "already exists"}))
	require.NoError(t, sink.Close())
	assert.Error(t, sink.Write(Record{Time: stamp, Action: ActionMoved}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[1], "| already exists"))
}

func TestFileSinkFollowsReplacedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.txt")
	sink, err := OpenFileSink(path)
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Write(Record{Time: stamp, Action: ActionMoved, Name: "old.txt", SourceDir: "/in", DestDir: "/in/Documents"}))

	// Swap the log the way cleanup does.
	tmp := filepath.Join(dir, "log.txt.tmp")
	require.NoError(t, os.WriteFile(tmp, nil, 0o644))
	require.NoError(t, os.Rename(tmp, path))

	require.NoError(t, sink.Write(Record{Time: stamp, Action: ActionMoved, Name: "new.txt", SourceDir: "/in", DestDir: "/in/Documents"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "old.txt")
	assert.Contains(t, string(data), "new.txt")
}

func TestFileSinkConcurrentWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	a, err := OpenFileSink(path)
	require.NoError(t, err)
	defer a.Close()
	b, err := OpenFileSink(path)
	require.NoError(t, err)
	defer b.Close()

	const perWriter = 50
	var wg sync.WaitGroup
	for w, sink := range []*FileSink{a, b} {
		wg.Add(1)
		go func(w int, sink *FileSink) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				rec := Record{Time: stamp, Action: ActionMoved, Name: fmt.Sprintf("w%d-%d.txt", w, i), SourceDir: "/in", DestDir: "/in/Documents"}
				assert.NoError(t, sink.Write(rec))
			}
		}(w, sink)
	}
	wg.Wait()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, bad, err := ReadLines(f)
	require.NoError(t, err)
	assert.Empty(t, bad)
	assert.Len(t, records, 2*perWriter)
}

func TestMultiSink(t *testing.T) {
	var first, second MemorySink
	failing := SinkFunc(func(Record) error { return fmt.Errorf("disk full") })

	sink := MultiSink(&first, nil, failing, &second)
	err := sink.Write(Record{Time: stamp, Action: ActionMoved, Name: "x"})
	assert.ErrorContains(t, err, "disk full")
	assert.Len(t, first.Records(), 1)
	assert.Len(t, second.Records(), 1)

	assert.NoError(t, MultiSink(&first).Write(Record{}))
	assert.NoError(t, Discard.Write(Record{}))
}

func TestReadLinesCollectsMalformed(t *testing.T) {
	var buf bytes.Buffer
	recs := []Record{
		{Time: stamp, Action: ActionMoved, Name: "a.jpg", SourceDir: "/in", DestDir: "/in/Images"},
		{Time: stamp, Action: ActionError, Name: "b.pdf", SourceDir: "/in", Reason: "permission denied"},
	}
	require.NoError(t, WriteLines(&buf, recs))
	buf.WriteString("garbage line\n\n")

	got, bad, err := ReadLines(&buf)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, []string{"garbage line"}, bad)
	assert.Equal(t, "permission denied", got[1].Reason)
}
