package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessages(t *testing.T) {
	cause := fmt.Errorf("permission denied")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain", New("nothing to undo"), "nothing to undo"},
		{"formatted", Newf("session %s not found", "abc"), "session abc not found"},
		{"file", NewFileError("cannot access", "/in/a.txt", FileAccessDenied, nil), "cannot access: /in/a.txt"},
		{"file with cause", NewFileError("cannot access", "/in/a.txt", FileAccessDenied, cause), "cannot access: /in/a.txt: permission denied"},
		{"file without path", NewFileError("cannot access", "", FileAccessDenied, cause), "cannot access: permission denied"},
		{"config", NewConfigError("invalid value", "workers", InvalidConfig, nil), "invalid value: workers"},
		{"rule", NewRuleError("invalid rule", "Images", InvalidRule, cause), "invalid rule: Images: permission denied"},
		{"database", NewDatabaseError("history write failed", cause).WithOperation("insert_record"), "history write failed: operation=insert_record: permission denied"},
		{"sentinel", ErrFileNotFound, "file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapping(t *testing.T) {
	orig := New("original error")
	wrapped := Wrap(orig, "wrapped")
	assert.Equal(t, "wrapped: original error", wrapped.Error())
	assert.Equal(t, orig, Unwrap(wrapped))
	assert.Equal(t, "formatted wrapper: original error", Wrapf(orig, "formatted %s", "wrapper").Error())
	assert.Equal(t, "deeper: wrapped: original error", Wrap(wrapped, "deeper").Error())
	assert.True(t, Is(Wrap(wrapped, "deeper"), orig))

	assert.Nil(t, Wrap(nil, "wrapper"))
	assert.Nil(t, Wrapf(nil, "formatted %s", "wrapper"))
}

func TestSubjects(t *testing.T) {
	var fe *FileError
	require.True(t, As(Wrap(NewFileError("move failed", "/in/a.txt", FileOperationFailed, nil), "run"), &fe))
	assert.Equal(t, "/in/a.txt", fe.Path())

	var ce *ConfigError
	require.True(t, As(NewConfigError("invalid duration", "watch.debounce", InvalidConfig, nil), &ce))
	assert.Equal(t, "watch.debounce", ce.Param())

	var re *RuleError
	require.True(t, As(NewRuleError("no such category", "Ebooks", InvalidRule, nil), &re))
	assert.Equal(t, "Ebooks", re.Category())

	dbErr := NewDatabaseError("history write failed", nil).WithOperation("insert_record").WithContext("session", "abc")
	assert.Equal(t, "insert_record", dbErr.Operation())
	assert.Equal(t, "abc", dbErr.Context()["session"])
	assert.Empty(t, NewDatabaseError("x", nil).Operation())
}

func TestPredicatesFollowChains(t *testing.T) {
	base := errors.New("base error")
	fileErr := NewFileError("file error", "/path/to/file", FileNotFound, base)
	configErr := NewConfigError("config error", "others_folder", InvalidConfig, fileErr)
	ruleErr := NewRuleError("rule error", "Images", InvalidRule, configErr)

	assert.Equal(t, "rule error: Images: config error: others_folder: file error: /path/to/file: base error", ruleErr.Error())
	assert.True(t, Is(ruleErr, base))
	assert.True(t, IsFileNotFound(ruleErr))
	assert.True(t, IsInvalidConfig(ruleErr))
	assert.True(t, IsInvalidRule(ruleErr))
	assert.False(t, IsFileAccessDenied(ruleErr))
	assert.False(t, IsDatabaseError(ruleErr))

	assert.False(t, IsInvalidConfig(New("some other error")))
	assert.False(t, IsFileNotFound(base))

	dbErr := NewDatabaseError("history write failed", base).WithKind(DatabaseQueryFailed)
	assert.True(t, IsDatabaseError(Wrap(dbErr, "finish session")))
	assert.Equal(t, DatabaseQueryFailed, dbErr.Kind())
}

func TestKindOf(t *testing.T) {
	fileErr := NewFileError("target directory not found", "/missing", FileNotFound, nil)

	assert.Equal(t, FileNotFound, KindOf(fileErr))
	assert.Equal(t, FileNotFound, KindOf(Wrap(fileErr, "organize")))
	assert.Equal(t, FileNotFound, KindOf(fmt.Errorf("run: %w", fileErr)))
	assert.Equal(t, InvalidConfig, KindOf(NewConfigError("bad", "workers", InvalidConfig, fileErr)))
	assert.Equal(t, Unknown, KindOf(New("plain")))
	assert.Equal(t, Unknown, KindOf(nil))
}

func TestKindNames(t *testing.T) {
	assert.Equal(t, "file_not_found", FileNotFound.String())
	assert.Equal(t, "destination_exists", DestinationExists.String())
	assert.Equal(t, "database_operation_failed", DatabaseOperationFailed.String())
	assert.Equal(t, "kind(99)", ErrorKind(99).String())
}

func TestFileErrorFrom(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{"missing", fs.ErrNotExist, FileNotFound},
		{"permission", &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrPermission}, FileAccessDenied},
		{"exists", fs.ErrExist, DestinationExists},
		{"other", fmt.Errorf("disk full"), FileOperationFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fe := FileErrorFrom("move failed", "/x", tc.err)
			assert.Equal(t, tc.kind, fe.Kind())
			assert.True(t, Is(fe, tc.err))
		})
	}
	assert.True(t, IsDestinationExists(FileErrorFrom("move failed", "/x", fs.ErrExist)))
}
