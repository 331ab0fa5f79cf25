// Package fsops holds the filesystem primitives the organizer relies on:
// moving a file without replacing an existing destination, moving with
// replacement, and copying across filesystems.
package fsops

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"filenest/internal/errors"

	"github.com/google/uuid"
)

// PartialPrefix names in-flight cross-device copies. Files with this prefix
// are never picked up by the organizer.
const PartialPrefix = ".filenest-partial-"

// IsPartial reports whether name is an in-flight copy.
func IsPartial(name string) bool {
	return strings.HasPrefix(name, PartialPrefix)
}

// MoveNoReplace moves src to dst only if dst does not exist. The existence
// check and the move are one atomic step where the platform allows it. When
// dst exists the returned error satisfies errors.Is(err, os.ErrExist).
func MoveNoReplace(src, dst string) error {
	err := renameNoReplace(src, dst)
	switch {
	case err == nil:
		return nil
	case isExist(err):
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: os.ErrExist}
	case isCrossDevice(err):
		return copyAcross(src, dst, false)
	case isUnsupported(err):
		return reserveAndRename(src, dst)
	}
	return err
}

// MoveReplace moves src to dst, replacing dst if it exists.
func MoveReplace(src, dst string) error {
	err := os.Rename(src, dst)
	if err != nil && isCrossDevice(err) {
		return copyAcross(src, dst, true)
	}
	return err
}

// reserveAndRename claims dst with an exclusive create and then renames over
// the placeholder. Used where no atomic no-replace rename exists.
func reserveAndRename(src, dst string) error {
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return &os.LinkError{Op: "rename", Old: src, New: dst, Err: os.ErrExist}
		}
		return err
	}
	f.Close()

	err = os.Rename(src, dst)
	if err != nil && isCrossDevice(err) {
		err = copyAcross(src, dst, true)
	}
	if err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

// copyAcross copies src into a partial file next to dst, syncs it, places it
// and then removes src. The source is untouched until the copy is complete.
func copyAcross(src, dst string, replace bool) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("cannot copy %s across devices: not a regular file", src)
	}

	partial := filepath.Join(filepath.Dir(dst), PartialPrefix+uuid.NewString())
	out, err := os.OpenFile(partial, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	cleanup := func(cause error) error {
		out.Close()
		os.Remove(partial)
		return cause
	}

	if _, err := io.Copy(out, in); err != nil {
		return cleanup(err)
	}
	if err := out.Sync(); err != nil {
		return cleanup(err)
	}
	if err := out.Close(); err != nil {
		os.Remove(partial)
		return err
	}
	// Best effort: keep mode and mtime of the original.
	_ = os.Chmod(partial, info.Mode().Perm())
	_ = os.Chtimes(partial, info.ModTime(), info.ModTime())

	if replace {
		err = os.Rename(partial, dst)
	} else {
		err = renameNoReplace(partial, dst)
		if err != nil && isUnsupported(err) {
			err = reserveAndRename(partial, dst)
		}
		if err != nil && isExist(err) {
			err = &os.LinkError{Op: "rename", Old: src, New: dst, Err: os.ErrExist}
		}
	}
	if err != nil {
		os.Remove(partial)
		return err
	}

	if err := os.Remove(src); err != nil {
		return errors.NewFileError("copied to destination but could not remove source", src, errors.FileOperationFailed, err)
	}
	return nil
}

// Reason reduces err to the message worth showing in a record: the
// underlying OS error without the operation and paths around it.
func Reason(err error) string {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return linkErr.Err.Error()
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	return err.Error()
}

func isExist(err error) bool {
	return errors.Is(err, os.ErrExist) || errors.Is(err, syscall.EEXIST)
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

func isUnsupported(err error) bool {
	return errors.Is(err, errNoReplaceUnsupported) ||
		errors.Is(err, syscall.EINVAL) ||
		errors.Is(err, syscall.ENOSYS) ||
		errors.Is(err, syscall.ENOTSUP)
}

var errNoReplaceUnsupported = errors.New("no-replace rename not supported")
