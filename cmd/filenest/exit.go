package main

import (
	"filenest/internal/errors"
)

// Process exit codes.
const (
	exitOK        = 0
	exitFatal     = 1
	exitFileError = 2 // The run finished but some files failed
)

// exitError carries an exit code through cobra. Silent errors have already
// been reported to the user.
type exitError struct {
	code   int
	err    error
	silent bool
}

func (e *exitError) Error() string {
	if e.err == nil {
		return "exit status"
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// partialFailure marks a run whose per-file errors were already printed.
func partialFailure(failed int) error {
	return &exitError{code: exitFileError, err: errors.Newf("%d file(s) could not be processed", failed), silent: true}
}

func exitCode(err error) (int, bool) {
	if err == nil {
		return exitOK, true
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code, ee.silent
	}
	return exitFatal, false
}
