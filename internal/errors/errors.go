// Package errors provides standardized error handling for filenest.
// Every error the organizer raises carries an ErrorKind; file, config, rule
// and history errors also carry the subject they concern so callers can
// report "which path" or "which setting" without parsing messages.
package errors

import (
	"errors"
	"fmt"
	"io/fs"
)

// Standard errors package functions re-exported for convenience
var (
	Unwrap = errors.Unwrap
	Is     = errors.Is
	As     = errors.As
	Join   = errors.Join
)

// Sentinels for comparisons with Is-style checks on kind
var (
	ErrFileNotFound  = NewFileError("file not found", "", FileNotFound, nil)
	ErrFileAccess    = NewFileError("file access denied", "", FileAccessDenied, nil)
	ErrInvalidPath   = NewFileError("invalid file path", "", InvalidPath, nil)
	ErrInvalidConfig = NewConfigError("invalid configuration", "", InvalidConfig, nil)
	ErrInvalidRule   = NewRuleError("invalid rule", "", InvalidRule, nil)
)

// ErrorKind classifies an error.
type ErrorKind int

const (
	Unknown ErrorKind = iota

	FileNotFound
	FileAccessDenied
	InvalidPath
	FileCreateFailed
	FileOperationFailed
	DestinationExists

	InvalidConfig
	ConfigNotFound

	InvalidRule

	DatabaseConnectionFailed
	DatabaseQueryFailed
	DatabaseOperationFailed
)

var kindNames = map[ErrorKind]string{
	Unknown:                  "unknown",
	FileNotFound:             "file_not_found",
	FileAccessDenied:         "file_access_denied",
	InvalidPath:              "invalid_path",
	FileCreateFailed:         "file_create_failed",
	FileOperationFailed:      "file_operation_failed",
	DestinationExists:        "destination_exists",
	InvalidConfig:            "invalid_config",
	ConfigNotFound:           "config_not_found",
	InvalidRule:              "invalid_rule",
	DatabaseConnectionFailed: "database_connection_failed",
	DatabaseQueryFailed:      "database_query_failed",
	DatabaseOperationFailed:  "database_operation_failed",
}

// String returns the snake_case name used in structured logs.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ApplicationError is the base of every filenest error. The optional
// subject is rendered between the message and the cause.
type ApplicationError struct {
	msg     string
	subject string
	err     error
	kind    ErrorKind
}

func (e *ApplicationError) Error() string {
	parts := e.msg
	if e.subject != "" {
		parts += ": " + e.subject
	}
	if e.err != nil {
		parts += ": " + e.err.Error()
	}
	return parts
}

func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// FileError concerns one path on disk.
type FileError struct {
	ApplicationError
}

// NewFileError creates a file error for path.
func NewFileError(msg string, path string, kind ErrorKind, err error) *FileError {
	return &FileError{ApplicationError{msg: msg, subject: path, err: err, kind: kind}}
}

// FileErrorFrom classifies an OS error into a FileError of the matching kind.
func FileErrorFrom(msg, path string, err error) *FileError {
	kind := FileOperationFailed
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = FileNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = FileAccessDenied
	case errors.Is(err, fs.ErrExist):
		kind = DestinationExists
	}
	return NewFileError(msg, path, kind, err)
}

// Path returns the file path associated with the error
func (e *FileError) Path() string {
	return e.subject
}

// ConfigError concerns one configuration setting.
type ConfigError struct {
	ApplicationError
}

// NewConfigError creates a configuration error for the named setting.
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{ApplicationError{msg: msg, subject: param, err: err, kind: kind}}
}

// Param returns the configuration setting, e.g. "duplicate_strategy".
func (e *ConfigError) Param() string {
	return e.subject
}

// RuleError concerns one category of the rule set.
type RuleError struct {
	ApplicationError
}

// NewRuleError creates a rule error for the named category.
func NewRuleError(msg string, category string, kind ErrorKind, err error) *RuleError {
	return &RuleError{ApplicationError{msg: msg, subject: category, err: err, kind: kind}}
}

// Category returns the category associated with the error
func (e *RuleError) Category() string {
	return e.subject
}

// DatabaseError is raised by the session history store.
type DatabaseError struct {
	ApplicationError
	context map[string]interface{}
}

// NewDatabaseError creates a history error of kind DatabaseOperationFailed.
func NewDatabaseError(msg string, err error) *DatabaseError {
	return &DatabaseError{
		ApplicationError: ApplicationError{msg: msg, err: err, kind: DatabaseOperationFailed},
		context:          make(map[string]interface{}),
	}
}

// WithOperation names the store operation, rendered as "operation=<op>".
func (e *DatabaseError) WithOperation(operation string) *DatabaseError {
	e.subject = "operation=" + operation
	e.context["operation"] = operation
	return e
}

// WithKind sets the kind, e.g. DatabaseConnectionFailed or DatabaseQueryFailed
func (e *DatabaseError) WithKind(kind ErrorKind) *DatabaseError {
	e.kind = kind
	return e
}

// WithContext attaches a key/value for logging; it is not part of the message.
func (e *DatabaseError) WithContext(key string, value interface{}) *DatabaseError {
	e.context[key] = value
	return e
}

// Operation returns the store operation, empty if none was set.
func (e *DatabaseError) Operation() string {
	op, _ := e.context["operation"].(string)
	return op
}

func (e *DatabaseError) Context() map[string]interface{} {
	return e.context
}

// New creates an error of kind Unknown.
func New(msg string) error {
	return &ApplicationError{msg: msg}
}

// Newf creates an error of kind Unknown with a formatted message.
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{msg: fmt.Sprintf(format, args...)}
}

// Wrap prefixes err with msg. A nil err stays nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{msg: msg, err: err}
}

// Wrapf prefixes err with a formatted message. A nil err stays nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{msg: fmt.Sprintf(format, args...), err: err}
}

type kinded interface {
	error
	Kind() ErrorKind
}

// hasKind reports whether an error of type T with the given kind is in the chain.
func hasKind[T kinded](err error, kind ErrorKind) bool {
	var target T
	return errors.As(err, &target) && target.Kind() == kind
}

// KindOf returns the first kind other than Unknown found along the chain,
// so a plain Wrap around a FileError still reports the file kind.
func KindOf(err error) ErrorKind {
	for ; err != nil; err = errors.Unwrap(err) {
		if k, ok := err.(kinded); ok && k.Kind() != Unknown {
			return k.Kind()
		}
	}
	return Unknown
}

func IsFileNotFound(err error) bool {
	return hasKind[*FileError](err, FileNotFound)
}

func IsFileAccessDenied(err error) bool {
	return hasKind[*FileError](err, FileAccessDenied)
}

func IsDestinationExists(err error) bool {
	return hasKind[*FileError](err, DestinationExists)
}

func IsInvalidConfig(err error) bool {
	return hasKind[*ConfigError](err, InvalidConfig)
}

func IsInvalidRule(err error) bool {
	return hasKind[*RuleError](err, InvalidRule)
}

// IsDatabaseError reports whether a history store error is in the chain.
func IsDatabaseError(err error) bool {
	var dbErr *DatabaseError
	return errors.As(err, &dbErr)
}
