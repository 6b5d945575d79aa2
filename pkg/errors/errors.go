package errors

import (
	"fmt"
)

// ParseError represents a YAML profile parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ClassificationKind distinguishes the two ways host classification fails.
type ClassificationKind string

const (
	UnreadableIdentitySource ClassificationKind = "unreadable_identity_source"
	UnsupportedDistro        ClassificationKind = "unsupported_distro"
)

// ClassificationError means the host could not be mapped to a supported
// platform. It is always fatal and always raised before any mutation.
type ClassificationError struct {
	Kind   ClassificationKind
	Source string
	RawID  string
	Err    error
}

// NewUnreadableSourceError reports that the identity record could not be read.
func NewUnreadableSourceError(source string, err error) error {
	return &ClassificationError{Kind: UnreadableIdentitySource, Source: source, Err: err}
}

// NewUnsupportedDistroError reports a well-formed but unsupported distro id.
func NewUnsupportedDistroError(source, rawID string) error {
	return &ClassificationError{Kind: UnsupportedDistro, Source: source, RawID: rawID}
}

func (e *ClassificationError) Error() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case UnsupportedDistro:
		return fmt.Sprintf("unsupported distro: %s", e.RawID)
	default:
		if e.Err != nil {
			return fmt.Sprintf("could not determine the distro from %s: %v", e.Source, e.Err)
		}
		return fmt.Sprintf("could not determine the distro from %s", e.Source)
	}
}

// Unwrap exposes the underlying error.
func (e *ClassificationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PrivilegeError means elevated rights are not available. Raised before any
// probing or mutation takes place.
type PrivilegeError struct {
	State   string
	Message string
	Err     error
}

// NewPrivilegeError constructs a PrivilegeError for the given privilege state.
func NewPrivilegeError(state, message string, err error) error {
	return &PrivilegeError{State: state, Message: message, Err: err}
}

func (e *PrivilegeError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("privilege error [%s]: %s: %v", e.State, e.Message, e.Err)
	}
	return fmt.Sprintf("privilege error [%s]: %s", e.State, e.Message)
}

// Unwrap exposes the underlying error.
func (e *PrivilegeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StepKind names the corrective step an ExecutionError belongs to.
type StepKind string

const (
	RepositoryRefreshFailed     StepKind = "RepositoryRefreshFailed"
	UnsupportedPlatformVariant  StepKind = "UnsupportedPlatformVariant"
	UnsupportedDistroCommand    StepKind = "UnsupportedDistro"
	RuntimeInstallFailed        StepKind = "RuntimeInstallFailed"
	ServiceStartFailed          StepKind = "ServiceStartFailed"
	IdentityResolutionFailed    StepKind = "IdentityResolutionFailed"
	GroupGrantFailed            StepKind = "GroupGrantFailed"
	ServiceRestartFailed        StepKind = "ServiceRestartFailed"
	ArchitectureDetectionFailed StepKind = "ArchitectureDetectionFailed"
	ComposePluginInstallFailed  StepKind = "ComposePluginInstallFailed"
)

// ExecutionError represents a failed corrective step. Fatal errors halt the
// remainder of their sub-flow; the others are reported and the run goes on.
type ExecutionError struct {
	Kind  StepKind
	Fatal bool
	Err   error
}

// NewFatalError constructs an ExecutionError that halts its sub-flow.
func NewFatalError(kind StepKind, err error) error {
	return &ExecutionError{Kind: kind, Fatal: true, Err: err}
}

// NewReportedError constructs an ExecutionError that is reported without halting.
func NewReportedError(kind StepKind, err error) error {
	return &ExecutionError{Kind: kind, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
