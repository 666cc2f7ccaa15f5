// Package errors provides structured error handling for the protoforge
// compiler. It defines error codes and categories for both human-readable
// terminal output and machine-parseable JSON for tooling consumption.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode is a unique error code in the protoforge compiler.
type ErrorCode string

const (
	// CodeDuplicateName reports two entities claiming one fully-qualified name.
	CodeDuplicateName ErrorCode = "IDX001"
	// CodeInvalidMapKey reports a map key kind outside the legal key set.
	CodeInvalidMapKey ErrorCode = "IDX002"
	// CodeUnresolvedReference reports a type reference with no match in scope.
	CodeUnresolvedReference ErrorCode = "RES101"
	// CodeUnbrokenCycle reports a containment cycle surviving the cycle breaker.
	CodeUnbrokenCycle ErrorCode = "GRA201"
	// CodeConfiguration reports a malformed or conflicting option value.
	CodeConfiguration ErrorCode = "CFG301"
)

// ErrorCategory groups error codes by pipeline stage.
type ErrorCategory string

const (
	// CategoryIndex covers descriptor cataloguing errors (IDX001-099)
	CategoryIndex ErrorCategory = "index"
	// CategoryResolve covers scope resolution errors (RES100-199)
	CategoryResolve ErrorCategory = "resolve"
	// CategoryGraph covers reference graph errors (GRA200-299)
	CategoryGraph ErrorCategory = "graph"
	// CategoryConfig covers configuration errors (CFG300-399)
	CategoryConfig ErrorCategory = "config"
	// CategoryCodegen covers code generation errors (GEN400-499)
	CategoryCodegen ErrorCategory = "codegen"
)

// CompileError is a structured compiler error. Every fatal condition in
// the pipeline is reported as one of these, carrying the fully-qualified
// name and file of origin so the failure is locatable in the schema.
type CompileError struct {
	// Code is the unique error code (e.g. "IDX001")
	Code ErrorCode `json:"code"`
	// Category is the pipeline stage that produced the error
	Category ErrorCategory `json:"category"`
	// Message is the primary error message
	Message string `json:"message"`
	// FQN is the fully-qualified name of the offending entity (optional)
	FQN string `json:"fqn,omitempty"`
	// File is the schema file of origin (optional)
	File string `json:"file,omitempty"`
	// Suggestion provides a hint for fixing the error (optional)
	Suggestion string `json:"suggestion,omitempty"`
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.File != "" {
		fmt.Fprintf(&sb, " (in %s)", e.File)
	}
	return sb.String()
}

// ToJSON returns the error as a JSON string for tooling consumption.
func (e *CompileError) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// WithFile sets the schema file of origin.
func (e *CompileError) WithFile(file string) *CompileError {
	e.File = file
	return e
}

// WithSuggestion sets a hint for fixing the error.
func (e *CompileError) WithSuggestion(suggestion string) *CompileError {
	e.Suggestion = suggestion
	return e
}

// NewDuplicateName reports that two entities share a fully-qualified name.
func NewDuplicateName(fqn, firstFile, secondFile string) *CompileError {
	return &CompileError{
		Code:     CodeDuplicateName,
		Category: CategoryIndex,
		Message:  fmt.Sprintf("duplicate name %q: declared in %s and %s", fqn, firstFile, secondFile),
		FQN:      fqn,
		File:     secondFile,
	}
}

// NewInvalidMapKey reports a map field keyed by an illegal kind.
func NewInvalidMapKey(fqn, field, kind string) *CompileError {
	return &CompileError{
		Code:       CodeInvalidMapKey,
		Category:   CategoryIndex,
		Message:    fmt.Sprintf("map field %s.%s has invalid key type %s", fqn, field, kind),
		FQN:        fqn,
		Suggestion: "map keys must be an integral scalar, bool, or string",
	}
}

// NewUnresolvedReference reports a type reference with no match at any
// scope level.
func NewUnresolvedReference(reference, context string) *CompileError {
	return &CompileError{
		Code:       CodeUnresolvedReference,
		Category:   CategoryResolve,
		Message:    fmt.Sprintf("unresolved reference %q in %s", reference, context),
		FQN:        context,
		Suggestion: "check that the referenced type is declared or its file imported",
	}
}

// NewUnbrokenCycle reports a containment cycle that survived cycle
// breaking. This is an internal consistency failure, not a schema error.
func NewUnbrokenCycle(cycle []string) *CompileError {
	return &CompileError{
		Code:     CodeUnbrokenCycle,
		Category: CategoryGraph,
		Message:  fmt.Sprintf("internal error: containment cycle not broken: %s", strings.Join(cycle, " -> ")),
		FQN:      cycle[0],
	}
}

// NewConfiguration reports a malformed or conflicting option value.
func NewConfiguration(format string, args ...interface{}) *CompileError {
	return &CompileError{
		Code:     CodeConfiguration,
		Category: CategoryConfig,
		Message:  fmt.Sprintf(format, args...),
	}
}

// hasCode reports whether err is a CompileError with the given code.
func hasCode(err error, code ErrorCode) bool {
	var ce *CompileError
	return stderrors.As(err, &ce) && ce.Code == code
}

// IsDuplicateName reports whether err is a duplicate-name error.
func IsDuplicateName(err error) bool { return hasCode(err, CodeDuplicateName) }

// IsInvalidMapKey reports whether err is an invalid-map-key error.
func IsInvalidMapKey(err error) bool { return hasCode(err, CodeInvalidMapKey) }

// IsUnresolvedReference reports whether err is an unresolved-reference error.
func IsUnresolvedReference(err error) bool { return hasCode(err, CodeUnresolvedReference) }

// IsUnbrokenCycle reports whether err is an unbroken-cycle error.
func IsUnbrokenCycle(err error) bool { return hasCode(err, CodeUnbrokenCycle) }

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return hasCode(err, CodeConfiguration) }
