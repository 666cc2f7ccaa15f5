// Package options defines the configuration surface consumed by one
// compilation. An Options value is validated before any resolution work
// begins and is read-only for the duration of the run.
package options

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/protoforge/protoforge/internal/compiler/errors"
)

// ExternPath redirects every type under a fully-qualified name prefix
// to a type that already exists in an external Go package. Matched
// types get a qualified reference emitted and no local declaration.
type ExternPath struct {
	// Prefix is the dotted fully-qualified name prefix, e.g. "google.protobuf".
	Prefix string `mapstructure:"prefix"`
	// ImportPath is the Go import path of the external package.
	ImportPath string `mapstructure:"import_path"`
	// Package overrides the package identifier used in type
	// expressions; defaults to the last element of ImportPath.
	Package string `mapstructure:"package"`
}

// PackageName returns the identifier the external package is referenced by.
func (e *ExternPath) PackageName() string {
	if e.Package != "" {
		return e.Package
	}
	if i := strings.LastIndexByte(e.ImportPath, '/'); i >= 0 {
		return e.ImportPath[i+1:]
	}
	return e.ImportPath
}

// Attribute injects extra text into a generated declaration: a struct
// tag fragment for fields, a comment directive for types. Rules match
// by longest fully-qualified name prefix.
type Attribute struct {
	Path  string `mapstructure:"path"`
	Value string `mapstructure:"value"`
}

// CommentMode selects how schema comments are rendered.
type CommentMode int

const (
	// CommentsInclude renders schema comments as doc comments.
	CommentsInclude CommentMode = iota
	// CommentsStrip drops all schema comments from the output.
	CommentsStrip
)

// Service is the structured description handed to a ServiceGenerator:
// the service identity plus one entry per method with its mapped
// request and response type expressions and streaming flags.
type Service struct {
	Name    string
	FQN     string
	Comment string
	Methods []Method
}

// Method describes one RPC signature with mapped Go types.
type Method struct {
	Name            string
	Comment         string
	Input           string
	Output          string
	ClientStreaming bool
	ServerStreaming bool
}

// ServiceGenerator is a caller-supplied hook invoked once per service.
// The returned source fragment is appended to the owning package's
// output unit; an empty string contributes nothing. The fragment is
// opaque to the compiler.
type ServiceGenerator func(Service) (string, error)

// Options is the process-wide configuration for one compilation.
type Options struct {
	// ExternPaths are tried under longest-prefix-match semantics before
	// any other type mapping rule.
	ExternPaths []ExternPath

	// BoxedFields lists fully-qualified field paths ("pkg.Msg.field")
	// that must use pointer storage regardless of cycle analysis.
	BoxedFields []string

	// TypeAttributes and FieldAttributes inject extra declaration text
	// by longest-prefix match on the fully-qualified name.
	TypeAttributes  []Attribute
	FieldAttributes []Attribute

	// GoImportBase is the import path prefix generated packages live
	// under; cross-package type references are qualified through it.
	GoImportBase string

	// BytesAsString maps the bytes scalar to Go's immutable string
	// instead of an owned []byte. Global to one compilation.
	BytesAsString bool

	// Comments controls schema comment rendering.
	Comments CommentMode

	// ServiceGenerator, when set, is invoked once per service.
	ServiceGenerator ServiceGenerator

	// Logger receives per-stage debug logging. Nil means no logging.
	Logger *zap.Logger
}

var dottedName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Validate checks the configuration before compilation starts:
// extern-path prefixes must be dotted identifiers with no duplicates,
// and boxed-field and attribute paths must be well-formed.
func (o *Options) Validate() error {
	seen := make(map[string]bool, len(o.ExternPaths))
	for _, rule := range o.ExternPaths {
		if !dottedName.MatchString(rule.Prefix) {
			return errors.NewConfiguration("malformed extern path prefix %q", rule.Prefix)
		}
		if rule.ImportPath == "" {
			return errors.NewConfiguration("extern path %q has no import path", rule.Prefix)
		}
		if seen[rule.Prefix] {
			return errors.NewConfiguration("conflicting extern path rules for prefix %q", rule.Prefix)
		}
		seen[rule.Prefix] = true
	}
	for _, path := range o.BoxedFields {
		if !dottedName.MatchString(path) {
			return errors.NewConfiguration("malformed boxed field path %q", path)
		}
	}
	for _, attrs := range [][]Attribute{o.TypeAttributes, o.FieldAttributes} {
		for _, a := range attrs {
			if !dottedName.MatchString(a.Path) {
				return errors.NewConfiguration("malformed attribute path %q", a.Path)
			}
		}
	}
	return nil
}

// MatchExtern returns the extern-path rule with the longest prefix
// matching fqn, if any. A rule matches the name itself or any name
// nested under it.
func (o *Options) MatchExtern(fqn string) (ExternPath, bool) {
	var best ExternPath
	found := false
	for _, rule := range o.ExternPaths {
		if !prefixMatch(fqn, rule.Prefix) {
			continue
		}
		if !found || len(rule.Prefix) > len(best.Prefix) {
			best = rule
			found = true
		}
	}
	return best, found
}

// MatchAttributes returns the attribute values whose paths prefix-match
// fqn, in rule order.
func MatchAttributes(rules []Attribute, fqn string) []string {
	var values []string
	for _, rule := range rules {
		if prefixMatch(fqn, rule.Path) {
			values = append(values, rule.Value)
		}
	}
	return values
}

// BoxedSet returns the boxed-field paths as a lookup set.
func (o *Options) BoxedSet() map[string]bool {
	set := make(map[string]bool, len(o.BoxedFields))
	for _, path := range o.BoxedFields {
		set[path] = true
	}
	return set
}

// Log returns the configured logger, or a nop logger when unset.
func (o *Options) Log() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}

func prefixMatch(fqn, prefix string) bool {
	return fqn == prefix || strings.HasPrefix(fqn, prefix+".")
}
