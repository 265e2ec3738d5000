// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"fmt"
	"strings"
)

// SourceNotFoundError reports a policy document path that does not
// exist. Parse-stage errors like this one short-circuit compilation;
// no partial model is produced.
type SourceNotFoundError struct {
	Path string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("policy document not found: %s", e.Path)
}

// SyntaxError reports input that failed to parse as structured data.
// The source label identifies the originating document.
type SyntaxError struct {
	Source string
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Source, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Violation is one schema violation: the dot-separated path of the
// offending field plus a human-readable message. When the expected
// value comes from a finite enumerated set, Allowed carries that set
// so the correction is mechanical.
type Violation struct {
	Field   string
	Message string
	Allowed []string
}

func (v Violation) String() string {
	if len(v.Allowed) > 0 {
		return fmt.Sprintf("%s: %s (valid values: %s)", v.Field, v.Message, strings.Join(v.Allowed, ", "))
	}
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// SchemaError aggregates every schema violation found in a document.
// Validation walks the entire schema before failing, so one
// fix-validate cycle surfaces all problems at once.
type SchemaError struct {
	Source     string
	Violations []Violation
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %d schema violation(s):\n%s", e.Source, len(e.Violations), strings.Join(e.Messages(), "\n"))
}

// Messages returns one human-readable string per violation, in the
// order the violations were found.
func (e *SchemaError) Messages() []string {
	messages := make([]string, len(e.Violations))
	for i, violation := range e.Violations {
		messages[i] = violation.String()
	}
	return messages
}

// RuleFormatError reports a permission rule missing the field its
// scope requires, detected when the rule is rendered into an
// enforcement artifact. A correct validator makes this unreachable, so
// projection fails immediately rather than accumulating.
type RuleFormatError struct {
	Scope    Scope
	Decision Decision
	Index    int
}

func (e *RuleFormatError) Error() string {
	field := "path"
	if e.Scope == ScopeCommands {
		field = "pattern"
	}
	return fmt.Sprintf("%s %s rule %d: missing required %q field for %s scope",
		e.Scope, e.Decision, e.Index, field, e.Scope)
}

// WriteError reports a storage failure while emitting an artifact.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Messages flattens any compilation error into one human-readable
// string per problem. SchemaErrors expand to one line per violation;
// everything else is a single line. The CLI prints each on its own
// line and exits non-zero.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	if schemaErr, ok := err.(*SchemaError); ok {
		return schemaErr.Messages()
	}
	return []string{err.Error()}
}
