// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package render is the text-templating capability the projectors use
// to produce scripts, workflow files, and documentation. Projector
// packages depend only on the Engine interface; the concrete
// text/template implementation is injected by the compiler, so the
// projection logic carries no templating technology of its own.
package render

import (
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

// Engine renders a named template against a data bag.
type Engine interface {
	Render(name string, data any) (string, error)
}

// TextEngine is the default Engine, backed by text/template. Template
// sources are parsed once at construction; Render is read-only and
// safe for concurrent use.
type TextEngine struct {
	templates *template.Template
}

// funcs are the helper functions available to every template.
var funcs = template.FuncMap{
	// shellQuote wraps a value in single quotes for safe verbatim
	// inclusion in generated shell scripts. Embedded single quotes
	// use the standard '\'' splice.
	"shellQuote": func(value string) string {
		return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
	},
}

// NewTextEngine parses every *.tmpl file in the given filesystems into
// one engine. Template names are the file base names, so they must be
// unique across all sources.
func NewTextEngine(sources ...fs.FS) (*TextEngine, error) {
	root := template.New("").Funcs(funcs)
	for _, source := range sources {
		parsed, err := root.ParseFS(source, "templates/*.tmpl")
		if err != nil {
			return nil, fmt.Errorf("parsing templates: %w", err)
		}
		root = parsed
	}
	return &TextEngine{templates: root}, nil
}

// Render executes the named template against data.
func (e *TextEngine) Render(name string, data any) (string, error) {
	var output strings.Builder
	if err := e.templates.ExecuteTemplate(&output, name, data); err != nil {
		return "", fmt.Errorf("rendering template %s: %w", name, err)
	}
	return output.String(), nil
}
