// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Parse unmarshals a YAML policy document. The source label is carried
// into error messages and onto the resulting Document; it is typically
// a file path, but any identifier works ("<stdin>", a URL).
func Parse(data []byte, source string) (*Document, error) {
	var document Document
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, &SyntaxError{Source: source, Err: err}
	}
	document.source = source
	return &document, nil
}

// ParseJSONC strips JSONC comments and trailing commas from data, then
// unmarshals the result as a policy document. This is the same
// authoring convenience pipeline definitions get: plain JSON extended
// with // line comments, /* block comments */, and trailing commas.
func ParseJSONC(data []byte, source string) (*Document, error) {
	stripped := jsonc.ToJSON(data)

	var document Document
	if err := json.Unmarshal(stripped, &document); err != nil {
		return nil, &SyntaxError{Source: source, Err: err}
	}
	document.source = source
	return &document, nil
}

// ParseFile reads a policy document from disk, picking the parser by
// file extension: .json and .jsonc go through the JSONC path,
// everything else is treated as YAML. A missing file is reported as
// SourceNotFoundError.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &SourceNotFoundError{Path: path}
		}
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return ParseJSONC(data, path)
	default:
		return Parse(data, path)
	}
}
