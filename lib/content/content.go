// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package content provides the embedded starter policy documents that
// "policyc init" writes into a fresh workspace. Starters are complete,
// valid YAML policy documents meant to be edited, not templates with
// holes.
//
// Files are embedded at compile time via go:embed.
package content

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed starter/*.yaml
var starterFiles embed.FS

// StarterNames returns the available starter names, sorted.
func StarterNames() []string {
	entries, err := fs.ReadDir(starterFiles, "starter")
	if err != nil {
		// The directory is embedded; a read failure is a build
		// defect, not a runtime condition.
		panic("content: reading embedded starters: " + err.Error())
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Starter returns the starter policy document with the given name.
func Starter(name string) ([]byte, error) {
	data, err := starterFiles.ReadFile("starter/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown starter %q (available: %s)", name, strings.Join(StarterNames(), ", "))
	}
	return data, nil
}
