// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"os"
	"path/filepath"

	"github.com/bureau-foundation/policyc/lib/policy"
)

// writeArtifacts publishes artifacts under outputRoot. Content is
// first written into a staging directory inside the output root (same
// filesystem, so the final renames cannot fail with a cross-device
// error), and every destination parent directory is created before
// the first rename. An I/O failure during staging leaves the
// published tree untouched.
func writeArtifacts(outputRoot string, artifacts []Artifact) error {
	if err := os.MkdirAll(outputRoot, 0755); err != nil {
		return &policy.WriteError{Path: outputRoot, Err: err}
	}

	stageRoot, err := os.MkdirTemp(outputRoot, ".policyc-stage-")
	if err != nil {
		return &policy.WriteError{Path: outputRoot, Err: err}
	}
	defer os.RemoveAll(stageRoot)

	// Stage all content and pre-create all destination directories
	// before any rename touches the published tree.
	for _, artifact := range artifacts {
		stagePath := filepath.Join(stageRoot, artifact.Path)
		if err := os.MkdirAll(filepath.Dir(stagePath), 0755); err != nil {
			return &policy.WriteError{Path: artifact.Path, Err: err}
		}
		if err := os.WriteFile(stagePath, artifact.Content, fileMode(artifact)); err != nil {
			return &policy.WriteError{Path: artifact.Path, Err: err}
		}
		finalPath := filepath.Join(outputRoot, artifact.Path)
		if err := os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
			return &policy.WriteError{Path: artifact.Path, Err: err}
		}
	}

	for _, artifact := range artifacts {
		stagePath := filepath.Join(stageRoot, artifact.Path)
		finalPath := filepath.Join(outputRoot, artifact.Path)
		if err := os.Rename(stagePath, finalPath); err != nil {
			return &policy.WriteError{Path: artifact.Path, Err: err}
		}
	}

	return nil
}

func fileMode(artifact Artifact) os.FileMode {
	if artifact.Executable {
		return 0755
	}
	return 0644
}
