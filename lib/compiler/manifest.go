// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// artifactDomainKey is the BLAKE3 keyed-hash domain for artifact
// digests. The bytes are the ASCII domain name zero-padded to the
// required 32 bytes, so the key is inspectable in hex dumps.
var artifactDomainKey = [32]byte{
	'p', 'o', 'l', 'i', 'c', 'y', 'c', '.', 'a', 'r', 't', 'i', 'f', 'a', 'c', 't',
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// ManifestEntry records one artifact's path, digest, and mode in the
// compiled manifest.
type ManifestEntry struct {
	Path       string `json:"path"`
	Digest     string `json:"digest"`
	Executable bool   `json:"executable,omitempty"`
}

// Manifest is the digest manifest emitted as the last artifact of
// every compilation. Because compilation is deterministic, two
// compilations of the same document produce identical manifests,
// which makes drift between an output tree and its policy document a
// single file comparison.
type Manifest struct {
	Artifacts []ManifestEntry `json:"artifacts"`
}

// buildManifest computes the digest manifest over the given artifacts
// (which must not yet include the manifest itself).
func buildManifest(artifacts []Artifact) ([]byte, error) {
	manifest := Manifest{Artifacts: make([]ManifestEntry, 0, len(artifacts))}
	for _, artifact := range artifacts {
		manifest.Artifacts = append(manifest.Artifacts, ManifestEntry{
			Path:       artifact.Path,
			Digest:     artifactDigest(artifact.Content),
			Executable: artifact.Executable,
		})
	}
	data, err := json.MarshalIndent(manifest, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// artifactDigest computes the hex BLAKE3 keyed digest of content.
func artifactDigest(content []byte) string {
	// NewKeyed only fails for a wrong key length, which the fixed
	// array size rules out.
	hasher, err := blake3.NewKeyed(artifactDomainKey[:])
	if err != nil {
		panic("compiler: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(content)
	return hex.EncodeToString(hasher.Sum(nil))
}
