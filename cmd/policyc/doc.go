// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Policyc compiles a declarative workspace policy document into the
// enforcement artifacts other runtimes interpret: a local enforcement
// descriptor, executable lifecycle hook scripts, a CI policy gate
// workflow, and a markdown policy report. It provides four
// subcommands: init (write a starter policy document), validate
// (check a document against the schema), compile (project and write
// artifacts), and preview (project without writing).
package main
