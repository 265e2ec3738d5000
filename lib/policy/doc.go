// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package policy defines the workspace policy document model, its parsers,
// and its validator.
//
// A policy document is a single declarative description of the governance
// intent for an AI coding assistant's workspace: permission rules, secret
// patterns, approval gates, roles, compliance controls, and operational
// settings. Documents are authored as YAML or as JSONC (JSON extended with
// comments and trailing commas).
//
// The typical flow:
//
//  1. ParseFile or Parse: document bytes → *Document
//  2. Validate: structural checks, every violation collected with its
//     dot-separated field path; on success the document's approval gates
//     carry resolved trigger and action variants
//  3. The validated document is handed to the projector packages
//     (lib/settings, lib/hookgen, lib/workflow, lib/docgen), which read it
//     and never mutate it
//
// Validation is all-or-nothing: either the document comes back fully
// resolved, or a SchemaError listing every violation is returned and no
// resolved state is populated. Parse-stage failures (SourceNotFoundError,
// SyntaxError) short-circuit before validation.
package policy
