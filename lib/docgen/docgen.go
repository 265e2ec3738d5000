// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package docgen renders a validated policy document as a markdown
// report: the human-readable summary of permissions, approval gates,
// and compliance mappings that ships alongside the machine-read
// artifacts. The report is a pure serialization of the canonical
// model; it carries no enforcement semantics.
package docgen

import (
	"embed"
	"sort"

	"github.com/bureau-foundation/policyc/lib/policy"
	"github.com/bureau-foundation/policyc/lib/render"
)

// Templates holds the embedded report template.
//
//go:embed templates/*.tmpl
var Templates embed.FS

// Path is the fixed location of the report under the output root.
const Path = "POLICY.md"

// permissionRow is one rendered permission rule.
type permissionRow struct {
	Scope    policy.Scope
	Decision policy.Decision
	Glob     string
	Reason   string
}

// gateRow is one rendered approval gate.
type gateRow struct {
	Name               string
	TriggerKind        policy.TriggerKind
	TriggerValue       string
	ActionType         policy.ActionType
	Detail             string
	TimeoutSeconds     int
	OnTimeout          policy.TimeoutResolution
	OnTimeoutByDefault bool
}

// classificationRow is one data classification label with its path
// globs. Labels are sorted so the report is deterministic regardless
// of map iteration order.
type classificationRow struct {
	Label string
	Globs []string
}

type reportData struct {
	Project        string
	Version        string
	Classification []classificationRow
	Permissions    []permissionRow
	Gates          []gateRow
	SecretPatterns []policy.SecretPattern
	Compliance     []policy.Framework
	Roles          []policy.Role
	SandboxEnabled bool
	SandboxMode    string
}

// Render produces the markdown report for a validated document.
func Render(document *policy.Document, engine render.Engine) (string, error) {
	data := reportData{
		Project:        document.Project,
		Version:        document.Version,
		SecretPatterns: document.SecretPatterns(),
		Compliance:     document.Compliance,
		Roles:          document.Roles,
	}

	labels := make([]string, 0, len(document.DataClassification))
	for label := range document.DataClassification {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		data.Classification = append(data.Classification, classificationRow{
			Label: label,
			Globs: document.DataClassification[label],
		})
	}

	if document.Sandbox != nil {
		data.SandboxEnabled = document.Sandbox.Enabled
		data.SandboxMode = document.Sandbox.Mode
	}

	for _, decision := range policy.DecisionOrder {
		for _, scope := range policy.ScopeOrder {
			for _, rule := range document.Permissions.ByScope(scope).ByDecision(decision) {
				glob := rule.Path
				if scope == policy.ScopeCommands {
					glob = rule.Pattern
				}
				data.Permissions = append(data.Permissions, permissionRow{
					Scope:    scope,
					Decision: decision,
					Glob:     glob,
					Reason:   rule.Reason,
				})
			}
		}
	}

	for _, gate := range document.Gates() {
		action := gate.ResolvedAction
		detail := action.Command
		switch action.Type {
		case policy.ActionPrompt:
			detail = action.Prompt
		case policy.ActionAgent:
			detail = action.Agent
		}
		data.Gates = append(data.Gates, gateRow{
			Name:               gate.Name,
			TriggerKind:        gate.ResolvedTrigger.Kind,
			TriggerValue:       gate.ResolvedTrigger.Value,
			ActionType:         action.Type,
			Detail:             detail,
			TimeoutSeconds:     action.TimeoutSeconds,
			OnTimeout:          action.OnTimeout,
			OnTimeoutByDefault: gate.Action.OnTimeout == "",
		})
	}

	return engine.Render("policy-report.md.tmpl", data)
}
