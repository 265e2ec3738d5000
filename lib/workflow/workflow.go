// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package workflow projects the policy-relevant subset of a validated
// document into a CI pipeline definition: the pre-merge re-check of
// secret patterns, protected branches, contractor restrictions,
// resource billing constraints, and compliance controls. Unlike the
// local hooks, CI checks cannot prompt — every check is pass/fail.
//
// All extractions are independently optional. A document with none of
// the relevant sections still yields a valid, minimal pipeline.
package workflow

import (
	"embed"
	"strings"

	"github.com/bureau-foundation/policyc/lib/policy"
	"github.com/bureau-foundation/policyc/lib/render"
)

// Templates holds the embedded workflow template.
//
//go:embed templates/*.tmpl
var Templates embed.FS

// Path is the fixed location of the pipeline definition under the
// output root.
const Path = ".github/workflows/policy-gate.yml"

// Control is one compliance control flattened with its owning
// framework name.
type Control struct {
	Framework   string
	ID          string
	Description string
	Evidence    []string
}

// Definition is the extracted pipeline definition: everything the CI
// re-check needs, independent of the rendering format.
type Definition struct {
	Project           string
	ProtectedBranches []string
	SecretPatterns    []policy.SecretPattern

	// InfrastructureAsCode is true when any approval gate's path
	// trigger matches infrastructure-file conventions, which tells
	// the pipeline to gate IaC changes.
	InfrastructureAsCode bool

	BillingMode        string
	Contractors        []string
	Controls           []Control
	ProtectionSettings policy.Settings
}

// Empty reports whether no policy-relevant section was present, in
// which case the rendered pipeline contains only a baseline job.
func (d *Definition) Empty() bool {
	return len(d.ProtectedBranches) == 0 &&
		len(d.SecretPatterns) == 0 &&
		!d.InfrastructureAsCode &&
		d.BillingMode == "" &&
		len(d.Contractors) == 0 &&
		len(d.Controls) == 0
}

// ContractorList renders the contractor members as a shell-friendly
// space-separated list for the generated workflow.
func (d *Definition) ContractorList() string {
	return strings.Join(d.Contractors, " ")
}

// iacPathMarkers are the infrastructure-file conventions checked
// against gate path triggers. Matching is substring-based: path
// trigger globs are author-controlled patterns, not resolved paths.
var iacPathMarkers = []string{
	".tf",
	".tfvars",
	".bicep",
	"terraform/",
	"infra/",
	"pulumi",
	"cloudformation",
}

// Project extracts the pipeline definition from a validated document.
// Absent sections extract to empty fields; extraction itself never
// fails.
func Project(document *policy.Document) *Definition {
	definition := &Definition{
		Project:           document.Project,
		ProtectedBranches: document.ProtectedBranches(),
		SecretPatterns:    document.SecretPatterns(),
	}

	for _, gate := range document.Gates() {
		if gate.ResolvedTrigger.Kind == policy.TriggerPath && isInfrastructurePath(gate.ResolvedTrigger.Value) {
			definition.InfrastructureAsCode = true
			break
		}
	}

	if document.CostControls != nil {
		definition.BillingMode = document.CostControls.Billing
	}

	if contractor := document.Role("contractor"); contractor != nil {
		definition.Contractors = contractor.Members
	}

	for _, framework := range document.Compliance {
		for _, control := range framework.Controls {
			definition.Controls = append(definition.Controls, Control{
				Framework:   framework.Name,
				ID:          control.ID,
				Description: control.Description,
				Evidence:    control.Evidence,
			})
		}
	}

	if document.Operational != nil && document.Operational.Branches != nil {
		definition.ProtectionSettings = document.Operational.Branches.Protection
	}

	return definition
}

func isInfrastructurePath(pattern string) bool {
	lowered := strings.ToLower(pattern)
	for _, marker := range iacPathMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// Render produces the workflow file content from the definition via
// the injected templating capability.
func Render(definition *Definition, engine render.Engine) (string, error) {
	return engine.Render("policy-gate.yml.tmpl", definition)
}
