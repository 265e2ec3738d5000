// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hookgen projects a validated policy document into standalone
// enforcement scripts, one per enforcement concern. Each script is an
// independently executable unit bound to a lifecycle event: it reads
// the pending tool call event as JSON on stdin, emits a
// machine-parseable decision line on stdout, and terminates with exit
// code 0 (allow) or 2 (block). Exit 2 is the code the assistant's hook
// executor treats as a denial, surfacing stderr content as feedback.
package hookgen

import (
	"embed"

	"github.com/bureau-foundation/policyc/lib/policy"
	"github.com/bureau-foundation/policyc/lib/render"
)

// Templates holds the embedded script templates. The compiler feeds
// these into the rendering engine it injects into Project.
//
//go:embed templates/*.tmpl
var Templates embed.FS

// Exit codes shared by every generated script.
const (
	ExitAllow = 0
	ExitBlock = 2
)

// Script names. Each concern present in the document produces exactly
// one script under the hooks directory.
const (
	ScriptSecretScan      = "secret-scan.sh"
	ScriptPermissionCheck = "permission-check.sh"
	ScriptApprovalCommand = "approval-command.sh"
	ScriptApprovalPrompt  = "approval-prompt.sh"
	ScriptApprovalAgent   = "approval-agent.sh"
)

// Script is one generated enforcement script. Every script is marked
// executable when written.
type Script struct {
	Name    string
	Content string
}

// Project generates the enforcement scripts the document calls for:
// a secret scan when secret patterns exist, a permission re-validation
// when deny rules exist, and one script per action-type family used by
// the document's approval gates. Scripts are returned in a fixed
// order so artifact output is deterministic.
func Project(document *policy.Document, engine render.Engine) ([]Script, error) {
	var scripts []Script

	if patterns := document.SecretPatterns(); len(patterns) > 0 {
		content, err := engine.Render("secret-scan.sh.tmpl", secretScanData{
			Project:  document.Project,
			Patterns: patterns,
		})
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, Script{Name: ScriptSecretScan, Content: content})
	}

	permissionData, err := collectDenyRules(document)
	if err != nil {
		return nil, err
	}
	if len(permissionData.FilesystemDeny) > 0 || len(permissionData.CommandDeny) > 0 {
		content, err := engine.Render("permission-check.sh.tmpl", permissionData)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, Script{Name: ScriptPermissionCheck, Content: content})
	}

	families := gateFamilies(document.Gates())
	for _, family := range actionFamilyOrder {
		gates := families[family]
		if len(gates) == 0 {
			continue
		}
		script, err := renderFamily(document.Project, family, gates, engine)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, script)
	}

	return scripts, nil
}

// actionFamilyOrder fixes the emission order of the per-family
// approval scripts.
var actionFamilyOrder = []policy.ActionType{policy.ActionCommand, policy.ActionPrompt, policy.ActionAgent}

type secretScanData struct {
	Project  string
	Patterns []policy.SecretPattern
}

type permissionCheckData struct {
	Project        string
	FilesystemDeny []policy.Rule
	CommandDeny    []policy.Rule
}

// namedGate pairs a gate name with its resolved action for template
// iteration.
type namedGate struct {
	Name           string
	Command        string
	Prompt         string
	Agent          string
	TimeoutSeconds int
	OnTimeout      string
}

type familyData struct {
	Project string
	Gates   []namedGate
}

// collectDenyRules gathers the deny rules for the permission
// re-validation script. A rule missing its scope-appropriate field is
// a RuleFormatError, raised immediately.
func collectDenyRules(document *policy.Document) (permissionCheckData, error) {
	data := permissionCheckData{Project: document.Project}
	if document.Permissions == nil {
		return data, nil
	}
	for index, rule := range document.Permissions.ByScope(policy.ScopeFilesystem).ByDecision(policy.Deny) {
		if rule.Path == "" {
			return data, &policy.RuleFormatError{Scope: policy.ScopeFilesystem, Decision: policy.Deny, Index: index}
		}
		data.FilesystemDeny = append(data.FilesystemDeny, rule)
	}
	for index, rule := range document.Permissions.ByScope(policy.ScopeCommands).ByDecision(policy.Deny) {
		if rule.Pattern == "" {
			return data, &policy.RuleFormatError{Scope: policy.ScopeCommands, Decision: policy.Deny, Index: index}
		}
		data.CommandDeny = append(data.CommandDeny, rule)
	}
	return data, nil
}

// gateFamilies groups gates by their action type, preserving
// declaration order within each family.
func gateFamilies(gates []policy.Gate) map[policy.ActionType][]namedGate {
	families := make(map[policy.ActionType][]namedGate)
	for _, gate := range gates {
		action := gate.ResolvedAction
		families[action.Type] = append(families[action.Type], namedGate{
			Name:           gate.Name,
			Command:        action.Command,
			Prompt:         action.Prompt,
			Agent:          action.Agent,
			TimeoutSeconds: action.TimeoutSeconds,
			OnTimeout:      string(action.OnTimeout),
		})
	}
	return families
}

func renderFamily(project string, family policy.ActionType, gates []namedGate, engine render.Engine) (Script, error) {
	var name, templateName string
	switch family {
	case policy.ActionCommand:
		name, templateName = ScriptApprovalCommand, "approval-command.sh.tmpl"
	case policy.ActionPrompt:
		name, templateName = ScriptApprovalPrompt, "approval-prompt.sh.tmpl"
	case policy.ActionAgent:
		name, templateName = ScriptApprovalAgent, "approval-agent.sh.tmpl"
	}
	content, err := engine.Render(templateName, familyData{Project: project, Gates: gates})
	if err != nil {
		return Script{}, err
	}
	return Script{Name: name, Content: content}, nil
}
