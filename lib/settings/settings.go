// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package settings projects a validated policy document into the local
// enforcement descriptor: the settings JSON the assistant reads at
// development time, with permission rule lists, sandbox bounds, and
// lifecycle hook bindings.
package settings

import (
	"encoding/json"
	"fmt"

	"github.com/bureau-foundation/policyc/lib/policy"
)

// Capability labels used when formatting permission rules. A
// filesystem glob is enforced across the read/write/edit tools; a
// command glob is enforced on the execute tool.
const (
	FilesystemCapability = "Read|Write|Edit"
	CommandCapability    = "Bash"
)

// EventPreToolUse is the lifecycle event every approval gate currently
// classifies to. Tool and command triggers fire before the tool call;
// path triggers do too, since there is no distinct post-action trigger
// type.
const EventPreToolUse = "PreToolUse"

// PathTriggerMatcher is the matcher emitted for path-triggered gates:
// the tools that modify files.
const PathTriggerMatcher = "Edit|Write"

// Descriptor is the local enforcement descriptor. Top-level keys are
// omitted entirely when the corresponding policy sections are absent,
// so a minimal document produces a minimal descriptor.
type Descriptor struct {
	Permissions *PermissionSet           `json:"permissions,omitempty"`
	Sandbox     *SandboxBounds           `json:"sandbox,omitempty"`
	Hooks       map[string][]HookBinding `json:"hooks,omitempty"`
}

// PermissionSet holds the three flattened rule lists. Within each
// list, filesystem rules precede command rules; list order otherwise
// matches declaration order. Lists are never merged or reordered.
type PermissionSet struct {
	Deny  []string `json:"deny,omitempty"`
	Ask   []string `json:"ask,omitempty"`
	Allow []string `json:"allow,omitempty"`
}

// SandboxBounds mirrors the policy sandbox section plus the network
// domain bounds from the permissions section. Absent sub-fields are
// omitted, not defaulted.
type SandboxBounds struct {
	Enabled          bool           `json:"enabled"`
	Mode             string         `json:"mode,omitempty"`
	Network          *NetworkBounds `json:"network,omitempty"`
	AllowedPaths     []string       `json:"allowedPaths,omitempty"`
	BlockedPaths     []string       `json:"blockedPaths,omitempty"`
	ExcludedCommands []string       `json:"excludedCommands,omitempty"`
}

// NetworkBounds lists the domains the sandbox may and may not reach.
type NetworkBounds struct {
	AllowedDomains []string `json:"allowedDomains,omitempty"`
	BlockedDomains []string `json:"blockedDomains,omitempty"`
}

// HookBinding binds one approval gate to a lifecycle event. Bindings
// sharing an event are grouped under that event key in declaration
// order.
type HookBinding struct {
	Matcher string       `json:"matcher,omitempty"`
	Hooks   []HookAction `json:"hooks"`
}

// HookAction carries the gate's action into the descriptor: the action
// type plus whichever of command, prompt, and timeout the action
// specifies.
type HookAction struct {
	Type    string `json:"type"`
	Command string `json:"command,omitempty"`
	Prompt  string `json:"prompt,omitempty"`
	Timeout int    `json:"timeout,omitempty"`
}

// Project maps a validated document into the local enforcement
// descriptor. The only error it can return is a RuleFormatError for a
// permission rule missing its scope-appropriate field — a condition a
// correct validator never lets through, so it fails immediately.
func Project(document *policy.Document) (*Descriptor, error) {
	descriptor := &Descriptor{}

	if document.Permissions != nil {
		permissions, err := flattenPermissions(document.Permissions)
		if err != nil {
			return nil, err
		}
		descriptor.Permissions = permissions
	}

	if document.Sandbox != nil && document.Sandbox.Enabled {
		descriptor.Sandbox = sandboxBounds(document)
	}

	if gates := document.Gates(); len(gates) > 0 {
		descriptor.Hooks = hookBindings(gates)
	}

	return descriptor, nil
}

// MarshalIndent renders the descriptor as indented JSON, the format
// written to disk.
func (d *Descriptor) MarshalIndent() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshaling enforcement descriptor: %w", err)
	}
	return append(data, '\n'), nil
}

// flattenPermissions builds the three rule lists. For each decision
// (deny, ask, allow) the filesystem rules come first, then the command
// rules, each formatted as "<capability>(<glob>)" with the glob
// inserted verbatim.
func flattenPermissions(permissions *policy.Permissions) (*PermissionSet, error) {
	set := &PermissionSet{}
	for _, decision := range policy.DecisionOrder {
		var entries []string
		for _, scope := range policy.ScopeOrder {
			rules := permissions.ByScope(scope).ByDecision(decision)
			for index, rule := range rules {
				entry, err := formatRule(scope, decision, index, rule)
				if err != nil {
					return nil, err
				}
				entries = append(entries, entry)
			}
		}
		switch decision {
		case policy.Deny:
			set.Deny = entries
		case policy.Ask:
			set.Ask = entries
		case policy.Allow:
			set.Allow = entries
		}
	}
	return set, nil
}

// formatRule renders one rule as "<capability>(<glob>)". The glob is
// not escaped: formatting is deterministic text substitution, and the
// downstream enforcement engine owns glob interpretation.
func formatRule(scope policy.Scope, decision policy.Decision, index int, rule policy.Rule) (string, error) {
	switch scope {
	case policy.ScopeFilesystem:
		if rule.Path == "" {
			return "", &policy.RuleFormatError{Scope: scope, Decision: decision, Index: index}
		}
		return fmt.Sprintf("%s(%s)", FilesystemCapability, rule.Path), nil
	case policy.ScopeCommands:
		if rule.Pattern == "" {
			return "", &policy.RuleFormatError{Scope: scope, Decision: decision, Index: index}
		}
		return fmt.Sprintf("%s(%s)", CommandCapability, rule.Pattern), nil
	}
	return "", fmt.Errorf("unknown permission scope %q", scope)
}

// sandboxBounds copies the sandbox section and the network bounds from
// the permissions section into the descriptor.
func sandboxBounds(document *policy.Document) *SandboxBounds {
	sandbox := document.Sandbox
	bounds := &SandboxBounds{
		Enabled:          true,
		Mode:             sandbox.Mode,
		AllowedPaths:     sandbox.AllowPaths,
		BlockedPaths:     sandbox.DenyPaths,
		ExcludedCommands: sandbox.ExcludeCommands,
	}
	if document.Permissions != nil && document.Permissions.Network != nil {
		network := document.Permissions.Network
		bounds.Network = &NetworkBounds{
			AllowedDomains: network.AllowDomains,
			BlockedDomains: network.DenyDomains,
		}
	}
	return bounds
}

// hookBindings classifies each gate into its lifecycle event and
// computes its matcher. All current trigger kinds resolve to
// PreToolUse: an explicit tool name matches that tool, a command
// trigger matches the execute tool, and a path trigger matches the
// file-modifying tools.
func hookBindings(gates []policy.Gate) map[string][]HookBinding {
	bindings := make(map[string][]HookBinding)
	for _, gate := range gates {
		binding := HookBinding{
			Matcher: gateMatcher(gate.ResolvedTrigger),
			Hooks:   []HookAction{gateAction(gate.ResolvedAction)},
		}
		bindings[EventPreToolUse] = append(bindings[EventPreToolUse], binding)
	}
	return bindings
}

func gateMatcher(trigger policy.Trigger) string {
	switch trigger.Kind {
	case policy.TriggerTool:
		return trigger.Value
	case policy.TriggerCommand:
		return CommandCapability
	default:
		return PathTriggerMatcher
	}
}

func gateAction(action policy.Action) HookAction {
	return HookAction{
		Type:    string(action.Type),
		Command: action.Command,
		Prompt:  action.Prompt,
		Timeout: action.TimeoutSeconds,
	}
}
