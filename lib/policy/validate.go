// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"fmt"
	"regexp"
)

// Validate checks a parsed document against the policy schema. Every
// violation is collected — validation never stops at the first problem
// — and each is annotated with the dot-separated path of the offending
// field.
//
// On success, Validate resolves each approval gate's trigger and
// action into their tagged variants (Gate.ResolvedTrigger and
// Gate.ResolvedAction) and returns nil. On failure it returns a
// SchemaError and leaves the document untouched: resolution is
// all-or-nothing, a partially resolved document never escapes.
func Validate(document *Document) error {
	checker := &schemaChecker{}

	if document.Version == "" {
		checker.fail("version", "is required")
	}
	if document.Project == "" {
		checker.fail("project", "is required")
	}

	for label, globs := range document.DataClassification {
		if len(globs) == 0 {
			checker.fail(fmt.Sprintf("data_classification.%s", label), "must list at least one path glob")
		}
	}

	checker.checkPermissions(document.Permissions)
	checker.checkSecrets(document.Secrets)

	for index := range document.Approvals {
		checker.checkGate(fmt.Sprintf("approvals[%d]", index), &document.Approvals[index])
	}

	for roleIndex := range document.Roles {
		role := &document.Roles[roleIndex]
		prefix := fmt.Sprintf("roles[%d]", roleIndex)
		if role.Name == "" {
			checker.fail(prefix+".name", "is required")
		}
		for gateIndex := range role.Approvals {
			checker.checkGate(fmt.Sprintf("%s.approvals[%d]", prefix, gateIndex), &role.Approvals[gateIndex])
		}
	}

	for frameworkIndex, framework := range document.Compliance {
		prefix := fmt.Sprintf("compliance[%d]", frameworkIndex)
		if framework.Name == "" {
			checker.fail(prefix+".framework", "is required")
		}
		for controlIndex, control := range framework.Controls {
			controlPrefix := fmt.Sprintf("%s.controls[%d]", prefix, controlIndex)
			if control.ID == "" {
				checker.fail(controlPrefix+".id", "is required")
			}
			if control.Description == "" {
				checker.fail(controlPrefix+".description", "is required")
			}
			if len(control.Evidence) == 0 {
				checker.fail(controlPrefix+".evidence", "must name at least one enforcement artifact")
			}
		}
	}

	if document.Operational != nil && document.Operational.Branches != nil {
		for index, setting := range document.Operational.Branches.Protection {
			if setting.Key == "" {
				checker.fail(fmt.Sprintf("operational.branches.protection[%d]", index), "setting key must be non-empty")
			}
		}
	}

	if document.Audit != nil && len(document.Audit.Destinations) == 0 {
		checker.fail("audit.destinations", "must list at least one destination when the audit section is present")
	}

	if document.CostControls != nil && document.CostControls.Billing == "" && len(document.CostControls.Limits) == 0 {
		checker.fail("cost_controls", "must set billing or limits when the section is present")
	}

	if len(checker.violations) > 0 {
		return &SchemaError{Source: document.source, Violations: checker.violations}
	}

	// Fully valid: resolve every gate into its tagged variants.
	for index := range document.Approvals {
		resolveGate(&document.Approvals[index])
	}
	for roleIndex := range document.Roles {
		for gateIndex := range document.Roles[roleIndex].Approvals {
			resolveGate(&document.Roles[roleIndex].Approvals[gateIndex])
		}
	}

	return nil
}

// schemaChecker accumulates violations while walking the schema.
type schemaChecker struct {
	violations []Violation
}

func (c *schemaChecker) fail(field, message string) {
	c.violations = append(c.violations, Violation{Field: field, Message: message})
}

// failEnum records a violation whose expected value comes from a
// finite set. The set rides along so callers can report the allowed
// values verbatim.
func (c *schemaChecker) failEnum(field, message string, allowed []string) {
	c.violations = append(c.violations, Violation{Field: field, Message: message, Allowed: allowed})
}

func (c *schemaChecker) checkPermissions(permissions *Permissions) {
	if permissions == nil {
		return
	}
	for _, scope := range ScopeOrder {
		list := permissions.ByScope(scope)
		if list == nil {
			continue
		}
		for _, decision := range DecisionOrder {
			for index, rule := range list.ByDecision(decision) {
				if rule.Path != "" && rule.Pattern != "" {
					c.fail(fmt.Sprintf("permissions.%s.%s[%d]", scope, decision, index),
						"path and pattern are mutually exclusive (set exactly one)")
				}
			}
		}
	}
}

func (c *schemaChecker) checkSecrets(secrets *Secrets) {
	if secrets == nil {
		return
	}
	for index, pattern := range secrets.Patterns {
		prefix := fmt.Sprintf("secrets.patterns[%d]", index)
		if pattern.Pattern == "" {
			c.fail(prefix+".pattern", "is required")
			continue
		}
		if _, err := regexp.Compile(pattern.Pattern); err != nil {
			c.fail(prefix+".pattern", fmt.Sprintf("invalid regular expression: %v", err))
		}
	}
}

func (c *schemaChecker) checkGate(prefix string, gate *Gate) {
	if gate.Name == "" {
		c.fail(prefix+".name", "is required")
	}

	trigger := gate.Trigger
	if trigger.Tool == "" && trigger.CommandPattern == "" && trigger.PathPattern == "" {
		c.fail(prefix+".trigger", "must set one of tool, command_pattern, path_pattern")
	}

	action := gate.Action
	switch ActionType(action.Type) {
	case ActionCommand:
		if action.Command == "" {
			c.fail(prefix+".action.command", `is required when type is "command"`)
		}
	case ActionPrompt:
		if action.Prompt == "" {
			c.fail(prefix+".action.prompt", `is required when type is "prompt"`)
		}
	case ActionAgent:
		if action.Agent == "" {
			c.fail(prefix+".action.agent", `is required when type is "agent"`)
		}
	default:
		c.failEnum(prefix+".action.type", fmt.Sprintf("invalid action type %q", action.Type), ActionTypes)
	}

	if action.TimeoutSeconds < 0 {
		c.fail(prefix+".action.timeout_seconds", "must not be negative")
	}

	switch TimeoutResolution(action.OnTimeout) {
	case "", OnTimeoutAllow, OnTimeoutBlock:
	default:
		c.failEnum(prefix+".action.on_timeout", fmt.Sprintf("invalid timeout resolution %q", action.OnTimeout), TimeoutResolutions)
	}
}

// resolveGate fills the gate's tagged trigger and action variants.
// Trigger precedence is tool > command_pattern > path_pattern: the
// first populated field wins and the rest are ignored. The prompt
// timeout resolution defaults to block (fail closed) when the author
// left on_timeout unset.
func resolveGate(gate *Gate) {
	switch {
	case gate.Trigger.Tool != "":
		gate.ResolvedTrigger = Trigger{Kind: TriggerTool, Value: gate.Trigger.Tool}
	case gate.Trigger.CommandPattern != "":
		gate.ResolvedTrigger = Trigger{Kind: TriggerCommand, Value: gate.Trigger.CommandPattern}
	default:
		gate.ResolvedTrigger = Trigger{Kind: TriggerPath, Value: gate.Trigger.PathPattern}
	}

	resolution := TimeoutResolution(gate.Action.OnTimeout)
	if resolution == "" {
		resolution = OnTimeoutBlock
	}

	gate.ResolvedAction = Action{
		Type:           ActionType(gate.Action.Type),
		Command:        gate.Action.Command,
		Prompt:         gate.Action.Prompt,
		Agent:          gate.Action.Agent,
		TimeoutSeconds: gate.Action.TimeoutSeconds,
		OnTimeout:      resolution,
	}
}
