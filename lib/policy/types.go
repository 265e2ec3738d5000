// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Scope identifies the resource class a permission rule governs.
type Scope string

const (
	// ScopeFilesystem rules match file paths (glob in the Path field).
	ScopeFilesystem Scope = "filesystem"

	// ScopeCommands rules match executed commands (glob in the Pattern
	// field).
	ScopeCommands Scope = "commands"
)

// Decision is one of the three permission rule lists.
type Decision string

const (
	Deny  Decision = "deny"
	Ask   Decision = "ask"
	Allow Decision = "allow"
)

// DecisionOrder is the order in which rule lists are flattened into
// enforcement artifacts: deny first, then ask, then allow. Projectors
// iterate this slice rather than hard-coding the sequence, so the
// ordering contract lives in exactly one place.
var DecisionOrder = []Decision{Deny, Ask, Allow}

// ScopeOrder is the order in which permission scopes are flattened
// within each decision list: filesystem rules precede command rules.
var ScopeOrder = []Scope{ScopeFilesystem, ScopeCommands}

// Rule is a single permission rule. Exactly one of Path (filesystem
// scope) or Pattern (command scope) is set; setting both is a schema
// violation, setting neither surfaces as a RuleFormatError when the
// rule is rendered.
type Rule struct {
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`

	// Reason is an optional human-readable justification, carried
	// into the generated documentation.
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// RuleList groups rules by decision. Order within each list is
// preserved end to end: the compiler never deduplicates, merges, or
// reorders rules, and precedence between overlapping globs across
// lists is left to the downstream enforcement engine.
type RuleList struct {
	Deny  []Rule `yaml:"deny,omitempty" json:"deny,omitempty"`
	Ask   []Rule `yaml:"ask,omitempty" json:"ask,omitempty"`
	Allow []Rule `yaml:"allow,omitempty" json:"allow,omitempty"`
}

// ByDecision returns the rule list for the given decision.
func (l *RuleList) ByDecision(decision Decision) []Rule {
	if l == nil {
		return nil
	}
	switch decision {
	case Deny:
		return l.Deny
	case Ask:
		return l.Ask
	case Allow:
		return l.Allow
	}
	return nil
}

// Network declares domain-level network bounds, consumed by the
// sandbox section of the local enforcement descriptor.
type Network struct {
	AllowDomains []string `yaml:"allow_domains,omitempty" json:"allow_domains,omitempty"`
	DenyDomains  []string `yaml:"deny_domains,omitempty" json:"deny_domains,omitempty"`
}

// Permissions holds the per-scope rule lists and the network bounds.
type Permissions struct {
	Filesystem *RuleList `yaml:"filesystem,omitempty" json:"filesystem,omitempty"`
	Commands   *RuleList `yaml:"commands,omitempty" json:"commands,omitempty"`
	Network    *Network  `yaml:"network,omitempty" json:"network,omitempty"`
}

// ByScope returns the rule list for the given scope.
func (p *Permissions) ByScope(scope Scope) *RuleList {
	if p == nil {
		return nil
	}
	switch scope {
	case ScopeFilesystem:
		return p.Filesystem
	case ScopeCommands:
		return p.Commands
	}
	return nil
}

// Sandbox configures the assistant's sandbox bounds. The compiler
// treats Mode as an opaque string; interpretation belongs to the
// sandbox runtime.
type Sandbox struct {
	Enabled         bool     `yaml:"enabled" json:"enabled"`
	Mode            string   `yaml:"mode,omitempty" json:"mode,omitempty"`
	AllowPaths      []string `yaml:"allow_paths,omitempty" json:"allow_paths,omitempty"`
	DenyPaths       []string `yaml:"deny_paths,omitempty" json:"deny_paths,omitempty"`
	ExcludeCommands []string `yaml:"exclude_commands,omitempty" json:"exclude_commands,omitempty"`
}

// SecretPattern is a matching expression for credential material, used
// both by the local pre-write scan and the CI historical scan.
type SecretPattern struct {
	// Pattern is an RE2 regular expression. Required.
	Pattern string `yaml:"pattern" json:"pattern"`

	// Name is an optional display name ("AWS Access Key").
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

// DisplayName returns the pattern's name, falling back to the pattern
// text itself when no name was given.
func (p SecretPattern) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Pattern
}

// Secrets groups the document's secret patterns.
type Secrets struct {
	Patterns []SecretPattern `yaml:"patterns,omitempty" json:"patterns,omitempty"`
}

// TriggerKind discriminates the resolved trigger variant of an
// approval gate.
type TriggerKind string

const (
	TriggerTool    TriggerKind = "tool"
	TriggerCommand TriggerKind = "command"
	TriggerPath    TriggerKind = "path"
)

// GateTrigger is the authored form of a gate trigger: up to three
// optional fields. Validation resolves it into a Trigger variant with
// precedence tool > command_pattern > path_pattern (first match wins).
type GateTrigger struct {
	Tool           string `yaml:"tool,omitempty" json:"tool,omitempty"`
	CommandPattern string `yaml:"command_pattern,omitempty" json:"command_pattern,omitempty"`
	PathPattern    string `yaml:"path_pattern,omitempty" json:"path_pattern,omitempty"`
}

// Trigger is the resolved, tagged form of a gate trigger. Projectors
// switch on Kind and never inspect the authored optional fields.
type Trigger struct {
	Kind  TriggerKind
	Value string
}

// ActionType discriminates the action an approval gate takes when its
// trigger fires.
type ActionType string

const (
	ActionCommand ActionType = "command"
	ActionPrompt  ActionType = "prompt"
	ActionAgent   ActionType = "agent"
)

// ActionTypes lists the valid gate action types, in the order they are
// reported in enum violation messages.
var ActionTypes = []string{string(ActionCommand), string(ActionPrompt), string(ActionAgent)}

// TimeoutResolution says how a prompt gate resolves when no human
// answers within the timeout.
type TimeoutResolution string

const (
	OnTimeoutAllow TimeoutResolution = "allow"
	OnTimeoutBlock TimeoutResolution = "block"
)

// TimeoutResolutions lists the valid on_timeout values.
var TimeoutResolutions = []string{string(OnTimeoutAllow), string(OnTimeoutBlock)}

// GateAction is the authored form of a gate action.
type GateAction struct {
	Type    string `yaml:"type" json:"type"`
	Command string `yaml:"command,omitempty" json:"command,omitempty"`
	Prompt  string `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	Agent   string `yaml:"agent,omitempty" json:"agent,omitempty"`

	// TimeoutSeconds bounds how long the action may wait for an
	// external command or a human response. Zero means no timeout.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`

	// OnTimeout resolves a timed-out prompt: "allow" or "block".
	// Empty defaults to block (fail closed); the generated
	// documentation flags the default so callers make the choice
	// deliberately.
	OnTimeout string `yaml:"on_timeout,omitempty" json:"on_timeout,omitempty"`
}

// Action is the resolved, tagged form of a gate action.
type Action struct {
	Type           ActionType
	Command        string
	Prompt         string
	Agent          string
	TimeoutSeconds int
	OnTimeout      TimeoutResolution
}

// Gate is a named approval gate: a trigger condition plus the action
// taken when the condition fires.
type Gate struct {
	Name    string      `yaml:"name" json:"name"`
	Trigger GateTrigger `yaml:"trigger" json:"trigger"`
	Action  GateAction  `yaml:"action" json:"action"`

	// Resolved trigger and action variants, populated by Validate on
	// a fully valid document. Projectors read only these.
	ResolvedTrigger Trigger `yaml:"-" json:"-"`
	ResolvedAction  Action  `yaml:"-" json:"-"`
}

// Control is one compliance control within a framework.
type Control struct {
	ID          string `yaml:"id" json:"id"`
	Description string `yaml:"description" json:"description"`

	// Evidence names the enforcement artifacts that satisfy this
	// control. Must be non-empty.
	Evidence []string `yaml:"evidence" json:"evidence"`
}

// Framework is a named compliance framework with an ordered control
// list.
type Framework struct {
	Name     string    `yaml:"framework" json:"framework"`
	Controls []Control `yaml:"controls,omitempty" json:"controls,omitempty"`
}

// Role is a named group of members with restriction tags, optional
// role-specific approval gates, and optional behavioral directives.
type Role struct {
	Name         string   `yaml:"name" json:"name"`
	Members      []string `yaml:"members,omitempty" json:"members,omitempty"`
	Restrictions []string `yaml:"restrictions,omitempty" json:"restrictions,omitempty"`
	Approvals    []Gate   `yaml:"approvals,omitempty" json:"approvals,omitempty"`
	Guidance     []string `yaml:"guidance,omitempty" json:"guidance,omitempty"`
}

// Setting is one entry of an ordered scalar bag. Sections the compiler
// carries without interpreting (branch protection requirements, cost
// limits) are modeled this way instead of map[string]any so the model
// stays fully typed and the authored order survives round trips.
type Setting struct {
	Key   string
	Value string
}

// Settings is an ordered list of scalar key/value settings. It
// unmarshals from a YAML mapping, preserving declaration order.
type Settings []Setting

// UnmarshalYAML decodes a mapping node into ordered Setting pairs.
// Non-scalar values are rejected: these bags are declared to hold
// scalars only.
func (s *Settings) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("expected a mapping of scalar settings, got %s", nodeKindName(value.Kind))
	}
	settings := make(Settings, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode := value.Content[i]
		valueNode := value.Content[i+1]
		if valueNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("setting %q: expected a scalar value, got %s", keyNode.Value, nodeKindName(valueNode.Kind))
		}
		settings = append(settings, Setting{Key: keyNode.Value, Value: valueNode.Value})
	}
	*s = settings
	return nil
}

// UnmarshalJSON decodes an object into ordered Setting pairs via the
// decoder's token stream, so the JSONC input path preserves declaration
// order the same way the YAML path does. Scalar values are rendered to
// their source text: numbers keep their literal form, booleans become
// "true"/"false".
func (s *Settings) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	opening, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := opening.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected an object of scalar settings, got %v", opening)
	}

	settings := Settings{}
	for decoder.More() {
		keyToken, err := decoder.Token()
		if err != nil {
			return err
		}
		key, ok := keyToken.(string)
		if !ok {
			return fmt.Errorf("expected a setting key, got %v", keyToken)
		}
		valueToken, err := decoder.Token()
		if err != nil {
			return err
		}
		var value string
		switch typed := valueToken.(type) {
		case string:
			value = typed
		case json.Number:
			value = typed.String()
		case bool:
			value = strconv.FormatBool(typed)
		default:
			return fmt.Errorf("setting %q: expected a scalar value, got %v", key, valueToken)
		}
		settings = append(settings, Setting{Key: key, Value: value})
	}
	if _, err := decoder.Token(); err != nil {
		return err
	}

	*s = settings
	return nil
}

// MarshalJSON re-emits the bag as an object in declaration order.
func (s Settings) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for i, setting := range s {
		if i > 0 {
			buffer.WriteByte(',')
		}
		key, err := json.Marshal(setting.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(setting.Value)
		if err != nil {
			return nil, err
		}
		buffer.Write(key)
		buffer.WriteByte(':')
		buffer.Write(value)
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

// MarshalYAML re-emits the bag as a mapping in declaration order.
func (s Settings) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, setting := range s {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: setting.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: setting.Value},
		)
	}
	return node, nil
}

func nodeKindName(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}

// Branches holds branch governance settings. Protection requirements
// are carried verbatim into the pipeline definition without
// interpretation.
type Branches struct {
	Protected  []string `yaml:"protected,omitempty" json:"protected,omitempty"`
	Protection Settings `yaml:"protection,omitempty" json:"protection,omitempty"`
}

// Operational holds sections the compiler passes through to
// renderers without interpreting.
type Operational struct {
	Branches *Branches `yaml:"branches,omitempty" json:"branches,omitempty"`
}

// Audit configures where enforcement decisions are recorded. The
// compiler only carries these values; emission belongs to the
// downstream runtimes.
type Audit struct {
	Destinations  []string `yaml:"destinations" json:"destinations"`
	RetentionDays int      `yaml:"retention_days,omitempty" json:"retention_days,omitempty"`
}

// CostControls carries resource billing constraints into the pipeline
// definition.
type CostControls struct {
	Billing string   `yaml:"billing,omitempty" json:"billing,omitempty"`
	Limits  Settings `yaml:"limits,omitempty" json:"limits,omitempty"`
}

// Document is the root of a policy document. Version and Project are
// mandatory; every other section is optional, and projectors treat an
// absent section as "nothing to render for this concern".
type Document struct {
	Version string `yaml:"version" json:"version"`
	Project string `yaml:"project" json:"project"`

	// DataClassification maps a classification label to the path
	// globs it covers.
	DataClassification map[string][]string `yaml:"data_classification,omitempty" json:"data_classification,omitempty"`

	Permissions  *Permissions  `yaml:"permissions,omitempty" json:"permissions,omitempty"`
	Sandbox      *Sandbox      `yaml:"sandbox,omitempty" json:"sandbox,omitempty"`
	Secrets      *Secrets      `yaml:"secrets,omitempty" json:"secrets,omitempty"`
	Approvals    []Gate        `yaml:"approvals,omitempty" json:"approvals,omitempty"`
	Roles        []Role        `yaml:"roles,omitempty" json:"roles,omitempty"`
	Compliance   []Framework   `yaml:"compliance,omitempty" json:"compliance,omitempty"`
	Operational  *Operational  `yaml:"operational,omitempty" json:"operational,omitempty"`
	Audit        *Audit        `yaml:"audit,omitempty" json:"audit,omitempty"`
	CostControls *CostControls `yaml:"cost_controls,omitempty" json:"cost_controls,omitempty"`

	// source labels the document in error messages ("policy.yaml",
	// "<stdin>"). Set by the parser, never serialized.
	source string
}

// Source returns the label under which the document was parsed.
func (d *Document) Source() string {
	return d.source
}

// SecretPatterns returns the document's secret patterns, or nil when
// the secrets section is absent.
func (d *Document) SecretPatterns() []SecretPattern {
	if d.Secrets == nil {
		return nil
	}
	return d.Secrets.Patterns
}

// Gates returns every approval gate in declaration order: document
// level gates first, then each role's additional gates in role order.
func (d *Document) Gates() []Gate {
	gates := make([]Gate, 0, len(d.Approvals))
	gates = append(gates, d.Approvals...)
	for _, role := range d.Roles {
		gates = append(gates, role.Approvals...)
	}
	return gates
}

// ProtectedBranches returns the operational protected branch list, or
// nil when the section is absent.
func (d *Document) ProtectedBranches() []string {
	if d.Operational == nil || d.Operational.Branches == nil {
		return nil
	}
	return d.Operational.Branches.Protected
}

// Role returns the role with the given name, or nil.
func (d *Document) Role(name string) *Role {
	for i := range d.Roles {
		if d.Roles[i].Name == name {
			return &d.Roles[i]
		}
	}
	return nil
}
