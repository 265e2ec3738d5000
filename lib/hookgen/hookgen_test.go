// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hookgen

import (
	"strings"
	"testing"

	"github.com/bureau-foundation/policyc/lib/policy"
	"github.com/bureau-foundation/policyc/lib/render"
)

func testEngine(t *testing.T) render.Engine {
	t.Helper()
	engine, err := render.NewTextEngine(Templates)
	if err != nil {
		t.Fatalf("NewTextEngine: %v", err)
	}
	return engine
}

func validated(t *testing.T, document *policy.Document) *policy.Document {
	t.Helper()
	if err := policy.Validate(document); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return document
}

func scriptNames(scripts []Script) []string {
	names := make([]string, len(scripts))
	for i, script := range scripts {
		names[i] = script.Name
	}
	return names
}

func findScript(t *testing.T, scripts []Script, name string) Script {
	t.Helper()
	for _, script := range scripts {
		if script.Name == name {
			return script
		}
	}
	t.Fatalf("script %s not generated; have %v", name, scriptNames(scripts))
	return Script{}
}

func TestProjectMinimalDocumentGeneratesNothing(t *testing.T) {
	t.Parallel()

	document := validated(t, &policy.Document{Version: "1", Project: "demo"})
	scripts, err := Project(document, testEngine(t))
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if len(scripts) != 0 {
		t.Errorf("minimal document generated scripts: %v", scriptNames(scripts))
	}
}

func TestProjectSecretScan(t *testing.T) {
	t.Parallel()

	document := validated(t, &policy.Document{
		Version: "1", Project: "demo",
		Secrets: &policy.Secrets{
			Patterns: []policy.SecretPattern{
				{Name: "aws-access-key", Pattern: `AKIA[0-9A-Z]{16}`},
				{Pattern: `-----BEGIN [A-Z ]*PRIVATE KEY-----`},
			},
		},
	})

	scripts, err := Project(document, testEngine(t))
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	script := findScript(t, scripts, ScriptSecretScan)
	for _, want := range []string{
		"#!/usr/bin/env bash",
		"project demo",
		`'AKIA[0-9A-Z]{16}'`,
		"secret pattern matched: aws-access-key",
		// Unnamed patterns fall back to the pattern text itself.
		"secret pattern matched: -----BEGIN",
		"exit 2",
	} {
		if !strings.Contains(script.Content, want) {
			t.Errorf("secret scan script missing %q:\n%s", want, script.Content)
		}
	}
}

func TestProjectSecretScanQuotesPatterns(t *testing.T) {
	t.Parallel()

	// A single quote inside a pattern must be spliced, not left to
	// terminate the shell string.
	document := validated(t, &policy.Document{
		Version: "1", Project: "demo",
		Secrets: &policy.Secrets{
			Patterns: []policy.SecretPattern{{Name: "odd", Pattern: `token='[a-z]+`}},
		},
	})

	scripts, err := Project(document, testEngine(t))
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	script := findScript(t, scripts, ScriptSecretScan)
	if !strings.Contains(script.Content, `'token='\''[a-z]+'`) {
		t.Errorf("pattern not shell-quoted:\n%s", script.Content)
	}
}

func TestProjectPermissionCheck(t *testing.T) {
	t.Parallel()

	document := validated(t, &policy.Document{
		Version: "1", Project: "demo",
		Permissions: &policy.Permissions{
			Filesystem: &policy.RuleList{
				Deny: []policy.Rule{{Path: ".env*", Reason: "credentials"}},
				// Ask rules never reach the hook script.
				Ask: []policy.Rule{{Path: "docs/**"}},
			},
			Commands: &policy.RuleList{
				Deny: []policy.Rule{{Pattern: "curl * | bash"}},
			},
		},
	})

	scripts, err := Project(document, testEngine(t))
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	script := findScript(t, scripts, ScriptPermissionCheck)
	for _, want := range []string{"'.env*'", "'curl * | bash'", "exit 2"} {
		if !strings.Contains(script.Content, want) {
			t.Errorf("permission check script missing %q:\n%s", want, script.Content)
		}
	}
	if strings.Contains(script.Content, "docs/**") {
		t.Errorf("ask rule leaked into permission check script:\n%s", script.Content)
	}
}

func TestProjectPermissionCheckOmittedWithoutDenyRules(t *testing.T) {
	t.Parallel()

	document := validated(t, &policy.Document{
		Version: "1", Project: "demo",
		Permissions: &policy.Permissions{
			Filesystem: &policy.RuleList{Allow: []policy.Rule{{Path: "src/**"}}},
		},
	})

	scripts, err := Project(document, testEngine(t))
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	for _, script := range scripts {
		if script.Name == ScriptPermissionCheck {
			t.Error("permission check generated for a document with no deny rules")
		}
	}
}

func TestProjectRuleFormatError(t *testing.T) {
	t.Parallel()

	document := validated(t, &policy.Document{
		Version: "1", Project: "demo",
		Permissions: &policy.Permissions{
			Commands: &policy.RuleList{Deny: []policy.Rule{{Path: "not-a-pattern"}}},
		},
	})

	_, err := Project(document, testEngine(t))
	formatErr, ok := err.(*policy.RuleFormatError)
	if !ok {
		t.Fatalf("expected *policy.RuleFormatError, got %T: %v", err, err)
	}
	if formatErr.Scope != policy.ScopeCommands {
		t.Errorf("error scope = %s, want commands", formatErr.Scope)
	}
}

func TestProjectApprovalFamilies(t *testing.T) {
	t.Parallel()

	document := validated(t, &policy.Document{
		Version: "1", Project: "demo",
		Approvals: []policy.Gate{
			{
				Name:    "prod-deploy",
				Trigger: policy.GateTrigger{CommandPattern: `deploy .*--env[= ]prod`},
				Action:  policy.GateAction{Type: "prompt", Prompt: "Deploy to production?", TimeoutSeconds: 120, OnTimeout: "allow"},
			},
			{
				Name:    "force-push",
				Trigger: policy.GateTrigger{CommandPattern: `git push .*--force`},
				Action:  policy.GateAction{Type: "command", Command: "review-bot check force-push"},
			},
			{
				Name:    "infra-change",
				Trigger: policy.GateTrigger{PathPattern: "terraform/**"},
				Action:  policy.GateAction{Type: "agent", Agent: "infra-reviewer"},
			},
		},
	})

	scripts, err := Project(document, testEngine(t))
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	// One script per family in use, in a fixed order: command,
	// prompt, agent.
	names := scriptNames(scripts)
	want := []string{ScriptApprovalCommand, ScriptApprovalPrompt, ScriptApprovalAgent}
	if len(names) != len(want) {
		t.Fatalf("got scripts %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got scripts %v, want %v", names, want)
		}
	}

	prompt := findScript(t, scripts, ScriptApprovalPrompt)
	for _, fragment := range []string{
		"'prod-deploy'",
		"'Deploy to production?'",
		"timeout=120",
		`on_timeout="allow"`,
	} {
		if !strings.Contains(prompt.Content, fragment) {
			t.Errorf("prompt script missing %q:\n%s", fragment, prompt.Content)
		}
	}

	command := findScript(t, scripts, ScriptApprovalCommand)
	if !strings.Contains(command.Content, "'review-bot check force-push'") {
		t.Errorf("command script missing gate command:\n%s", command.Content)
	}

	agent := findScript(t, scripts, ScriptApprovalAgent)
	if !strings.Contains(agent.Content, "'infra-reviewer'") {
		t.Errorf("agent script missing agent name:\n%s", agent.Content)
	}
}

func TestProjectIncludesRoleGates(t *testing.T) {
	t.Parallel()

	document := validated(t, &policy.Document{
		Version: "1", Project: "demo",
		Roles: []policy.Role{
			{
				Name: "contractor",
				Approvals: []policy.Gate{{
					Name:    "contractor-push",
					Trigger: policy.GateTrigger{CommandPattern: "git push .*"},
					Action:  policy.GateAction{Type: "prompt", Prompt: "Allow contractor push?"},
				}},
			},
		},
	})

	scripts, err := Project(document, testEngine(t))
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	script := findScript(t, scripts, ScriptApprovalPrompt)
	if !strings.Contains(script.Content, "'contractor-push'") {
		t.Errorf("role-scoped gate missing from prompt script:\n%s", script.Content)
	}
}
