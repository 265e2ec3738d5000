// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package workflow

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/policyc/lib/policy"
	"github.com/bureau-foundation/policyc/lib/render"
)

func validated(t *testing.T, document *policy.Document) *policy.Document {
	t.Helper()
	if err := policy.Validate(document); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return document
}

func fullDocument(t *testing.T) *policy.Document {
	t.Helper()
	return validated(t, &policy.Document{
		Version: "1", Project: "demo",
		Secrets: &policy.Secrets{
			Patterns: []policy.SecretPattern{{Name: "aws-access-key", Pattern: `AKIA[0-9A-Z]{16}`}},
		},
		Approvals: []policy.Gate{{
			Name:    "infra-change",
			Trigger: policy.GateTrigger{PathPattern: "terraform/**"},
			Action:  policy.GateAction{Type: "agent", Agent: "infra-reviewer"},
		}},
		Roles: []policy.Role{{
			Name:    "contractor",
			Members: []string{"ext-alice", "ext-bob"},
		}},
		Compliance: []policy.Framework{{
			Name: "soc2",
			Controls: []policy.Control{{
				ID:          "CC6.1",
				Description: "Logical access controls restrict access",
				Evidence:    []string{"branch protection", "approval gates"},
			}},
		}},
		Operational: &policy.Operational{
			Branches: &policy.Branches{
				Protected: []string{"main", "release/*"},
				Protection: policy.Settings{
					{Key: "required_reviews", Value: "2"},
					{Key: "dismiss_stale_reviews", Value: "true"},
				},
			},
		},
		Audit:        &policy.Audit{Destinations: []string{"s3://audit-bucket"}},
		CostControls: &policy.CostControls{Billing: "project"},
	})
}

func TestProjectExtraction(t *testing.T) {
	t.Parallel()

	definition := Project(fullDocument(t))

	if definition.Empty() {
		t.Error("full document extracted to empty definition")
	}
	if got := definition.ProtectedBranches; len(got) != 2 || got[0] != "main" || got[1] != "release/*" {
		t.Errorf("protected branches = %v", got)
	}
	if len(definition.SecretPatterns) != 1 || definition.SecretPatterns[0].Name != "aws-access-key" {
		t.Errorf("secret patterns = %+v", definition.SecretPatterns)
	}
	if !definition.InfrastructureAsCode {
		t.Error("terraform path trigger did not set InfrastructureAsCode")
	}
	if definition.BillingMode != "project" {
		t.Errorf("billing mode = %q", definition.BillingMode)
	}
	if definition.ContractorList() != "ext-alice ext-bob" {
		t.Errorf("contractor list = %q", definition.ContractorList())
	}
	if len(definition.Controls) != 1 || definition.Controls[0].Framework != "soc2" || definition.Controls[0].ID != "CC6.1" {
		t.Errorf("controls = %+v", definition.Controls)
	}
	if len(definition.ProtectionSettings) != 2 || definition.ProtectionSettings[0].Key != "required_reviews" {
		t.Errorf("protection settings = %+v", definition.ProtectionSettings)
	}
}

func TestProjectMinimalDocumentIsEmpty(t *testing.T) {
	t.Parallel()

	definition := Project(validated(t, &policy.Document{Version: "1", Project: "demo"}))
	if !definition.Empty() {
		t.Errorf("minimal document extracted non-empty definition: %+v", definition)
	}
}

func TestInfrastructurePathDetection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pattern string
		want    bool
	}{
		{"terraform/**", true},
		{"**/*.tf", true},
		{"deploy/*.tfvars", true},
		{"azure/**/*.bicep", true},
		{"infra/**", true},
		{"Pulumi.yaml", true},
		{"cloudformation/*.yml", true},
		{"src/**", false},
		{"docs/terra.md", false},
	}
	for _, test := range tests {
		if got := isInfrastructurePath(test.pattern); got != test.want {
			t.Errorf("isInfrastructurePath(%q) = %v, want %v", test.pattern, got, test.want)
		}
	}
}

func TestRenderFullPipeline(t *testing.T) {
	t.Parallel()

	engine, err := render.NewTextEngine(Templates)
	if err != nil {
		t.Fatalf("NewTextEngine: %v", err)
	}

	content, err := Render(Project(fullDocument(t)), engine)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	// The pipeline must be well-formed YAML with one job per active
	// concern.
	var parsed struct {
		Name string         `yaml:"name"`
		Jobs map[string]any `yaml:"jobs"`
	}
	if err := yaml.Unmarshal([]byte(content), &parsed); err != nil {
		t.Fatalf("rendered workflow is not valid YAML: %v\n%s", err, content)
	}
	if parsed.Name == "" {
		t.Errorf("workflow has no name:\n%s", content)
	}
	for _, job := range []string{
		"secret-history-scan",
		"branch-protection-audit",
		"contractor-restrictions",
		"iac-change-gate",
		"billing-constraints",
		"compliance-report",
	} {
		if _, present := parsed.Jobs[job]; !present {
			t.Errorf("workflow missing job %q; have %v", job, jobNames(parsed.Jobs))
		}
	}
	if _, present := parsed.Jobs["policy-baseline"]; present {
		t.Error("baseline job emitted alongside concern jobs")
	}
	if !strings.Contains(content, "${{ secrets.GITHUB_TOKEN }}") {
		t.Errorf("workflow missing token expression:\n%s", content)
	}
}

func TestRenderEmptyPipeline(t *testing.T) {
	t.Parallel()

	engine, err := render.NewTextEngine(Templates)
	if err != nil {
		t.Fatalf("NewTextEngine: %v", err)
	}

	definition := Project(validated(t, &policy.Document{Version: "1", Project: "demo"}))
	content, err := Render(definition, engine)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	var parsed struct {
		Jobs map[string]any `yaml:"jobs"`
	}
	if err := yaml.Unmarshal([]byte(content), &parsed); err != nil {
		t.Fatalf("rendered workflow is not valid YAML: %v\n%s", err, content)
	}
	if len(parsed.Jobs) != 1 {
		t.Errorf("empty definition should render only the baseline job, got %v", jobNames(parsed.Jobs))
	}
	if _, present := parsed.Jobs["policy-baseline"]; !present {
		t.Errorf("baseline job missing, got %v", jobNames(parsed.Jobs))
	}
}

func jobNames(jobs map[string]any) []string {
	names := make([]string, 0, len(jobs))
	for name := range jobs {
		names = append(names, name)
	}
	return names
}
