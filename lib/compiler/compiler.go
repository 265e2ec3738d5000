// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compiler orchestrates a policy compilation: validate the
// document, run the three projectors and the documentation renderer
// against the same canonical model, and either return the artifact
// list (Preview) or publish it to an output root (Compile).
//
// Compilation is a pure function of the document bytes: single-pass,
// synchronous, no external calls. The only shared-resource interaction
// is the final write step, which stages every artifact before
// publishing so a crash mid-write never leaves a partially updated
// output tree.
package compiler

import (
	"log/slog"

	"github.com/bureau-foundation/policyc/lib/docgen"
	"github.com/bureau-foundation/policyc/lib/hookgen"
	"github.com/bureau-foundation/policyc/lib/policy"
	"github.com/bureau-foundation/policyc/lib/render"
	"github.com/bureau-foundation/policyc/lib/settings"
	"github.com/bureau-foundation/policyc/lib/workflow"
)

// Artifact output locations, relative to the output root.
const (
	SettingsPath = ".claude/settings.local.json"
	HooksDir     = ".claude/hooks"
	ManifestPath = ".claude/policy-manifest.json"
)

// Artifact is one compiled output: a path relative to the output
// root, the content, and whether the file is marked executable.
type Artifact struct {
	Path       string
	Content    []byte
	Executable bool
}

// Options configures a Compiler. Both fields are optional.
type Options struct {
	// Engine overrides the templating capability. When nil, a
	// text/template engine over the projectors' embedded templates
	// is used.
	Engine render.Engine

	// Logger enables progress logging. When nil, the compiler is
	// silent.
	Logger *slog.Logger
}

// Compiler turns validated policy documents into artifacts.
type Compiler struct {
	engine render.Engine
	logger *slog.Logger
}

// New creates a Compiler.
func New(options Options) (*Compiler, error) {
	engine := options.Engine
	if engine == nil {
		built, err := render.NewTextEngine(hookgen.Templates, workflow.Templates, docgen.Templates)
		if err != nil {
			return nil, err
		}
		engine = built
	}
	return &Compiler{engine: engine, logger: options.Logger}, nil
}

// log is a helper that only logs if a logger is configured.
func (c *Compiler) log(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

// Preview runs the full projection pipeline without touching storage.
// A validation failure returns the aggregated error and no artifacts.
func (c *Compiler) Preview(document *policy.Document) ([]Artifact, error) {
	if err := policy.Validate(document); err != nil {
		return nil, err
	}
	return c.project(document)
}

// Compile runs Preview and publishes the resulting artifacts under
// outputRoot. Artifacts are written to a staging directory first and
// renamed into place, with every parent directory created before any
// content moves.
func (c *Compiler) Compile(document *policy.Document, outputRoot string) ([]Artifact, error) {
	artifacts, err := c.Preview(document)
	if err != nil {
		return nil, err
	}
	if err := writeArtifacts(outputRoot, artifacts); err != nil {
		return nil, err
	}
	c.log("compiled policy", "project", document.Project, "artifacts", len(artifacts), "output", outputRoot)
	return artifacts, nil
}

// project runs every projector against the validated document and
// assembles the flat, ordered artifact list: the enforcement
// descriptor, the hook scripts, the pipeline definition, the markdown
// report, and last the digest manifest covering all of them.
func (c *Compiler) project(document *policy.Document) ([]Artifact, error) {
	var artifacts []Artifact

	descriptor, err := settings.Project(document)
	if err != nil {
		return nil, err
	}
	descriptorJSON, err := descriptor.MarshalIndent()
	if err != nil {
		return nil, err
	}
	artifacts = append(artifacts, Artifact{Path: SettingsPath, Content: descriptorJSON})

	scripts, err := hookgen.Project(document, c.engine)
	if err != nil {
		return nil, err
	}
	for _, script := range scripts {
		artifacts = append(artifacts, Artifact{
			Path:       HooksDir + "/" + script.Name,
			Content:    []byte(script.Content),
			Executable: true,
		})
	}

	definition := workflow.Project(document)
	workflowContent, err := workflow.Render(definition, c.engine)
	if err != nil {
		return nil, err
	}
	artifacts = append(artifacts, Artifact{Path: workflow.Path, Content: []byte(workflowContent)})

	report, err := docgen.Render(document, c.engine)
	if err != nil {
		return nil, err
	}
	artifacts = append(artifacts, Artifact{Path: docgen.Path, Content: []byte(report)})

	manifest, err := buildManifest(artifacts)
	if err != nil {
		return nil, err
	}
	artifacts = append(artifacts, Artifact{Path: ManifestPath, Content: manifest})

	return artifacts, nil
}
