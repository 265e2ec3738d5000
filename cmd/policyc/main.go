// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/policyc/lib/compiler"
	"github.com/bureau-foundation/policyc/lib/content"
	"github.com/bureau-foundation/policyc/lib/policy"
	"github.com/bureau-foundation/policyc/lib/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Set up logging.
	logLevel := slog.LevelInfo
	if os.Getenv("POLICYC_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "init":
		err = initCmd(args)
	case "validate":
		err = validateCmd(args)
	case "compile":
		err = compileCmd(args, logger)
	case "preview":
		err = previewCmd(args)
	case "version", "--version", "-v":
		fmt.Printf("policyc %s\n", version.Full())
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		// Every compilation problem surfaces as a flat list of
		// human-readable lines; schema errors expand to one line
		// per violation.
		for _, message := range policy.Messages(err) {
			fmt.Fprintln(os.Stderr, message)
		}
		os.Exit(1)
	}
}

func initCmd(args []string) error {
	flags := pflag.NewFlagSet("init", pflag.ContinueOnError)
	template := flags.String("template", "default", "starter template name")
	file := flags.StringP("file", "f", "policy.yaml", "path to write the policy document")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(*file); err == nil {
		return fmt.Errorf("%s already exists; refusing to overwrite", *file)
	}

	starter, err := content.Starter(*template)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*file, starter, 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (template: %s)\n", *file, *template)
	return nil
}

func validateCmd(args []string) error {
	flags := pflag.NewFlagSet("validate", pflag.ContinueOnError)
	file := flags.StringP("file", "f", "policy.yaml", "policy document to validate")
	if err := flags.Parse(args); err != nil {
		return err
	}

	document, err := policy.ParseFile(*file)
	if err != nil {
		return err
	}
	if err := policy.Validate(document); err != nil {
		return err
	}
	fmt.Printf("ok: %s\n", *file)
	return nil
}

func compileCmd(args []string, logger *slog.Logger) error {
	flags := pflag.NewFlagSet("compile", pflag.ContinueOnError)
	file := flags.StringP("file", "f", "policy.yaml", "policy document to compile")
	output := flags.StringP("output", "o", ".", "output root for compiled artifacts")
	if err := flags.Parse(args); err != nil {
		return err
	}

	document, err := policy.ParseFile(*file)
	if err != nil {
		return err
	}

	policyCompiler, err := compiler.New(compiler.Options{Logger: logger})
	if err != nil {
		return err
	}

	artifacts, err := policyCompiler.Compile(document, *output)
	if err != nil {
		return err
	}
	for _, artifact := range artifacts {
		fmt.Printf("wrote %s\n", artifact.Path)
	}
	return nil
}

func previewCmd(args []string) error {
	flags := pflag.NewFlagSet("preview", pflag.ContinueOnError)
	file := flags.StringP("file", "f", "policy.yaml", "policy document to preview")
	if err := flags.Parse(args); err != nil {
		return err
	}

	document, err := policy.ParseFile(*file)
	if err != nil {
		return err
	}

	policyCompiler, err := compiler.New(compiler.Options{})
	if err != nil {
		return err
	}

	artifacts, err := policyCompiler.Preview(document)
	if err != nil {
		return err
	}
	for _, artifact := range artifacts {
		marker := ""
		if artifact.Executable {
			marker = " (executable)"
		}
		fmt.Printf("--- %s%s\n", artifact.Path, marker)
		os.Stdout.Write(artifact.Content)
		fmt.Println()
	}
	return nil
}

func printUsage() {
	fmt.Print(`policyc - compile workspace policy documents into enforcement artifacts

USAGE
    policyc <command> [flags]

COMMANDS
    init      Write a starter policy document
    validate  Check a policy document against the schema
    compile   Compile a policy document and write the artifacts
    preview   Compile without writing anything (dry run)
    version   Show version

EXAMPLES
    # Start a new workspace policy
    policyc init --template strict

    # Check the document after editing
    policyc validate --file policy.yaml

    # Compile into the current workspace
    policyc compile --file policy.yaml --output .

FLAGS
    Each command accepts --file/-f (default: policy.yaml). The compile
    command also accepts --output/-o (default: current directory).
    Set POLICYC_DEBUG=1 for debug logging.
`)
}
