package main

import (
	"context"
	"fmt"

	"github.com/fwupd/fustruct-go/pkg/model"
	"github.com/fwupd/fustruct-go/pkg/traits"
)

func runVerify(_ context.Context, e *env, args []string) error {
	fs := newFlagSet("verify", e)
	strict := fs.Bool("strict", false, "treat warnings as errors")
	plan := fs.Bool("plan", false, "print the generated operations and their visibility")
	api := fs.Bool("api", false, "print the signatures of the public API")
	fs.Usage = func() {
		fmt.Fprintln(e.stderr, "Usage: fu-structgen verify <schema> [options]")
		fs.PrintDefaults()
	}
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("verify: expected one schema, got %d arguments", fs.NArg())
	}

	s, _, err := loadSchema(e, fs.Arg(0), *strict)
	if err != nil {
		return err
	}
	p := traits.Build(s)
	if *plan {
		if err := p.Describe(e.stdout); err != nil {
			return err
		}
	}
	if *api {
		for _, sig := range p.Functions() {
			fmt.Fprintln(e.stdout, sig.Decl)
		}
	}
	fmt.Fprintf(e.stdout, "%s: ok (%d enums, %d structs)\n", fs.Arg(0), len(s.Enums), len(s.Structs))
	return nil
}

func runLayout(_ context.Context, e *env, args []string) error {
	fs := newFlagSet("layout", e)
	format := fs.StringP("format", "f", "text", "output format: text, yaml or cbor")
	fs.Usage = func() {
		fmt.Fprintln(e.stderr, "Usage: fu-structgen layout <schema> [options]")
		fs.PrintDefaults()
	}
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("layout: expected one schema, got %d arguments", fs.NArg())
	}
	switch *format {
	case "text", "yaml", "cbor":
	default:
		return usagef("layout: unknown format %q", *format)
	}

	s, _, err := loadSchema(e, fs.Arg(0), false)
	if err != nil {
		return err
	}
	switch *format {
	case "yaml":
		out, err := model.MarshalIRYAML(s)
		if err != nil {
			return fmt.Errorf("encoding layout: %w", err)
		}
		_, err = e.stdout.Write(out)
		return err
	case "cbor":
		out, err := model.MarshalIR(s)
		if err != nil {
			return fmt.Errorf("encoding layout: %w", err)
		}
		_, err = e.stdout.Write(out)
		return err
	}
	return model.WriteLayout(e.stdout, s)
}
