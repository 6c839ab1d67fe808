package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwupd/fustruct-go/pkg/codegen"
	"github.com/fwupd/fustruct-go/pkg/config"
	"github.com/fwupd/fustruct-go/pkg/diag"
	"github.com/fwupd/fustruct-go/pkg/model"
	"github.com/fwupd/fustruct-go/pkg/traits"
)

// errGenerate is wrapped by failures of the emitter itself.
var errGenerate = errors.New("code generation failed")

// job is one schema to compile.
type job struct {
	input  string
	output string
	pkg    string
	header string
	strict bool
}

func runGenerate(_ context.Context, e *env, args []string) error {
	fs := newFlagSet("generate", e)
	pkg := fs.StringP("package", "p", "", "package name of the generated file (default: output directory name)")
	strict := fs.Bool("strict", false, "treat warnings as errors")
	cfgPath := fs.StringP("config", "c", "", "project file listing the schemas to compile")
	header := fs.String("header", "", "comment placed at the top of the generated file")
	fs.Usage = func() {
		fmt.Fprintln(e.stderr, "Usage: fu-structgen generate <schema> <output> [options]")
		fmt.Fprintln(e.stderr, "       fu-structgen generate --config fustruct.yaml [options]")
		fs.PrintDefaults()
	}
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *cfgPath != "" || fs.NArg() == 0 {
		if fs.NArg() != 0 {
			return usagef("generate: --config does not take positional arguments")
		}
		path := *cfgPath
		if path == "" {
			path = config.DefaultFile
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		return generateProject(e, cfg, *strict)
	}

	if fs.NArg() != 2 {
		return usagef("generate: expected <schema> <output>, got %d arguments", fs.NArg())
	}
	j := job{
		input:  fs.Arg(0),
		output: fs.Arg(1),
		pkg:    *pkg,
		header: *header,
		strict: *strict,
	}
	if j.pkg == "" {
		j.pkg = config.PackageFor(j.output)
	}
	if err := compile(e, j); err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "  generated %s\n", j.output)
	return nil
}

// generateProject compiles every schema of cfg. A failing schema does not
// stop the others; the errors are joined.
func generateProject(e *env, cfg *config.Config, strict bool) error {
	var errs []error
	for _, j := range jobsFor(cfg, strict) {
		if err := compile(e, j); err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(e.stdout, "  generated %s\n", j.output)
	}
	return errors.Join(errs...)
}

func jobsFor(cfg *config.Config, strict bool) []job {
	jobs := make([]job, 0, len(cfg.Schemas))
	for _, s := range cfg.Schemas {
		jobs = append(jobs, job{
			input:  s.Input,
			output: s.Output,
			pkg:    s.Package,
			header: cfg.Header,
			strict: strict || cfg.Strict,
		})
	}
	return jobs
}

// loadSchema reads and resolves a schema, reporting its diagnostics. It
// fails with a *diag.Error when the schema has errors.
func loadSchema(e *env, path string, strict bool) (*model.Schema, []byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading schema: %w", err)
	}
	s, diags := model.Load(path, src)
	if strict {
		diags = diags.Promote()
	}
	diags.Sort()
	diag.ReportAll(e.sink, diags)
	if err := diags.Err(); err != nil {
		return nil, nil, err
	}
	e.logger.Debug("schema loaded",
		"file", path,
		"enums", len(s.Enums),
		"structs", len(s.Structs),
		"warnings", len(diags.Warnings()))
	return s, src, nil
}

// compile generates the output of j. Nothing is written unless the whole
// schema compiles.
func compile(e *env, j job) error {
	s, src, err := loadSchema(e, j.input, j.strict)
	if err != nil {
		return err
	}
	out, err := codegen.Generate(s, traits.Build(s), codegen.Options{
		Package:  j.pkg,
		Filename: j.input,
		Source:   src,
		Header:   j.header,
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", errGenerate, j.input, err)
	}
	changed, err := writeAtomic(j.output, out)
	if err != nil {
		return fmt.Errorf("writing %s: %w", j.output, err)
	}
	e.logger.Debug("generated", "input", j.input, "output", j.output, "bytes", len(out), "changed", changed)
	return nil
}

// writeAtomic replaces path with data through a temporary file in the same
// directory. An unchanged file is left alone so that its modification time
// does not move.
func writeAtomic(path string, data []byte) (bool, error) {
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, data) {
		return false, nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return false, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return false, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, err
	}
	return true, nil
}
