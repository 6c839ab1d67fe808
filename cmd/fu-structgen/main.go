// fu-structgen compiles fwupd struct schemas into Go code.
//
// Usage:
//
//	fu-structgen generate <schema> <output> [--package name] [--strict]
//	fu-structgen generate --config fustruct.yaml [--strict]
//	fu-structgen verify <schema> [--strict] [--plan]
//	fu-structgen layout <schema> [--format text|yaml|cbor]
//	fu-structgen inspect <schema> [--file image.bin] [--struct name] [--offset n]
//	fu-structgen watch [--config fustruct.yaml]
//
// Every command accepts --verbose for debug logging. Diagnostics are
// printed to stderr as "file:line:col: severity: message [code]".
//
// Exit codes:
//
//	0  success
//	1  the schema has errors
//	2  a file could not be read or written
//	3  the command line is invalid
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/fwupd/fustruct-go/pkg/diag"
)

const (
	exitSuccess = 0
	exitSchema  = 1
	exitIO      = 2
	exitUsage   = 3
)

// usageError marks a bad command line.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// env carries the streams and logger of one invocation.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
	sink   diag.Sink
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command line and returns the exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return exitUsage
	}

	cmd, args := args[0], args[1:]
	var fn func(context.Context, *env, []string) error
	switch cmd {
	case "generate", "gen":
		fn = runGenerate
	case "verify":
		fn = runVerify
	case "layout":
		fn = runLayout
	case "inspect":
		fn = runInspect
	case "watch":
		fn = runWatch
	case "help", "-h", "--help":
		printUsage(stdout)
		return exitSuccess
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", cmd)
		printUsage(stderr)
		return exitUsage
	}

	e := &env{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logger: newLogger(stderr, hasVerbose(args)),
		sink:   diag.NewWriterSink(stderr),
	}
	err := fn(ctx, e, args)
	if errors.Is(err, pflag.ErrHelp) {
		return exitSuccess
	}
	if err != nil && !errors.Is(err, diag.ErrSchema) {
		// Schema errors have already been printed as diagnostics.
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &ue):
		return exitUsage
	case errors.Is(err, diag.ErrSchema), errors.Is(err, errGenerate):
		return exitSchema
	default:
		return exitIO
	}
}

// newFlagSet returns a flag set with the options shared by every command.
func newFlagSet(name string, e *env) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.BoolP("verbose", "v", false, "log debug output")
	return fs
}

// parseFlags parses args and maps flag errors to usage errors.
func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return &usageError{msg: err.Error()}
	}
	return nil
}

// hasVerbose looks for --verbose before flag parsing so that the logger
// exists while the command is set up.
func hasVerbose(args []string) bool {
	for _, a := range args {
		if a == "--" {
			break
		}
		if a == "--verbose" || a == "-v" {
			return true
		}
	}
	return false
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `fu-structgen - compile fwupd struct schemas into Go code

Usage:
  fu-structgen <command> [options]

Commands:
  generate   Generate Go code for a schema or a project file
  verify     Check a schema without writing output
  layout     Print the resolved layout of every struct
  inspect    Decode binary images against a schema
  watch      Regenerate a project whenever a schema changes

Options:
  -v, --verbose  Log debug output
  -h, --help     Show help

Examples:
  fu-structgen generate fu-dfu.rs fu-dfu_gen.go --package dfu
  fu-structgen generate --config fustruct.yaml --strict
  fu-structgen verify fu-dfu.rs --plan
  fu-structgen layout fu-dfu.rs --format yaml
  fu-structgen inspect fu-dfu.rs --file firmware.dfu --offset=-16`)
}
