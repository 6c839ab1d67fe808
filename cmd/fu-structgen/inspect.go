package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/fwupd/fustruct-go/pkg/inspect"
	"github.com/fwupd/fustruct-go/pkg/wire"
)

func runInspect(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("inspect", e)
	file := fs.StringP("file", "f", "", "binary image to decode; starts the interactive shell when empty")
	name := fs.StringP("struct", "s", "", "struct to decode (default: every struct whose constants match)")
	offset := fs.IntP("offset", "o", 0, "byte offset into the image; negative values count from the end")
	hex := fs.Bool("hex", false, "also print a hex dump of each record")
	fs.Usage = func() {
		fmt.Fprintln(e.stderr, "Usage: fu-structgen inspect <schema> [options]")
		fs.PrintDefaults()
	}
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("inspect: expected one schema, got %d arguments", fs.NArg())
	}

	s, _, err := loadSchema(e, fs.Arg(0), false)
	if err != nil {
		return err
	}
	sh := newShell(inspect.NewInspector(s), e.stdout)

	if *file == "" {
		return sh.interactive(ctx, e)
	}
	if err := sh.load(*file); err != nil {
		return err
	}
	var records []*inspect.Record
	if *name != "" {
		r, err := sh.parse(*name, *offset)
		if err != nil {
			return fmt.Errorf("%s: %w", *file, err)
		}
		records = append(records, r)
	} else {
		records, err = sh.detect(*offset)
		if err != nil {
			return fmt.Errorf("%s: %w", *file, err)
		}
		if len(records) == 0 {
			return fmt.Errorf("%s: no struct matches at offset %d", *file, *offset)
		}
	}
	for _, r := range records {
		fmt.Fprintln(e.stdout, sh.formatter.Format(r))
		if *hex {
			fmt.Fprint(e.stdout, sh.formatter.FormatHex(r))
		}
	}
	return nil
}

// shell is the state of an inspect session: the loaded image and the
// record being edited.
type shell struct {
	inspector *inspect.Inspector
	formatter *inspect.Formatter
	out       io.Writer

	file    string
	data    []byte
	current *inspect.Record
}

func newShell(ins *inspect.Inspector, out io.Writer) *shell {
	return &shell{
		inspector: ins,
		formatter: inspect.NewFormatter(),
		out:       out,
	}
}

// interactive runs the readline loop until quit, EOF or ctx is done.
func (sh *shell) interactive(ctx context.Context, e *env) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "fustruct> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    sh.completer(),
		Stdout:          e.stdout,
		Stderr:          e.stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	sh.out = rl.Stdout()
	sh.printHelp()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			// EOF
			return nil
		}
		if sh.exec(line) {
			return nil
		}
	}
}

func (sh *shell) completer() *readline.PrefixCompleter {
	structs := readline.PcItemDynamic(func(string) []string {
		return sh.inspector.Structs()
	})
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("types"),
		readline.PcItem("load"),
		readline.PcItem("parse", structs),
		readline.PcItem("new", structs),
		readline.PcItem("detect"),
		readline.PcItem("get"),
		readline.PcItem("set"),
		readline.PcItem("show"),
		readline.PcItem("hex"),
		readline.PcItem("offsets"),
		readline.PcItem("save"),
		readline.PcItem("quit"),
	)
}

// exec runs one command line. It reports whether the session should end.
func (sh *shell) exec(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" || strings.HasPrefix(input, "#") {
		return false
	}
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		sh.printHelp()
	case "types", "t":
		sh.cmdTypes()
	case "load", "l":
		err = sh.cmdLoad(args)
	case "parse", "p":
		err = sh.cmdParse(args)
	case "new", "n":
		err = sh.cmdNew(args)
	case "detect", "d":
		err = sh.cmdDetect(args)
	case "get", "g":
		err = sh.cmdGet(args)
	case "set", "s":
		err = sh.cmdSet(args)
	case "show":
		err = sh.cmdShow()
	case "hex", "x":
		err = sh.cmdHex()
	case "offsets":
		sh.formatter.ShowOffsets = !sh.formatter.ShowOffsets
		fmt.Fprintf(sh.out, "offsets %s\n", onOff(sh.formatter.ShowOffsets))
	case "hidden":
		sh.formatter.ShowHidden = !sh.formatter.ShowHidden
		fmt.Fprintf(sh.out, "hidden fields %s\n", onOff(sh.formatter.ShowHidden))
	case "save":
		err = sh.cmdSave(args)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(sh.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	if err != nil {
		fmt.Fprintf(sh.out, "Error: %v\n", err)
	}
	return false
}

func (sh *shell) printHelp() {
	fmt.Fprintln(sh.out, `
Inspect Commands:
  Image:
    load <file>             - Load a binary image
    parse <struct> [offset] - Decode a struct of the image (negative offset counts from the end)
    detect [offset]         - Decode every struct whose constants match
    save <file>             - Write the current record to a file

  Records:
    types                   - List the structs of the schema
    new <struct>            - Create a record with constants and defaults set
    get <path>              - Print a field, e.g. entries[1].value
    set <path> <value>      - Change a field
    show                    - Print the current record
    hex                     - Hex dump of the current record
    offsets                 - Toggle field offsets in show
    hidden                  - Toggle reserved fields in show

  General:
    help                    - Show this help
    quit                    - Exit`)
}

func (sh *shell) cmdTypes() {
	for _, name := range sh.inspector.Structs() {
		st, _ := sh.inspector.Lookup(name)
		fmt.Fprintf(sh.out, "  %-32s 0x%x bytes\n", name, st.Size)
	}
}

func (sh *shell) cmdLoad(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: load <file>")
	}
	if err := sh.load(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "loaded %s (0x%x bytes)\n", sh.file, len(sh.data))
	return nil
}

func (sh *shell) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}
	sh.file, sh.data = path, data
	return nil
}

func (sh *shell) cmdParse(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: parse <struct> [offset]")
	}
	offset, err := offsetArg(args[1:])
	if err != nil {
		return err
	}
	r, err := sh.parse(args[0], offset)
	if err != nil {
		return err
	}
	sh.current = r
	fmt.Fprintln(sh.out, sh.formatter.Format(r))
	return nil
}

// parse decodes name from the loaded image. A negative offset counts from
// the end of the image.
func (sh *shell) parse(name string, offset int) (*inspect.Record, error) {
	if sh.data == nil {
		return nil, errors.New("no image loaded")
	}
	if offset < 0 {
		offset += len(sh.data)
		if offset < 0 {
			return nil, fmt.Errorf("offset is before the start of the 0x%x byte image", len(sh.data))
		}
	}
	return sh.inspector.Parse(name, sh.data, offset)
}

func (sh *shell) cmdDetect(args []string) error {
	if len(args) > 1 {
		return errors.New("usage: detect [offset]")
	}
	offset, err := offsetArg(args)
	if err != nil {
		return err
	}
	records, err := sh.detect(offset)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(sh.out, "no struct matches")
		return nil
	}
	for _, r := range records {
		fmt.Fprintln(sh.out, sh.formatter.Format(r))
	}
	sh.current = records[0]
	return nil
}

func (sh *shell) detect(offset int) ([]*inspect.Record, error) {
	if sh.data == nil {
		return nil, errors.New("no image loaded")
	}
	if offset < 0 {
		offset += len(sh.data)
	}
	if offset < 0 || offset > len(sh.data) {
		return nil, fmt.Errorf("offset outside the 0x%x byte image", len(sh.data))
	}
	return sh.inspector.Detect(sh.data, offset), nil
}

func (sh *shell) cmdNew(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: new <struct>")
	}
	r, err := sh.inspector.New(args[0])
	if err != nil {
		return err
	}
	sh.current = r
	fmt.Fprintln(sh.out, sh.formatter.Format(r))
	return nil
}

func (sh *shell) cmdGet(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: get <path>")
	}
	if sh.current == nil {
		return errors.New("no current record")
	}
	v, err := sh.current.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.out, sh.describe(v))
	return nil
}

// describe renders a value returned by Record.Get.
func (sh *shell) describe(v any) string {
	switch v := v.(type) {
	case *inspect.Record:
		return sh.formatter.Format(v)
	case []*inspect.Record:
		parts := make([]string, len(v))
		for i, r := range v {
			parts[i] = sh.formatter.Format(r)
		}
		return strings.Join(parts, "\n")
	case []byte:
		return "0x" + wire.Hex(v)
	case uint8:
		return fmt.Sprintf("0x%02x", v)
	case uint64:
		return fmt.Sprintf("0x%x (%d)", v, v)
	case string:
		return strconv.Quote(v)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(v)
}

func (sh *shell) cmdSet(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: set <path> <value>")
	}
	if sh.current == nil {
		return errors.New("no current record")
	}
	return sh.current.SetText(args[0], strings.Join(args[1:], " "))
}

func (sh *shell) cmdShow() error {
	if sh.current == nil {
		return errors.New("no current record")
	}
	fmt.Fprintln(sh.out, sh.formatter.Format(sh.current))
	return nil
}

func (sh *shell) cmdHex() error {
	if sh.current == nil {
		return errors.New("no current record")
	}
	fmt.Fprint(sh.out, sh.formatter.FormatHex(sh.current))
	return nil
}

func (sh *shell) cmdSave(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: save <file>")
	}
	if sh.current == nil {
		return errors.New("no current record")
	}
	if _, err := writeAtomic(args[0], sh.current.Bytes()); err != nil {
		return fmt.Errorf("writing %s: %w", args[0], err)
	}
	fmt.Fprintf(sh.out, "wrote 0x%x bytes to %s\n", sh.current.Struct().Size, args[0])
	return nil
}

// offsetArg parses an optional decimal or 0x offset.
func offsetArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	n, err := strconv.ParseInt(args[0], 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q", args[0])
	}
	return int(n), nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
