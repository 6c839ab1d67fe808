package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwupd/fustruct-go/pkg/inspect"
	"github.com/fwupd/fustruct-go/pkg/model"
)

func newTestShell(t *testing.T, file string) (*shell, *bytes.Buffer) {
	t.Helper()
	s, diags := model.Load(file, mustRead(t, filepath.Join(testdata, file)))
	require.False(t, diags.HasErrors())
	var out bytes.Buffer
	return newShell(inspect.NewInspector(s), &out), &out
}

// execAll runs each line and returns what the last one printed.
func execAll(t *testing.T, sh *shell, out *bytes.Buffer, lines ...string) string {
	t.Helper()
	for _, line := range lines {
		out.Reset()
		require.False(t, sh.exec(line), line)
	}
	return out.String()
}

func TestShellTypes(t *testing.T) {
	sh, out := newTestShell(t, "cab.rs")
	got := execAll(t, sh, out, "types")
	assert.Contains(t, got, "FuStructCabHeader")
	assert.Contains(t, got, "0x24 bytes")
	assert.Contains(t, got, "FuStructCabFile")
}

func TestShellEditAndSave(t *testing.T) {
	sh, out := newTestShell(t, "dfu.rs")
	path := filepath.Join(t.TempDir(), "footer.bin")

	got := execAll(t, sh, out, "new FuStructDfuFtr")
	assert.Contains(t, got, "FuStructDfuFtr:\n  release: 0x0")
	assert.Contains(t, got, "ver: 0x100")

	assert.Empty(t, execAll(t, sh, out, "set pid 0x1234"))
	assert.Equal(t, "0x1234 (4660)\n", execAll(t, sh, out, "get pid"))
	assert.Equal(t, "\"UFD\"\n", execAll(t, sh, out, "get sig"))

	got = execAll(t, sh, out, "save "+path)
	assert.Contains(t, got, "wrote 0x10 bytes")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x34, 0x12}, data[2:4])

	got = execAll(t, sh, out, "load "+path, "parse FuStructDfuFtr")
	assert.Contains(t, got, "pid: 0x1234")
	got = execAll(t, sh, out, "parse FuStructDfuFtr -16")
	assert.Contains(t, got, "pid: 0x1234")

	got = execAll(t, sh, out, "hex")
	assert.Contains(t, got, "0000: 00 00 34 12")
}

func TestShellDetect(t *testing.T) {
	sh, out := newTestShell(t, "dfu.rs")
	path := filepath.Join(t.TempDir(), "fw.dfu")
	require.NoError(t, os.WriteFile(path, dfuImage(t, 0xBEEF), 0o644))

	execAll(t, sh, out, "load "+path)
	assert.Equal(t, "no struct matches\n", execAll(t, sh, out, "detect"))
	got := execAll(t, sh, out, "detect 0x20")
	assert.Contains(t, got, "pid: 0xbeef")
	assert.Equal(t, "0xbeef (48879)\n", execAll(t, sh, out, "get pid"))
}

func TestShellNested(t *testing.T) {
	sh, out := newTestShell(t, "selftest.rs")
	execAll(t, sh, out, "new FuStructSelfTest")

	assert.Empty(t, execAll(t, sh, out, "set bits.lower two"))
	assert.Equal(t, "two\n", execAll(t, sh, out, "get bits.lower"))
	assert.Empty(t, execAll(t, sh, out, "set entries[1].id 7"))
	assert.Equal(t, "0x7 (7)\n", execAll(t, sh, out, "get entries[1].id"))
	assert.Equal(t, "0xffffffff\n", execAll(t, sh, out, "get padding"))

	got := execAll(t, sh, out, "get bits")
	assert.Contains(t, got, "FuStructSelfTestBits:\n  lower: 0x2 [two]")
}

func TestShellErrors(t *testing.T) {
	sh, out := newTestShell(t, "dfu.rs")

	tests := []struct {
		line string
		want string
	}{
		{"show", "Error: no current record\n"},
		{"get pid", "Error: no current record\n"},
		{"parse FuStructDfuFtr", "Error: no image loaded\n"},
		{"new FuStructMissing", "Error: struct not found: FuStructMissing\n"},
		{"load", "Error: usage: load <file>\n"},
		{"parse", "Error: usage: parse <struct> [offset]\n"},
		{"frob", "Unknown command: frob (type 'help' for commands)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, execAll(t, sh, out, tt.line))
		})
	}

	execAll(t, sh, out, "new FuStructDfuFtr")
	assert.Contains(t, execAll(t, sh, out, "get nosuch"), "Error: ")
	assert.Contains(t, execAll(t, sh, out, "set pid 0x10000"), "Error: ")
	assert.Equal(t, "Error: usage: set <path> <value>\n", execAll(t, sh, out, "set pid"))
}

func TestShellToggles(t *testing.T) {
	sh, out := newTestShell(t, "dfu.rs")
	assert.Equal(t, "offsets on\n", execAll(t, sh, out, "offsets"))
	assert.True(t, sh.formatter.ShowOffsets)
	assert.Equal(t, "offsets off\n", execAll(t, sh, out, "offsets"))
	assert.Equal(t, "hidden fields on\n", execAll(t, sh, out, "hidden"))
	assert.Empty(t, execAll(t, sh, out, "", "# comment"))
}

func TestShellQuit(t *testing.T) {
	sh, _ := newTestShell(t, "dfu.rs")
	for _, cmd := range []string{"quit", "exit", "q", "  QUIT  "} {
		assert.True(t, sh.exec(cmd), cmd)
	}
}
