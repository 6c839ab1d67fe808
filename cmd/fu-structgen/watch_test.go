package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwupd/fustruct-go/pkg/diag"
)

// syncBuffer is a bytes.Buffer safe for the watcher goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// replaceFile swaps in new content with a rename so the watcher never sees
// a truncated file.
func replaceFile(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	writeFile(t, tmp, content)
	require.NoError(t, os.Rename(tmp, path))
}

func readString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

func TestWatchProject(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "fw.rs")
	output := filepath.Join(dir, "fw_gen.go")
	writeFile(t, schema, "#[derive(New)]\nstruct FuStructFw {\n    alpha: u8,\n}\n")
	cfg := filepath.Join(dir, "fustruct.yaml")
	writeFile(t, cfg, "package: fw\nschemas:\n  - input: fw.rs\n")

	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	e := &env{
		stdin:  strings.NewReader(""),
		stdout: stdout,
		stderr: stderr,
		logger: newLogger(stderr, true),
	}
	e.sink = diag.NewSlogSink(e.logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchProject(ctx, e, cfg, false, 10*time.Millisecond) }()

	require.Eventually(t, func() bool {
		return strings.Contains(readString(output), "SetAlpha")
	}, 5*time.Second, 10*time.Millisecond, "initial generation")

	replaceFile(t, schema, "#[derive(New)]\nstruct FuStructFw {\n    alpha: u8,\n    beta: u8,\n}\n")
	require.Eventually(t, func() bool {
		return strings.Contains(readString(output), "SetBeta")
	}, 5*time.Second, 10*time.Millisecond, "regeneration after change")

	// A broken schema keeps the last good output.
	replaceFile(t, schema, "#[derive(New)]\nstruct FuStructFw {\n    alpha: FuMissing,\n}\n")
	require.Eventually(t, func() bool {
		return strings.Contains(stderr.String(), "unknown type FuMissing")
	}, 5*time.Second, 10*time.Millisecond, "diagnostic logged")
	assert.Contains(t, readString(output), "SetBeta")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.Contains(t, stdout.String(), "generated "+output)
}

func TestWatchMissingConfig(t *testing.T) {
	e := &env{stdout: io.Discard, stderr: io.Discard, logger: newLogger(io.Discard, false), sink: diag.NoopSink{}}
	err := watchProject(context.Background(), e, filepath.Join(t.TempDir(), "fustruct.yaml"), false, time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatchUsage(t *testing.T) {
	code, _, _ := runCLI(t, "watch", "extra")
	assert.Equal(t, exitUsage, code)
}
