package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fwupd/fustruct-go/pkg/config"
	"github.com/fwupd/fustruct-go/pkg/diag"
)

func runWatch(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("watch", e)
	cfgPath := fs.StringP("config", "c", config.DefaultFile, "project file listing the schemas to compile")
	strict := fs.Bool("strict", false, "treat warnings as errors")
	debounce := fs.Duration("debounce", 100*time.Millisecond, "delay between a change and regeneration")
	fs.Usage = func() {
		fmt.Fprintln(e.stderr, "Usage: fu-structgen watch [options]")
		fs.PrintDefaults()
	}
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return usagef("watch: unexpected argument %s", fs.Arg(0))
	}

	// Diagnostics of a long-running session go through the logger.
	e.sink = diag.NewSlogSink(e.logger)
	return watchProject(ctx, e, *cfgPath, *strict, *debounce)
}

// projectWatcher regenerates the schemas of a project file when they or
// the project file change.
type projectWatcher struct {
	env     *env
	cfgPath string
	strict  bool

	fsw    *fsnotify.Watcher
	dirs   map[string]bool
	cfg    *config.Config
	inputs map[string]job
}

// watchProject compiles the project, then recompiles on every change until
// ctx is done. Compilation failures are reported and watching continues;
// only a project file that cannot be loaded at startup is fatal.
func watchProject(ctx context.Context, e *env, cfgPath string, strict bool, debounce time.Duration) error {
	abs, err := filepath.Abs(cfgPath)
	if err != nil {
		return err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	w := &projectWatcher{
		env:     e,
		cfgPath: abs,
		strict:  strict,
		fsw:     fsw,
		dirs:    make(map[string]bool),
	}
	if err := w.reload(); err != nil {
		return err
	}
	e.logger.Info("watching project", "config", w.cfgPath, "schemas", len(w.inputs))

	pending := make(map[string]bool)
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			// Editors that save atomically produce Create rather than Write.
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name := filepath.Clean(event.Name)
			if _, ok := w.inputs[name]; !ok && name != w.cfgPath {
				continue
			}
			e.logger.Debug("file changed", "file", name, "event", event.Op.String())
			pending[name] = true
			timer.Reset(debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("file watcher error", "err", err)

		case <-timer.C:
			w.flush(pending)
			clear(pending)
		}
	}
}

// reload reads the project file, watches the directories it refers to and
// compiles every schema.
func (w *projectWatcher) reload() error {
	cfg, err := config.Load(w.cfgPath)
	if err != nil {
		return err
	}
	w.cfg = cfg
	w.inputs = make(map[string]job, len(cfg.Schemas))
	for _, j := range jobsFor(cfg, w.strict) {
		w.inputs[filepath.Clean(j.input)] = j
	}

	// Directories are watched rather than files so that atomic saves,
	// which replace the file, are seen.
	dirs := []string{filepath.Dir(w.cfgPath)}
	for name := range w.inputs {
		dirs = append(dirs, filepath.Dir(name))
	}
	for _, dir := range dirs {
		if w.dirs[dir] {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watch directory: %w", err)
		}
		w.dirs[dir] = true
	}

	for _, j := range jobsFor(cfg, w.strict) {
		w.compile(j)
	}
	return nil
}

// flush handles a batch of changed files.
func (w *projectWatcher) flush(changed map[string]bool) {
	if changed[w.cfgPath] {
		if err := w.reload(); err != nil {
			w.env.logger.Error("project reload failed", "config", w.cfgPath, "err", err)
		}
		return
	}
	for _, j := range jobsFor(w.cfg, w.strict) {
		if changed[filepath.Clean(j.input)] {
			w.compile(j)
		}
	}
}

func (w *projectWatcher) compile(j job) {
	if err := compile(w.env, j); err != nil {
		w.env.logger.Error("generation failed", "input", j.input, "err", err)
		return
	}
	fmt.Fprintf(w.env.stdout, "  generated %s\n", j.output)
}
