package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the project file name looked up when none is given.
const DefaultFile = "fustruct.yaml"

// ErrNoSchemas is returned when a project lists no schemas.
var ErrNoSchemas = errors.New("config: no schemas listed")

// Config is a fu-structgen project.
type Config struct {
	// Package is the default package name of generated files.
	Package string `yaml:"package"`

	// Strict promotes warnings to errors.
	Strict bool `yaml:"strict"`

	// Header is comment text placed at the top of every generated file,
	// typically a license identifier.
	Header string `yaml:"header,omitempty"`

	// Schemas lists the schema files to compile.
	Schemas []Schema `yaml:"schemas"`

	// Dir is the directory of the project file. Relative paths in Schemas
	// are resolved against it.
	Dir string `yaml:"-"`
}

// Schema is one input/output pair.
type Schema struct {
	Input   string `yaml:"input"`
	Output  string `yaml:"output,omitempty"`
	Package string `yaml:"package,omitempty"`
}

// Load reads a project file. Environment variables in the file are
// expanded, relative paths are made absolute and defaults are applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data, dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a project from data. Relative paths are resolved against
// dir.
func Parse(data []byte, dir string) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Dir = dir

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(cfg *Config) {
	for i := range cfg.Schemas {
		s := &cfg.Schemas[i]
		if s.Input != "" && !filepath.IsAbs(s.Input) {
			s.Input = filepath.Join(cfg.Dir, s.Input)
		}
		if s.Output == "" && s.Input != "" {
			s.Output = OutputFor(s.Input)
		} else if s.Output != "" && !filepath.IsAbs(s.Output) {
			s.Output = filepath.Join(cfg.Dir, s.Output)
		}
		if s.Package == "" {
			s.Package = cfg.Package
		}
		if s.Package == "" {
			s.Package = PackageFor(s.Output)
		}
	}
}

func validate(cfg *Config) error {
	if len(cfg.Schemas) == 0 {
		return ErrNoSchemas
	}
	outputs := make(map[string]int, len(cfg.Schemas))
	for i, s := range cfg.Schemas {
		if s.Input == "" {
			return fmt.Errorf("schemas[%d]: input is required", i)
		}
		if prev, ok := outputs[s.Output]; ok {
			return fmt.Errorf("schemas[%d]: output %s is also written by schemas[%d]", i, s.Output, prev)
		}
		outputs[s.Output] = i
		if !validPackage(s.Package) {
			return fmt.Errorf("schemas[%d]: %q is not a valid package name", i, s.Package)
		}
	}
	return nil
}

// OutputFor is the default generated file of a schema: foo.rs becomes
// foo_gen.go next to it.
func OutputFor(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + "_gen.go"
}

// PackageFor derives a package name from the directory of a file.
func PackageFor(file string) string {
	base := filepath.Base(filepath.Dir(file))
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' && b.Len() > 0 {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "fustructs"
	}
	return b.String()
}

func validPackage(name string) bool {
	if name == "" || name == "_" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
