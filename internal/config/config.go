// Package config loads bob's optional project manifest, `bob.toml`: a
// project may override the deps-root cache directory and the default
// worker-pool width without touching CLI flags, and may list
// `template_dirs`, which are appended to the build script's import search
// directories (the `skeleton` instruction does not read them; its
// templates are built in). CLI flags and BOB_DEPS_PATH always take
// precedence over whatever the manifest sets.
//
// When the manifest declares a `[vars]` table alongside a `schema` block,
// the vars are structurally validated against that schema with
// github.com/santhosh-tekuri/jsonschema/v5.
package config

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/bobsh/bob/internal/berr"
)

// FileName is the well-known manifest filename looked up at a project's
// root, alongside build.fl.
const FileName = "bob.toml"

// Manifest is the decoded contents of an optional bob.toml.
type Manifest struct {
	DepsRoot     string         `toml:"deps_root"`
	Workers      int            `toml:"workers"`
	TemplateDirs []string       `toml:"template_dirs"`
	Vars         map[string]any `toml:"vars"`
	Schema       map[string]any `toml:"schema"`
}

// Load reads and parses dir/bob.toml. A missing manifest is not an error:
// ok is false and m is a zero Manifest, since the manifest is an optional
// feature the same way the install map is.
func Load(dir string) (m *Manifest, ok bool, err error) {
	path := filepath.Join(dir, FileName)
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return &Manifest{}, false, nil
		}
		return nil, false, berr.Wrap(berr.System, readErr, "reading %s", path)
	}

	m = &Manifest{}
	if _, err := toml.Decode(string(data), m); err != nil {
		return nil, false, berr.Wrap(berr.Host, err, "parsing %s", path)
	}

	if len(m.Schema) > 0 {
		if err := validateVars(m.Vars, m.Schema); err != nil {
			return nil, false, berr.Wrap(berr.Host, err, "%s: [vars] failed schema validation", path)
		}
	}

	return m, true, nil
}

// validateVars compiles schema as a JSON Schema document (Draft 2020-12)
// and validates vars against it.
func validateVars(vars map[string]any, schema map[string]any) error {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return err
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	const url = "bob://vars-schema.json"
	if err := compiler.AddResource(url, jsonReader(schemaJSON)); err != nil {
		return err
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return err
	}

	varsJSON, err := json.Marshal(vars)
	if err != nil {
		return err
	}
	var decoded any
	if err := json.Unmarshal(varsJSON, &decoded); err != nil {
		return err
	}
	return compiled.Validate(decoded)
}

func jsonReader(b []byte) io.Reader { return bytes.NewReader(b) }

// ApplyDefaults fills in cfg fields the manifest overrides, but only where
// the caller hasn't already set a stronger-precedence value (CLI flags,
// BOB_DEPS_PATH). depsRootSet/workersSet report whether the caller already
// resolved those fields from a higher-precedence source.
func (m *Manifest) ApplyDefaults(depsRoot *string, depsRootSet bool, workers *int, workersSet bool, importDirs *[]string) {
	if !depsRootSet && m.DepsRoot != "" {
		*depsRoot = m.DepsRoot
	}
	if !workersSet && m.Workers > 0 {
		*workers = m.Workers
	}
	if len(m.TemplateDirs) > 0 {
		*importDirs = append(*importDirs, m.TemplateDirs...)
	}
}
