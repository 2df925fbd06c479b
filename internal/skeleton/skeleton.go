// Package skeleton implements the `skeleton <template> [out-dir]` CLI
// instruction: it scaffolds a new project from a named built-in template
// into an output directory (default `.`), writing a starter build.fl and
// any other template-declared files.
//
// Templates are declared in an embedded TOML manifest
// (github.com/BurntSushi/toml, matching internal/config's parser choice)
// rather than hardcoded Go string literals, so adding a template is a data
// change, not a code change.
package skeleton

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/bobsh/bob/internal/berr"
)

//go:embed templates.toml
var templatesTOML []byte

// Template is one built-in project skeleton.
type Template struct {
	Name        string            `toml:"name"`
	Description string            `toml:"description"`
	Files       map[string]string `toml:"files"` // relative path -> content
}

type manifest struct {
	Template []Template `toml:"template"`
}

// Registry is the set of built-in templates parsed from templates.toml.
type Registry struct {
	byName map[string]Template
}

// Load parses the embedded templates.toml into a Registry.
func Load() (*Registry, error) {
	var m manifest
	if _, err := toml.Decode(string(templatesTOML), &m); err != nil {
		return nil, berr.Wrap(berr.Host, err, "parsing embedded skeleton templates")
	}
	reg := &Registry{byName: make(map[string]Template, len(m.Template))}
	for _, t := range m.Template {
		reg.byName[t.Name] = t
	}
	return reg, nil
}

// Names lists every built-in template name, for the unknown-template
// error's list of available templates and `bob skeleton` usage output.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	return names
}

// Write scaffolds template into outDir, creating missing parent
// directories and refusing to overwrite any file that already exists.
func (r *Registry) Write(templateName, outDir string) error {
	tmpl, ok := r.byName[templateName]
	if !ok {
		return berr.New(berr.Host, "unknown skeleton template %q%s", templateName, suggestTemplate(templateName, r.Names()))
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return berr.Wrap(berr.System, err, "creating %s", outDir)
	}

	id := uuid.New()
	for rel, content := range tmpl.Files {
		dst := filepath.Join(outDir, rel)
		if _, err := os.Stat(dst); err == nil {
			return berr.New(berr.Host, "refusing to overwrite existing file %s", dst)
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return berr.Wrap(berr.System, err, "creating %s", filepath.Dir(dst))
		}
		rendered := render(content, id)
		if err := os.WriteFile(dst, []byte(rendered), 0o644); err != nil {
			return berr.Wrap(berr.System, err, "writing %s", dst)
		}
	}
	return nil
}

// render substitutes the one placeholder templates.toml files use: a
// generated UUID written into build.fl as a metadata comment, so that two
// skeletons scaffolded from the same template are trivially distinguishable.
func render(content string, id uuid.UUID) string {
	return strings.ReplaceAll(content, "{{skeleton_id}}", id.String())
}

func suggestTemplate(name string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	return "; available templates: " + strings.Join(candidates, ", ")
}
