// SPDX-License-Identifier: MPL-2.0

package bundler

import (
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/spf13/afero"

	"github.com/minipack/minipack/internal/loader"
)

//go:embed runtime.js.tmpl
var runtimeTemplate string

type (
	// templateData is what the runtime template is executed with.
	templateData struct {
		EntryID string
		Modules []templateModule
		Banners []string
	}

	templateModule struct {
		ID   string
		Code string
	}
)

// TemplateFuncs returns the functions available to runtime templates: sprig's text
// functions plus jsString, which renders a value as a JavaScript string literal.
func TemplateFuncs() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["jsString"] = func(v any) string { return loader.JSString(fmt.Sprint(v)) }
	return funcs
}

// loadTemplate parses output.template when configured, the built-in runtime otherwise.
func (c *Compiler) loadTemplate() (*template.Template, error) {
	name, text := "runtime.js.tmpl", runtimeTemplate
	if custom := c.cfg.Output.Template; custom != "" {
		file := custom
		if !filepath.IsAbs(file) {
			file = filepath.Join(c.root, file)
		}
		data, err := afero.ReadFile(c.fs, file)
		if err != nil {
			return nil, &BuildError{Phase: PhaseSetup, File: file, Kind: ErrIO, Err: err}
		}
		name, text = filepath.Base(file), string(data)
	}

	tmpl, err := template.New(name).Funcs(TemplateFuncs()).Parse(text)
	if err != nil {
		return nil, &BuildError{Phase: PhaseSetup, File: name, Kind: ErrTemplate, Err: err}
	}
	return tmpl, nil
}

// Render executes the runtime template over graph. Modules appear in discovery order, so
// equal graphs render to identical bytes.
func (c *Compiler) Render(graph *ModuleGraph) (string, error) {
	data := templateData{
		EntryID: string(graph.Entry()),
		Banners: c.banners,
	}
	for _, m := range graph.Modules() {
		data.Modules = append(data.Modules, templateModule{ID: string(m.Path), Code: m.Code})
	}

	var sb strings.Builder
	if err := c.tmpl.Execute(&sb, data); err != nil {
		return "", &BuildError{Phase: PhaseEmit, File: c.tmpl.Name(), Kind: ErrTemplate, Err: err}
	}
	return sb.String(), nil
}

// Emit renders graph and writes the artifact, returning its path. The output directory
// must already exist.
func (c *Compiler) Emit(graph *ModuleGraph) (string, error) {
	code, err := c.Render(graph)
	if err != nil {
		return "", err
	}
	return c.write(code)
}

func (c *Compiler) write(code string) (string, error) {
	out := c.OutputPath()
	dir := filepath.Dir(out)

	info, err := c.fs.Stat(dir)
	if err != nil {
		return "", &BuildError{Phase: PhaseEmit, File: dir, Kind: ErrIO, Err: fmt.Errorf("output directory: %w", err)}
	}
	if !info.IsDir() {
		return "", &BuildError{Phase: PhaseEmit, File: dir, Kind: ErrIO, Err: errors.New("output path is not a directory")}
	}

	if err := afero.WriteFile(c.fs, out, []byte(code), 0o644); err != nil {
		return "", &BuildError{Phase: PhaseEmit, File: out, Kind: ErrIO, Err: err}
	}
	return out, nil
}
