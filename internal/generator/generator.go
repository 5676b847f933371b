// Package generator emits the per-package route registration file from
// scanned handler declarations.
package generator

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"text/template"

	"golang.org/x/mod/modfile"

	"github.com/hexweb/dispatch/internal/scanner"
	"github.com/hexweb/dispatch/pkg/dispatch"
)

// DispatchImport is the import path of the dispatch runtime package.
const DispatchImport = "github.com/hexweb/dispatch/pkg/dispatch"

var fileTemplate = template.Must(template.New("dispatch_gen").Funcs(template.FuncMap{
	"paramExpr": paramExpr,
}).Parse(`// Code generated by dispatch-gen. DO NOT EDIT.

package {{.Name}}

import (
	"{{.DispatchImport}}"
)

// RegisterRoutes adds every annotated handler in this package to reg.
func RegisterRoutes(reg dispatch.RouteRegistry) error {
	routes := []dispatch.Route{
{{- range .Handlers}}
		{
			Method: {{printf "%q" .Directive.Method}},
			Path:   {{printf "%q" .Directive.Path}},
			Name:   {{printf "%q" .FuncName}},
{{- if .Directive.Params}}
			Params: []dispatch.Param{ {{- range $i, $p := .Directive.Params}}{{if $i}}, {{end}}{{paramExpr $p}}{{end}} },
{{- end}}
			Handler: {{.FuncName}},
		},
{{- end}}
	}
	for _, route := range routes {
		if err := reg.Register(route); err != nil {
			return err
		}
	}
	return nil
}
`))

type templateData struct {
	scanner.PackageRoutes
	DispatchImport string
}

// Generate renders the registration file for one scanned package and
// gofmt-formats it.
func Generate(pkg scanner.PackageRoutes) ([]byte, error) {
	var buf bytes.Buffer
	data := templateData{PackageRoutes: pkg, DispatchImport: DispatchImport}
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render registration file for %s: %w", pkg.PkgPath, err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format registration file for %s: %w", pkg.PkgPath, err)
	}
	return src, nil
}

// WriteFile generates the registration file and writes it into the
// package directory, returning the written path.
func WriteFile(pkg scanner.PackageRoutes) (string, error) {
	src, err := Generate(pkg)
	if err != nil {
		return "", err
	}
	path := filepath.Join(pkg.Dir, scanner.GeneratedFileName)
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// paramExpr renders a parameter declaration as its constructor call.
func paramExpr(p dispatch.Param) string {
	switch {
	case p.Name == dispatch.RequestParamName:
		return "dispatch.Request()"
	case p.Kind == dispatch.VarKeyword:
		return fmt.Sprintf("dispatch.VarKw(%q)", p.Name)
	case p.Kind == dispatch.Named && p.HasDefault:
		return fmt.Sprintf("dispatch.Optional(%q)", p.Name)
	case p.Kind == dispatch.Named:
		return fmt.Sprintf("dispatch.Required(%q)", p.Name)
	default:
		return fmt.Sprintf("dispatch.Pos(%q)", p.Name)
	}
}

// ModulePath finds the enclosing go.mod of dir and returns its module
// path. Used for diagnostics and to confirm a scanned package belongs to
// the module being generated for.
func ModulePath(dir string) (string, error) {
	current := filepath.Clean(dir)
	for {
		goModPath := filepath.Join(current, "go.mod")
		if content, err := os.ReadFile(goModPath); err == nil {
			modFile, err := modfile.Parse(goModPath, content, nil)
			if err != nil {
				return "", fmt.Errorf("parse %s: %w", goModPath, err)
			}
			if modFile.Module == nil {
				return "", fmt.Errorf("no module declaration in %s", goModPath)
			}
			return modFile.Module.Mod.Path, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("go.mod not found above %s", dir)
		}
		current = parent
	}
}
