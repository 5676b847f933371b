// Package scanner discovers handler functions tagged with a
// //dispatch:route directive in Go source packages.
package scanner

import (
	"fmt"
	"go/ast"
	"go/token"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/hexweb/dispatch/internal/annotations"
)

// GeneratedFileName is the file the generator emits per package. The
// scanner skips it so regeneration is idempotent.
const GeneratedFileName = "dispatch_gen.go"

// HandlerDecl is a discovered handler function together with its parsed
// route directive.
type HandlerDecl struct {
	FuncName  string
	Directive *annotations.RouteDirective
	Pos       token.Position
}

// PackageRoutes collects the handlers of one package.
type PackageRoutes struct {
	Name     string // package name
	PkgPath  string // import path
	Dir      string // directory on disk
	Handlers []HandlerDecl
}

// ScanFile inspects a parsed file for top-level functions whose doc
// comment carries a route directive. A malformed directive is a
// configuration error and fails the scan.
func ScanFile(fset *token.FileSet, file *ast.File) ([]HandlerDecl, error) {
	var handlers []HandlerDecl
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Doc == nil || fn.Recv != nil {
			continue
		}
		for _, comment := range fn.Doc.List {
			if !annotations.IsDirective(comment.Text) {
				continue
			}
			pos := fset.Position(comment.Pos())
			directive, err := annotations.Parse(comment.Text)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", pos, err)
			}
			if err := checkSignature(fn); err != nil {
				return nil, fmt.Errorf("%s: %w", fset.Position(fn.Pos()), err)
			}
			handlers = append(handlers, HandlerDecl{
				FuncName:  fn.Name.Name,
				Directive: directive,
				Pos:       pos,
			})
		}
	}
	return handlers, nil
}

// checkSignature verifies the shape of an annotated function. The full
// type check happens when the generated file compiles; this catches the
// common mistakes early with a source position.
func checkSignature(fn *ast.FuncDecl) error {
	params := fn.Type.Params
	results := fn.Type.Results
	if params == nil || len(params.List) != 1 || results == nil || len(results.List) != 2 {
		return fmt.Errorf("handler %s must have signature func(dispatch.Args) (any, error)", fn.Name.Name)
	}
	return nil
}

// ScanPackages loads the given package patterns and collects the annotated
// handlers of each package that has any.
func ScanPackages(patterns ...string) ([]PackageRoutes, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		return nil, fmt.Errorf("packages contain errors")
	}

	var result []PackageRoutes
	for _, pkg := range pkgs {
		var handlers []HandlerDecl
		for _, file := range pkg.Syntax {
			name := pkg.Fset.Position(file.Pos()).Filename
			if strings.HasSuffix(name, GeneratedFileName) {
				continue
			}
			found, err := ScanFile(pkg.Fset, file)
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, found...)
		}
		if len(handlers) == 0 {
			continue
		}
		dir := ""
		if len(pkg.GoFiles) > 0 {
			dir = filepath.Dir(pkg.GoFiles[0])
		}
		result = append(result, PackageRoutes{
			Name:     pkg.Name,
			PkgPath:  pkg.PkgPath,
			Dir:      dir,
			Handlers: handlers,
		})
	}
	return result, nil
}
