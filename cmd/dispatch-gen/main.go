package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/hexweb/dispatch/internal/generator"
	"github.com/hexweb/dispatch/internal/scanner"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

func main() {
	var (
		dryRunFlag  = flag.Bool("dry-run", false, "Print generated files to stdout instead of writing them")
		verboseFlag = flag.Bool("verbose", false, "List every discovered route")
		helpFlag    = flag.Bool("help", false, "Show help information")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <package-patterns...>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "dispatch route generator\n")
		fmt.Fprintf(os.Stderr, "Scans Go packages for functions with //dispatch:route directives and\n")
		fmt.Fprintf(os.Stderr, "writes a dispatch_gen.go registration file into each package.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s ./...                # Scan everything recursively\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s ./examples/blog      # Scan one package\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dry-run ./...      # Show what would be generated\n", os.Args[0])
	}

	flag.Parse()

	if *helpFlag {
		flag.Usage()
		os.Exit(0)
	}

	patterns := flag.Args()
	if len(patterns) == 0 {
		errorColor.Fprintln(os.Stderr, "Error: at least one package pattern is required")
		fmt.Fprintln(os.Stderr)
		flag.Usage()
		os.Exit(1)
	}

	if err := run(patterns, *dryRunFlag, *verboseFlag); err != nil {
		errorColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(patterns []string, dryRun, verbose bool) error {
	pkgs, err := scanner.ScanPackages(patterns...)
	if err != nil {
		return err
	}
	if len(pkgs) == 0 {
		infoColor.Println("No annotated handlers found")
		return nil
	}

	for _, pkg := range pkgs {
		module, err := generator.ModulePath(pkg.Dir)
		if err != nil {
			return fmt.Errorf("package %s: %w", pkg.PkgPath, err)
		}

		if verbose {
			infoColor.Printf("%s (module %s)\n", pkg.PkgPath, module)
			for _, h := range pkg.Handlers {
				fmt.Printf("  %s %s => %s\n", h.Directive.Method, h.Directive.Path, h.FuncName)
			}
		}

		if dryRun {
			src, err := generator.Generate(pkg)
			if err != nil {
				return err
			}
			fmt.Printf("--- %s/%s\n%s", pkg.Dir, scanner.GeneratedFileName, src)
			continue
		}

		path, err := generator.WriteFile(pkg)
		if err != nil {
			return err
		}
		successColor.Printf("✓ %s: %d routes => %s\n", pkg.PkgPath, len(pkg.Handlers), path)
	}
	return nil
}
