package dispatch

import (
	"fmt"
	"regexp"
	"strings"
)

// Routes are declared with named path variables in brace syntax and
// converted to echo's colon syntax at registration:
//
//	/user/{id}            -> /user/:id
//	/blog/{tag}/post/{id} -> /blog/:tag/post/:id

var pathVarRegex = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)
var braceRegex = regexp.MustCompile(`\{[^}]*\}`)

// PathToEcho converts brace path syntax to echo route syntax.
func PathToEcho(path string) string {
	return pathVarRegex.ReplaceAllString(path, ":$1")
}

// PathVars extracts the path-variable names declared in a path pattern, in
// order of appearance.
func PathVars(path string) []string {
	matches := pathVarRegex.FindAllStringSubmatch(path, -1)
	vars := make([]string, 0, len(matches))
	for _, match := range matches {
		vars = append(vars, match[1])
	}
	return vars
}

// ValidatePath checks that a path pattern is well formed: it must start
// with a slash and every brace pair must hold a valid variable name.
func ValidatePath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("path must start with /: %s", path)
	}
	if strings.Count(path, "{") != strings.Count(path, "}") {
		return fmt.Errorf("mismatched braces in path: %s", path)
	}
	all := braceRegex.FindAllString(path, -1)
	valid := pathVarRegex.FindAllString(path, -1)
	if len(all) != len(valid) {
		return fmt.Errorf("invalid path variable syntax in path: %s (use {name})", path)
	}
	return nil
}
