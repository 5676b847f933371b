// Package annotations parses //dispatch:route directive comments into
// route declarations. The directive syntax is
//
//	//dispatch:route METHOD /path (params)
//
// where METHOD is GET or POST, the path may contain {name} variables, and
// the optional parameter list follows the target function's declared
// parameters: a bare * separates positional from keyword-only parameters,
// a ? suffix marks a parameter with a default value, **name declares the
// variadic keyword parameter and request names the request-object
// parameter. Example:
//
//	//dispatch:route POST /post/{id} (id, *, title, content?)
package annotations

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/hexweb/dispatch/pkg/dispatch"
)

// Prefix is the directive marker inside a comment.
const Prefix = "dispatch:route"

// RouteDirective is the parsed form of a //dispatch:route comment.
type RouteDirective struct {
	Method string
	Path   string
	Params []dispatch.Param
	Raw    string
}

// directiveAST is the participle grammar for everything after the prefix.
type directiveAST struct {
	Method string     `parser:"@Ident"`
	Path   string     `parser:"@Path"`
	Params []paramAST `parser:"('(' (@@ (',' @@)*)? ')')?"`
}

type paramAST struct {
	KeywordSep bool   `parser:"  @Star"`
	VarKwName  string `parser:"| DStar @Ident"`
	Name       string `parser:"| @Ident"`
	Optional   bool   `parser:"@Question?"`
}

var directiveLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Path", Pattern: `/[^\s(),]*`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "DStar", Pattern: `\*\*`},
	{Name: "Star", Pattern: `\*`},
	{Name: "Question", Pattern: `\?`},
	{Name: "Punct", Pattern: `[(),]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var directiveParser = participle.MustBuild[directiveAST](
	participle.Lexer(directiveLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// IsDirective reports whether a comment line carries a route directive.
func IsDirective(comment string) bool {
	return strings.HasPrefix(stripComment(comment), Prefix)
}

// Parse parses a directive comment into a RouteDirective.
func Parse(comment string) (*RouteDirective, error) {
	text := stripComment(comment)
	if !strings.HasPrefix(text, Prefix) {
		return nil, fmt.Errorf("not a %s directive: %s", Prefix, comment)
	}
	rest := strings.TrimSpace(strings.TrimPrefix(text, Prefix))
	if rest == "" {
		return nil, fmt.Errorf("directive is missing its method and path: %s", comment)
	}

	ast, err := directiveParser.ParseString("", rest)
	if err != nil {
		return nil, fmt.Errorf("malformed directive %q: %w", comment, err)
	}

	if ast.Method != "GET" && ast.Method != "POST" {
		return nil, fmt.Errorf("unsupported method %q in directive %q", ast.Method, comment)
	}
	if err := dispatch.ValidatePath(ast.Path); err != nil {
		return nil, fmt.Errorf("directive %q: %w", comment, err)
	}

	params, err := convertParams(ast.Params)
	if err != nil {
		return nil, fmt.Errorf("directive %q: %w", comment, err)
	}

	return &RouteDirective{
		Method: ast.Method,
		Path:   ast.Path,
		Params: params,
		Raw:    comment,
	}, nil
}

// convertParams turns the parsed parameter list into dispatch parameter
// declarations. Parameters before the bare * are positional; parameters
// after it are keyword-style, optional when suffixed with ?.
func convertParams(decls []paramAST) ([]dispatch.Param, error) {
	var params []dispatch.Param
	seen := make(map[string]struct{})
	afterSep := false
	haveVarKw := false

	for _, decl := range decls {
		switch {
		case decl.KeywordSep:
			if afterSep {
				return nil, fmt.Errorf("duplicate * separator in parameter list")
			}
			afterSep = true
		case decl.VarKwName != "":
			if haveVarKw {
				return nil, fmt.Errorf("duplicate ** parameter %q", decl.VarKwName)
			}
			haveVarKw = true
			params = append(params, dispatch.VarKw(decl.VarKwName))
		default:
			if _, dup := seen[decl.Name]; dup {
				return nil, fmt.Errorf("duplicate parameter %q", decl.Name)
			}
			seen[decl.Name] = struct{}{}
			switch {
			case decl.Name == dispatch.RequestParamName:
				params = append(params, dispatch.Request())
			case afterSep && decl.Optional:
				params = append(params, dispatch.Optional(decl.Name))
			case afterSep:
				params = append(params, dispatch.Required(decl.Name))
			default:
				p := dispatch.Pos(decl.Name)
				p.HasDefault = decl.Optional
				params = append(params, p)
			}
		}
	}
	return params, nil
}

func stripComment(comment string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(comment), "//"))
}
