package dispatch

import "fmt"

// ParamKind describes how a handler parameter is supplied.
type ParamKind int

const (
	// Positional parameters are filled by name from the merged argument
	// bag, usually from a path variable.
	Positional ParamKind = iota

	// Named parameters are keyword-style: supplied by name from the
	// request body, query string, or a path variable.
	Named

	// VarKeyword absorbs any extra named arguments not otherwise declared.
	VarKeyword
)

// RequestParamName is the reserved parameter name that receives the raw
// *http.Request at dispatch time.
const RequestParamName = "request"

// Param declares a single parameter of a handler function. A handler's
// full parameter list is declared once at registration; nothing is
// introspected per request.
type Param struct {
	Name       string
	Kind       ParamKind
	HasDefault bool
}

// Pos declares a positional parameter.
func Pos(name string) Param {
	return Param{Name: name, Kind: Positional}
}

// Required declares a keyword-style parameter with no default value.
func Required(name string) Param {
	return Param{Name: name, Kind: Named}
}

// Optional declares a keyword-style parameter with a default value.
func Optional(name string) Param {
	return Param{Name: name, Kind: Named, HasDefault: true}
}

// VarKw declares the variadic keyword parameter that absorbs any extra
// named arguments.
func VarKw(name string) Param {
	return Param{Name: name, Kind: VarKeyword}
}

// Request declares the request-object parameter.
func Request() Param {
	return Param{Name: RequestParamName, Kind: Positional}
}

// binding is the classification record for one handler. It is computed
// once at registration and never recomputed; the handler reads it
// concurrently without locking.
type binding struct {
	hasRequest bool
	hasVarKw   bool
	named      []string
	required   map[string]struct{}
}

// classify inspects a declared parameter list and produces the binding
// record. The request parameter must be the last positional parameter:
// anything declared after it has to be keyword-style or the variadic
// keyword parameter.
func classify(params []Param) (binding, error) {
	b := binding{required: make(map[string]struct{})}
	seenRequest := false
	for _, p := range params {
		if p.Name == RequestParamName {
			b.hasRequest = true
			seenRequest = true
			continue
		}
		if seenRequest && p.Kind == Positional {
			return binding{}, fmt.Errorf("request parameter must be the last positional parameter, found %q after it", p.Name)
		}
		switch p.Kind {
		case Named:
			b.named = append(b.named, p.Name)
			if !p.HasDefault {
				b.required[p.Name] = struct{}{}
			}
		case VarKeyword:
			b.hasVarKw = true
		}
	}
	return b, nil
}

// needsArgs reports whether the handler wants any named data beyond path
// variables, i.e. whether body/query decoding should happen at all.
func (b binding) needsArgs() bool {
	return b.hasVarKw || len(b.named) > 0 || len(b.required) > 0
}
