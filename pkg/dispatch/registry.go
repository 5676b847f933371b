package dispatch

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Route declares one registrable handler: the HTTP method and path pattern
// it is tagged with, its declared parameter list and the target function.
type Route struct {
	// Method is the HTTP method; only GET and POST are supported.
	Method string

	// Path is the path pattern with brace variables (e.g., "/user/{id}").
	Path string

	// Name is the handler function name, used in logs and diagnostics.
	Name string

	// Params is the handler's declared parameter list.
	Params []Param

	// Handler is the target function.
	Handler HandlerFunc
}

// RouteInfo contains metadata about a registered route.
type RouteInfo struct {
	// Method is the HTTP method (GET or POST).
	Method string

	// Path is the original path pattern with brace variables.
	Path string

	// EchoPath is the echo-compatible route path (e.g., "/user/:id").
	EchoPath string

	// Name is the handler function name.
	Name string

	// Params is the handler's declared parameter list.
	Params []Param

	handler *RequestHandler
}

// RouteRegistry holds the bound routes of an application. Registration
// must finish before the server starts accepting requests; the registry is
// not safe for concurrent mutation.
type RouteRegistry interface {
	// Register classifies the route's parameter list, binds it to the
	// handler function and stores the route. It fails on a missing
	// method/path, an unsupported method, a malformed path pattern or a
	// parameter list that violates the request-parameter ordering rule.
	Register(route Route) error

	// Routes returns all registered routes.
	Routes() []RouteInfo

	// Apply registers every stored route with an echo instance.
	Apply(e *echo.Echo)
}

// inMemoryRouteRegistry implements RouteRegistry
type inMemoryRouteRegistry struct {
	logger *slog.Logger
	routes []RouteInfo
}

// NewRegistry creates a new in-memory route registry. A nil logger means
// slog.Default.
func NewRegistry(logger *slog.Logger) RouteRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &inMemoryRouteRegistry{logger: logger}
}

// DefaultRegistry is the global route registry.
var DefaultRegistry = NewRegistry(nil)

func (r *inMemoryRouteRegistry) Register(route Route) error {
	if route.Method == "" || route.Path == "" {
		return fmt.Errorf("route %q: method and path are required", route.Name)
	}
	if route.Method != http.MethodGet && route.Method != http.MethodPost {
		return fmt.Errorf("route %q: unsupported method %q", route.Name, route.Method)
	}
	if route.Handler == nil {
		return fmt.Errorf("route %q: handler function is required", route.Name)
	}
	if err := ValidatePath(route.Path); err != nil {
		return fmt.Errorf("route %q: %w", route.Name, err)
	}
	b, err := classify(route.Params)
	if err != nil {
		return fmt.Errorf("route %q: %w", route.Name, err)
	}

	r.routes = append(r.routes, RouteInfo{
		Method:   route.Method,
		Path:     route.Path,
		EchoPath: PathToEcho(route.Path),
		Name:     route.Name,
		Params:   route.Params,
		handler:  newRequestHandler(route.Name, route.Handler, b, r.logger),
	})
	r.logger.Info("add route",
		"method", route.Method, "path", route.Path, "handler", route.Name)
	return nil
}

func (r *inMemoryRouteRegistry) Routes() []RouteInfo {
	return append([]RouteInfo(nil), r.routes...) // Return a copy
}

func (r *inMemoryRouteRegistry) Apply(e *echo.Echo) {
	for _, route := range r.routes {
		e.Add(route.Method, route.EchoPath, route.handler.Handle)
	}
}

// Register adds a route to the default registry.
func Register(route Route) error {
	return DefaultRegistry.Register(route)
}

// MustRegister adds a route to the default registry and panics on a
// configuration error. Registration errors are fatal at startup; the
// process must not serve with an invalid route table.
func MustRegister(route Route) {
	if err := Register(route); err != nil {
		panic(err)
	}
}

// Routes returns all routes registered with the default registry.
func Routes() []RouteInfo {
	return DefaultRegistry.Routes()
}
