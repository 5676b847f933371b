package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

// HandlerFunc is the signature of a target function. It receives the
// merged argument bag and returns a response value or an error.
type HandlerFunc func(args Args) (any, error)

// RequestHandler binds one classification record to one target function.
// Both fields are write-once at registration, so a single instance serves
// concurrent requests without locking.
type RequestHandler struct {
	name    string
	fn      HandlerFunc
	binding binding
	logger  *slog.Logger
}

func newRequestHandler(name string, fn HandlerFunc, b binding, logger *slog.Logger) *RequestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestHandler{name: name, fn: fn, binding: b, logger: logger}
}

// Handle dispatches one request to the target function: it builds the
// argument bag from the request body or query string, merges path
// variables over it, injects the raw request if declared, validates
// required arguments, invokes the function and shapes the result.
func (h *RequestHandler) Handle(c echo.Context) error {
	var args Args

	if h.binding.needsArgs() {
		bag, err := h.extract(c)
		if err != nil {
			return err
		}
		args = bag
	}

	pathNames := c.ParamNames()
	pathValues := c.ParamValues()
	if args == nil {
		args = make(Args, len(pathNames)+1)
		for i, name := range pathNames {
			args[name] = pathValues[i]
		}
	} else {
		if !h.binding.hasVarKw && len(h.binding.named) > 0 {
			// The function cannot absorb extra keys, keep only the
			// declared named parameters.
			kept := make(Args, len(h.binding.named))
			for _, name := range h.binding.named {
				if v, ok := args[name]; ok {
					kept[name] = v
				}
			}
			args = kept
		}
		// Path variables win over body/query data on conflict.
		for i, name := range pathNames {
			if _, ok := args[name]; ok {
				h.logger.Warn("duplicate argument name in path variables and request data",
					"handler", h.name, "name", name)
			}
			args[name] = pathValues[i]
		}
	}

	if h.binding.hasRequest {
		args[RequestParamName] = c.Request()
	}

	for name := range h.binding.required {
		if _, ok := args[name]; !ok {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Missing argument: %s", name))
		}
	}

	h.logger.Debug("call handler", "handler", h.name, "args", args)

	result, err := h.fn(args)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return c.JSON(http.StatusOK, apiErr)
		}
		return err
	}
	return writeResult(c, result)
}

// extract builds the argument bag from the request. POST decodes the body
// according to its content type; GET parses the query string with the
// first value winning for repeated keys. A nil bag with a nil error means
// the request carried no named data.
func (h *RequestHandler) extract(c echo.Context) (Args, error) {
	req := c.Request()
	switch req.Method {
	case http.MethodPost:
		ct := req.Header.Get(echo.HeaderContentType)
		if ct == "" {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "Missing Content-Type")
		}
		switch lower := strings.ToLower(ct); {
		case strings.HasPrefix(lower, echo.MIMEApplicationJSON):
			var body any
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON body")
			}
			obj, ok := body.(map[string]any)
			if !ok {
				return nil, echo.NewHTTPError(http.StatusBadRequest, "JSON body must be object")
			}
			return Args(obj), nil
		case strings.HasPrefix(lower, echo.MIMEApplicationForm), strings.HasPrefix(lower, echo.MIMEMultipartForm):
			form, err := c.FormParams()
			if err != nil {
				return nil, echo.NewHTTPError(http.StatusBadRequest, "Malformed form body")
			}
			args := make(Args, len(form))
			for name, values := range form {
				if len(values) > 0 {
					args[name] = values[0]
				}
			}
			return args, nil
		default:
			return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Unsupported Content-Type: %s", ct))
		}
	case http.MethodGet:
		qs := c.QueryString()
		if qs == "" {
			return nil, nil
		}
		values, err := url.ParseQuery(qs)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "Malformed query string")
		}
		args := make(Args, len(values))
		for name, vs := range values {
			if len(vs) > 0 {
				args[name] = vs[0]
			}
		}
		return args, nil
	}
	return nil, nil
}
