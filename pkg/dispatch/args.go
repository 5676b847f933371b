package dispatch

import (
	"net/http"
	"strconv"
)

// Args is the argument bag passed to a handler function: a request-local
// mapping from parameter name to value, built fresh for every request and
// never shared between requests.
type Args map[string]any

// Get returns the raw value for key, or nil if absent.
func (a Args) Get(key string) any {
	return a[key]
}

// Has reports whether key is present in the bag.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// String returns the value for key as a string, or empty string when the
// key is absent or not a string. Path variables and form/query fields are
// always strings.
func (a Args) String(key string) string {
	v, _ := a[key].(string)
	return v
}

// StringDefault returns the string value for key, or defaultValue when the
// key is absent or empty.
func (a Args) StringDefault(key, defaultValue string) string {
	if v := a.String(key); v != "" {
		return v
	}
	return defaultValue
}

// Int returns the value for key as an integer, or 0 when the key is absent
// or not numeric. JSON numbers decode as float64 and are truncated.
func (a Args) Int(key string) int {
	switch v := a[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return 0
}

// IntDefault returns the integer value for key, or defaultValue when the
// key is absent or not numeric.
func (a Args) IntDefault(key string, defaultValue int) int {
	switch v := a[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

// Request returns the injected raw request, or nil when the handler did
// not declare a request parameter.
func (a Args) Request() *http.Request {
	r, _ := a[RequestParamName].(*http.Request)
	return r
}

// Keys returns all argument names in the bag.
func (a Args) Keys() []string {
	keys := make([]string, 0, len(a))
	for key := range a {
		keys = append(keys, key)
	}
	return keys
}
