package dispatch

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response represents a handler result with an explicit HTTP status code.
// Handlers that return any other value get a 200 with the value encoded as
// JSON by the transport; returning *Response overrides the status code.
//
// Example usage:
//
//	func createPost(args dispatch.Args) (any, error) {
//	    // ... create post logic ...
//	    return dispatch.Created(post), nil
//	}
type Response struct {
	// StatusCode is the HTTP status code to return (e.g., 200, 201, 404)
	StatusCode int `json:"-"`

	// Body is the response body the transport encodes as JSON
	Body any `json:"body,omitempty"`
}

// NewResponse creates a new Response with the specified status code and body
func NewResponse(statusCode int, body any) *Response {
	return &Response{
		StatusCode: statusCode,
		Body:       body,
	}
}

// OK creates a 200 OK response with the given body
func OK(body any) *Response {
	return NewResponse(http.StatusOK, body)
}

// Created creates a 201 Created response with the given body
func Created(body any) *Response {
	return NewResponse(http.StatusCreated, body)
}

// NoContent creates a 204 No Content response
func NoContent() *Response {
	return NewResponse(http.StatusNoContent, nil)
}

// NotFound creates a 404 Not Found response with the given error message
func NotFound(message string) *Response {
	return NewResponse(http.StatusNotFound, map[string]string{"error": message})
}

// writeResult shapes a handler's return value into the transport response.
// Values pass through to the transport's JSON encoder unchanged; nil means
// no content; *Response controls the status code.
func writeResult(c echo.Context, result any) error {
	switch v := result.(type) {
	case nil:
		return c.NoContent(http.StatusNoContent)
	case *Response:
		if v.Body == nil {
			return c.NoContent(v.StatusCode)
		}
		return c.JSON(v.StatusCode, v.Body)
	default:
		return c.JSON(http.StatusOK, result)
	}
}
