// Package dispatch routes HTTP requests to plain functions. A handler is
// an ordinary function taking an argument bag; it is registered under an
// HTTP method and a path pattern together with a declared parameter list.
// At request time the dispatcher decodes the body or query string, merges
// path variables over it, validates required arguments and invokes the
// function, shaping its return value or application error into the
// response. The transport is echo; registration happens entirely before
// the server starts serving.
package dispatch
