// Package middleware provides the HTTP middleware applied to every module:
// request correlation, panic recovery, access logging, CORS, and body limits.
package middleware

import "net/http"

// Func wraps a handler with cross-cutting behavior.
type Func func(http.Handler) http.Handler

// Stack is an ordered list of middleware. The first entry added is the
// outermost wrapper and so sees the request first.
type Stack []Func

// Use appends fns to the stack.
func (s *Stack) Use(fns ...Func) {
	*s = append(*s, fns...)
}

// Apply wraps handler with every middleware in the stack.
func (s Stack) Apply(handler http.Handler) http.Handler {
	for i := len(s) - 1; i >= 0; i-- {
		handler = s[i](handler)
	}
	return handler
}
