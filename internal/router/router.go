// Package router is a small declarative route table with positional
// parameter extraction. It performs no I/O; a transport adapter pulls the
// method and path off the request and calls Match.
package router

import "strings"

// ParamPrefix marks a parameter segment in a route pattern.
const ParamPrefix = ":"

// Route is one immutable table entry.
type Route[H any] struct {
	Method  string
	Pattern string
	Handler H

	segments []string
}

// Table holds routes in registration order. First match wins.
// A Table is built once at startup and must not be mutated while serving.
type Table[H any] struct {
	routes []Route[H]
}

func New[H any]() *Table[H] {
	return &Table[H]{}
}

// Register appends a route. Method comparison is case-sensitive; callers
// use upper-case HTTP method names.
func (t *Table[H]) Register(method, pattern string, handler H) {
	t.routes = append(t.routes, Route[H]{
		Method:   method,
		Pattern:  pattern,
		Handler:  handler,
		segments: strings.Split(pattern, "/"),
	})
}

// Match returns the handler of the first route matching method and path,
// together with the parameter values in left-to-right order. ok is false
// when nothing matches; that is the ordinary not-found signal.
func (t *Table[H]) Match(method, path string) (route Route[H], params []string, ok bool) {
	pathSegments := strings.Split(Normalize(path), "/")

	for _, r := range t.routes {
		if r.Method != method {
			continue
		}
		if params, ok := matchSegments(r.segments, pathSegments); ok {
			return r, params, true
		}
	}

	return Route[H]{}, nil, false
}

// Routes returns a copy of the table in registration order.
func (t *Table[H]) Routes() []Route[H] {
	out := make([]Route[H], len(t.routes))
	copy(out, t.routes)
	return out
}

// Normalize strips trailing slashes so "/api/tweets/" and "/api/tweets"
// address the same route. The root path is left alone.
func Normalize(path string) string {
	if path == "" {
		return "/"
	}
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		return "/"
	}
	return trimmed
}

func matchSegments(pattern, path []string) ([]string, bool) {
	if len(pattern) != len(path) {
		return nil, false
	}

	params := make([]string, 0, len(pattern))
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ParamPrefix) {
			params = append(params, path[i])
			continue
		}
		if seg != path[i] {
			return nil, false
		}
	}

	return params, true
}
