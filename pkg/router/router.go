// Package router is a small method-aware mux with trailing and per-segment wildcards.
package router

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

type route struct {
	method  string
	pattern string
	handler HandlerFunc
}

// Router matches exact paths first, then wildcard patterns in registration order.
// Register more specific wildcard routes before generic ones.
type Router struct {
	routes   map[string]HandlerFunc // key = METHOD:PATH
	paths    map[string]bool
	wildcard []route
	mounts   []route
	logger   *slog.Logger
}

func New(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		routes: make(map[string]HandlerFunc),
		paths:  make(map[string]bool),
		logger: logger,
	}
}

// ServeHTTP dispatches the request and logs one line per request.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	r.dispatch(lrw, req)

	level := slog.LevelInfo
	if lrw.statusCode >= 500 {
		level = slog.LevelError
	}
	r.logger.Log(req.Context(), level, "http request",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", lrw.statusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	path := req.URL.Path
	if h, ok := r.routes[req.Method+":"+path]; ok {
		h(w, req)
		return
	}

	methodMismatch := r.paths[path]
	for _, rt := range r.wildcard {
		if !matchWildcardRoute(path, rt.pattern) {
			continue
		}
		if rt.method == req.Method {
			rt.handler(w, req)
			return
		}
		methodMismatch = true
	}
	for _, m := range r.mounts {
		if strings.HasPrefix(path, m.pattern) {
			m.handler(w, req)
			return
		}
	}

	if methodMismatch {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	http.Error(w, "Not Found", http.StatusNotFound)
}

// matchWildcardRoute checks if a request path matches a wildcard route pattern.
// A trailing "*" matches one or more remaining segments; an inner "*" matches exactly one.
func matchWildcardRoute(requestPath, routePattern string) bool {
	requestSegments := strings.Split(strings.Trim(requestPath, "/"), "/")
	routeSegments := strings.Split(strings.Trim(routePattern, "/"), "/")

	last := len(routeSegments) - 1
	if routeSegments[last] == "*" {
		if len(requestSegments) < len(routeSegments) || requestSegments[last] == "" {
			return false
		}
		return matchSegments(requestSegments[:last], routeSegments[:last])
	}

	if len(requestSegments) != len(routeSegments) {
		return false
	}
	return matchSegments(requestSegments, routeSegments)
}

func matchSegments(request, route []string) bool {
	for i, seg := range route {
		if seg == "*" {
			if request[i] == "" {
				return false
			}
			continue
		}
		if request[i] != seg {
			return false
		}
	}
	return true
}

// Segment returns the n-th path segment (0-based, leading slash ignored).
func Segment(req *http.Request, n int) string {
	segs := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	if n < 0 || n >= len(segs) {
		return ""
	}
	return segs[n]
}

func (r *Router) register(method, path string, handler HandlerFunc) {
	if strings.Contains(path, "*") {
		r.wildcard = append(r.wildcard, route{method: method, pattern: path, handler: handler})
		return
	}
	r.routes[method+":"+path] = handler
	r.paths[path] = true
}

func (r *Router) GET(path string, handler HandlerFunc)    { r.register(http.MethodGet, path, handler) }
func (r *Router) POST(path string, handler HandlerFunc)   { r.register(http.MethodPost, path, handler) }
func (r *Router) PUT(path string, handler HandlerFunc)    { r.register(http.MethodPut, path, handler) }
func (r *Router) DELETE(path string, handler HandlerFunc) { r.register(http.MethodDelete, path, handler) }

// Mount serves every method under prefix with h. Mounts are tried after all routes.
func (r *Router) Mount(prefix string, h http.Handler) {
	r.mounts = append(r.mounts, route{pattern: prefix, handler: h.ServeHTTP})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}
