package router

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// Route names. Handlers refer to each other only through these.
const (
	RouteError    = "error"
	RouteToken    = "token"
	RouteUsers    = "users"
	RouteUserByID = "user_by_id"
	RoutePing     = "ping"
	RouteMetrics  = "metrics"
)

var (
	ErrUnknownRoute    = errors.New("unknown route")
	ErrMissingRouteArg = errors.New("missing route parameter")
)

// Routes maps route names to chi patterns so a path literal is written once
// and URLs can be rebuilt from a name plus parameters.
type Routes struct {
	mu       sync.RWMutex
	patterns map[string]string
}

func NewRoutes() *Routes {
	return &Routes{patterns: map[string]string{}}
}

// Register records pattern under name and returns the pattern, so it can be
// passed straight to the chi registration call.
func (r *Routes) Register(name, pattern string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.patterns[name] = pattern

	return pattern
}

// URLFor builds the path for name. Parameters that match a {placeholder} in
// the pattern are substituted into the path; the rest become the query string.
func (r *Routes) URLFor(name string, params map[string]string) (string, error) {
	r.mu.RLock()
	pattern, ok := r.patterns[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}

	query := url.Values{}
	for key, value := range params {
		query.Set(key, value)
	}

	var path strings.Builder
	rest := pattern
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			path.WriteString(rest)
			break
		}
		end := closingBrace(rest, open)
		if end < 0 {
			path.WriteString(rest)
			break
		}

		path.WriteString(rest[:open])

		placeholder := rest[open+1 : end]
		if colon := strings.IndexByte(placeholder, ':'); colon >= 0 {
			placeholder = placeholder[:colon]
		}
		value, ok := params[placeholder]
		if !ok {
			return "", fmt.Errorf("%w: %q for route %q", ErrMissingRouteArg, placeholder, name)
		}
		path.WriteString(url.PathEscape(value))
		query.Del(placeholder)

		rest = rest[end+1:]
	}

	if len(query) == 0 {
		return path.String(), nil
	}

	return path.String() + "?" + query.Encode(), nil
}

// closingBrace returns the index of the '}' closing the '{' at open, counting
// nested braces such as regexp quantifiers, or -1.
func closingBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}
