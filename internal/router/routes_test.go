package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutesURLFor(t *testing.T) {
	routes := NewRoutes()
	routes.Register(RouteUsers, `/user`)
	routes.Register(RouteUserByID, `/user/{user_id:[0-9]+}`)
	routes.Register("nested", `/a/{first}/b/{second}`)
	routes.Register("quantifier", `/code/{code:[0-9]{3}}/{slug}`)

	tests := []struct {
		name     string
		route    string
		params   map[string]string
		expected string
		err      error
	}{
		{
			name:     "plain path",
			route:    RouteUsers,
			expected: "/user",
		},
		{
			name:     "query parameters",
			route:    RouteUsers,
			params:   map[string]string{"id": "42"},
			expected: "/user?id=42",
		},
		{
			name:     "placeholder with regexp",
			route:    RouteUserByID,
			params:   map[string]string{"user_id": "42", "extra": "x y"},
			expected: "/user/42?extra=x+y",
		},
		{
			name:     "several placeholders",
			route:    "nested",
			params:   map[string]string{"first": "1", "second": "a/b"},
			expected: "/a/1/b/a%2Fb",
		},
		{
			name:     "regexp with brace quantifier",
			route:    "quantifier",
			params:   map[string]string{"code": "404", "slug": "x"},
			expected: "/code/404/x",
		},
		{
			name:  "missing placeholder",
			route: RouteUserByID,
			err:   ErrMissingRouteArg,
		},
		{
			name:  "unknown route",
			route: "nope",
			err:   ErrUnknownRoute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := routes.URLFor(tt.route, tt.params)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRoutesRegisterReturnsPattern(t *testing.T) {
	routes := NewRoutes()

	assert.Equal(t, `/user/{user_id:[0-9]+}`, routes.Register(RouteUserByID, `/user/{user_id:[0-9]+}`))
}
