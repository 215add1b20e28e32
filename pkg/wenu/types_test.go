package wenu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/wenu-client/pkg/wenu"
)

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title    string
		expected string
	}{
		{title: "book", expected: "Book"},
		{title: "Book", expected: "Book"},
		{title: "sensor_data", expected: "SensorData"},
		{title: "SENSOR_DATA", expected: "SensorData"},
		{title: "user profile", expected: "User Profile"},
		{title: "book2read", expected: "Book2Read"},
		{title: "_private", expected: "Private"},
		{title: "Measurement", expected: "Measurement"},
		{title: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, wenu.NormalizeName(tt.title))
		})
	}
}

func TestIsReserved(t *testing.T) {
	t.Parallel()

	assert.True(t, wenu.IsReserved("_id"))
	assert.True(t, wenu.IsReserved("_links"))
	assert.False(t, wenu.IsReserved("title"))
	assert.False(t, wenu.IsReserved("id_"))
}

func TestDefaultExtraResources(t *testing.T) {
	t.Parallel()

	extra := wenu.DefaultExtraResources()
	require.Len(t, extra, 1)
	assert.Equal(t, wenu.ResourceDescriptor{Title: "Measurement", Href: "measurement", Indexable: false}, extra[0])
}

func TestWhereRoute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filters  map[string]interface{}
		options  string
		expected string
	}{
		{
			name:     "single filter",
			filters:  map[string]interface{}{"status": "active"},
			expected: "book?where=%7B%22status%22%3A%22active%22%7D",
		},
		{
			name:     "options appended verbatim",
			filters:  map[string]interface{}{"n": 1},
			options:  "max_results=5&sort=-_created",
			expected: "book?where=%7B%22n%22%3A1%7D&max_results=5&sort=-_created",
		},
		{
			name:     "nil filters",
			filters:  nil,
			expected: "book?where=%7B%7D",
		},
		{
			name:     "keys are sorted",
			filters:  map[string]interface{}{"b": true, "a": "x y"},
			expected: "book?where=%7B%22a%22%3A%22x+y%22%2C%22b%22%3Atrue%7D",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			route, err := wenu.WhereRoute("book", tt.filters, tt.options)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, route)
		})
	}
}

func TestEmbeddedRoute(t *testing.T) {
	t.Parallel()

	route, err := wenu.EmbeddedRoute("book", map[string]interface{}{"author": 1}, "page=2")
	require.NoError(t, err)
	assert.Equal(t, "book?embedded=%7B%22author%22%3A1%7D&page=2", route)

	_, err = wenu.EmbeddedRoute("book", map[string]interface{}{"bad": make(chan int)}, "")
	require.Error(t, err)
}
