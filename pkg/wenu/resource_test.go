package wenu_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/wenu-client/internal/constants"
	"github.com/fivetwenty-io/wenu-client/pkg/wenu"
)

var errTransport = errors.New("connection refused")

func TestNewResource(t *testing.T) {
	t.Parallel()

	resource := wenu.NewResource(wenu.ResourceDescriptor{Title: "sensor_data", Href: "sensordata"}, newFakeVerbs())

	assert.Equal(t, "SensorData", resource.Name())
	assert.Equal(t, "sensor_data", resource.Title())
	assert.Equal(t, "sensordata", resource.Link())
	assert.False(t, resource.Indexable())
	assert.Equal(t, "SensorData (sensordata)", resource.String())
	assert.Equal(t, wenu.ResourceDescriptor{Title: "sensor_data", Href: "sensordata"}, resource.Descriptor())
}

func TestResource_List(t *testing.T) {
	t.Parallel()

	t.Run("unwraps items", func(t *testing.T) {
		t.Parallel()

		verbs := newFakeVerbs()
		verbs.documents["book?max_results=2"] = wenu.Document{
			"_items": []interface{}{
				map[string]interface{}{"_id": "1", "title": "Dune"},
				map[string]interface{}{"_id": "2", "title": "Solaris"},
			},
		}

		books, err := bookResource(verbs).List(context.Background(), "max_results=2")
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.True(t, books[0].Loaded())

		title, err := books[1].Field("title")
		require.NoError(t, err)
		assert.Equal(t, "Solaris", title)
	})

	t.Run("missing envelope", func(t *testing.T) {
		t.Parallel()

		verbs := newFakeVerbs()
		verbs.documents["book"] = wenu.Document{"title": "not a collection"}

		_, err := bookResource(verbs).List(context.Background(), "")
		require.ErrorIs(t, err, wenu.ErrMalformedEnvelope)
	})

	t.Run("row is not an object", func(t *testing.T) {
		t.Parallel()

		verbs := newFakeVerbs()
		verbs.documents["book"] = wenu.Document{"_items": []interface{}{"oops"}}

		_, err := bookResource(verbs).List(context.Background(), "")
		require.ErrorIs(t, err, wenu.ErrMalformedRow)
	})

	t.Run("transport failure", func(t *testing.T) {
		t.Parallel()

		verbs := newFakeVerbs()
		verbs.err = errTransport

		_, err := bookResource(verbs).List(context.Background(), "")
		require.ErrorIs(t, err, errTransport)
	})
}

func TestResource_ListAll(t *testing.T) {
	t.Parallel()

	verbs := newFakeVerbs()
	verbs.documents["book"] = wenu.Document{
		"_items": []interface{}{map[string]interface{}{"_id": "1"}},
		"_links": map[string]interface{}{"next": map[string]interface{}{"href": "/book?page=2"}},
	}
	verbs.documents["book?page=2"] = wenu.Document{
		"_items": []interface{}{map[string]interface{}{"_id": "2"}},
		"_links": map[string]interface{}{},
	}

	books, err := bookResource(verbs).ListAll(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, []string{"book", "book?page=2"}, []string{verbs.calls[0].route, verbs.calls[1].route})
}

func TestResource_ListAllPageLimit(t *testing.T) {
	t.Parallel()

	verbs := newFakeVerbs()
	verbs.documents["book"] = wenu.Document{
		"_items": []interface{}{map[string]interface{}{"_id": "1"}},
		"_links": map[string]interface{}{"next": map[string]interface{}{"href": "/book"}},
	}

	books, err := bookResource(verbs).ListAll(context.Background(), "")
	require.ErrorIs(t, err, wenu.ErrPageLimit)
	assert.Nil(t, books)
	assert.Len(t, verbs.calls, constants.MaxPages)
}

func TestResource_GetByID(t *testing.T) {
	t.Parallel()

	t.Run("fetches item route", func(t *testing.T) {
		t.Parallel()

		verbs := newFakeVerbs()
		verbs.documents["book/42?embedded=x"] = wenu.Document{"_id": "42", "title": "Dune"}

		book, err := bookResource(verbs).GetByID(context.Background(), "42", "embedded=x")
		require.NoError(t, err)
		assert.True(t, book.Loaded())

		id, _ := book.ID()
		assert.Equal(t, "42", id)
	})

	t.Run("escapes the id", func(t *testing.T) {
		t.Parallel()

		verbs := newFakeVerbs()

		_, err := bookResource(verbs).GetByID(context.Background(), "a/b", "")
		require.NoError(t, err)
		assert.Equal(t, "book/a%2Fb", verbs.calls[0].route)
	})

	t.Run("not indexable", func(t *testing.T) {
		t.Parallel()

		verbs := newFakeVerbs()
		measurement := wenu.NewResource(wenu.DefaultExtraResources()[0], verbs)

		_, err := measurement.GetByID(context.Background(), "1", "")
		require.ErrorIs(t, err, wenu.ErrNotIndexable)
		assert.Empty(t, verbs.calls)
	})
}

func TestResource_Where(t *testing.T) {
	t.Parallel()

	verbs := newFakeVerbs()
	route := `book?where=%7B%22status%22%3A%22active%22%7D&max_results=10`
	verbs.documents[route] = wenu.Document{
		"_items": []interface{}{map[string]interface{}{"_id": "1", "status": "active"}},
		"_meta":  map[string]interface{}{"page": float64(1), "max_results": float64(10), "total": float64(1)},
	}

	rows := bookResource(verbs).Where(context.Background(), wenu.Fields{"status": "active"}, "max_results=10")
	assert.Empty(t, verbs.calls)

	entities, err := rows.Collect()
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, route, verbs.calls[0].route)
	assert.Equal(t, wenu.Meta{Page: 1, MaxResults: 10, Total: 1}, rows.Meta())
}

func TestResource_Embedded(t *testing.T) {
	t.Parallel()

	verbs := newFakeVerbs()

	rows := bookResource(verbs).Embedded(context.Background(), wenu.Fields{"author": 1}, "")
	assert.False(t, rows.Next())
	require.ErrorIs(t, rows.Err(), wenu.ErrMalformedEnvelope)
	assert.Equal(t, `book?embedded=%7B%22author%22%3A1%7D`, verbs.calls[0].route)
}

func TestResource_FirstWhere(t *testing.T) {
	t.Parallel()

	verbs := newFakeVerbs()
	verbs.documents[`book?where=%7B%22status%22%3A%22active%22%7D`] = wenu.Document{
		"_items": []interface{}{
			map[string]interface{}{"_id": "1"},
			map[string]interface{}{"_id": "2"},
		},
	}
	verbs.documents[`book?where=%7B%22status%22%3A%22gone%22%7D`] = wenu.Document{"_items": []interface{}{}}

	resource := bookResource(verbs)

	first, err := resource.FirstWhere(context.Background(), wenu.Fields{"status": "active"})
	require.NoError(t, err)

	id, _ := first.ID()
	assert.Equal(t, "1", id)

	none, err := resource.FirstWhere(context.Background(), wenu.Fields{"status": "gone"})
	require.NoError(t, err)
	assert.Nil(t, none)

	verbs.err = errTransport

	_, err = resource.FirstWhere(context.Background(), wenu.Fields{"status": "active"})
	require.ErrorIs(t, err, errTransport)
}
