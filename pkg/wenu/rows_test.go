package wenu_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/wenu-client/pkg/wenu"
)

func seededRows(verbs *fakeVerbs, n int) {
	items := make([]interface{}, 0, n)
	for i := range n {
		items = append(items, map[string]interface{}{"n": float64(i)})
	}

	verbs.documents["book?where=%7B%7D"] = wenu.Document{"_items": items}
}

func TestRows_Lazy(t *testing.T) {
	t.Parallel()

	verbs := newFakeVerbs()
	seededRows(verbs, 3)

	rows := bookResource(verbs).Where(context.Background(), nil, "")
	assert.Empty(t, verbs.calls)
	assert.Nil(t, rows.Entity())
	assert.Equal(t, wenu.Meta{}, rows.Meta())

	count := 0
	for rows.Next() {
		n, err := rows.Entity().Field("n")
		require.NoError(t, err)
		assert.InDelta(t, float64(count), n, 0)

		count++
	}

	require.NoError(t, rows.Err())
	assert.Equal(t, 3, count)
	assert.Len(t, verbs.calls, 1)

	assert.False(t, rows.Next())
	assert.Nil(t, rows.Entity())
	assert.Len(t, verbs.calls, 1)
}

func TestRows_ReissuedPerQuery(t *testing.T) {
	t.Parallel()

	verbs := newFakeVerbs()
	seededRows(verbs, 2)

	resource := bookResource(verbs)

	first, err := resource.Where(context.Background(), nil, "").Collect()
	require.NoError(t, err)

	second, err := resource.Where(context.Background(), nil, "").Collect()
	require.NoError(t, err)

	assert.Len(t, first, 2)
	assert.Len(t, second, 2)
	assert.Len(t, verbs.calls, 2)
	assert.NotSame(t, first[0], second[0])
}

func TestRows_All(t *testing.T) {
	t.Parallel()

	t.Run("ranges over entities", func(t *testing.T) {
		t.Parallel()

		verbs := newFakeVerbs()
		seededRows(verbs, 4)

		seen := 0

		for entity, err := range bookResource(verbs).Where(context.Background(), nil, "").All() {
			require.NoError(t, err)
			require.NotNil(t, entity)

			seen++
			if seen == 2 {
				break
			}
		}

		assert.Equal(t, 2, seen)
	})

	t.Run("yields the request error", func(t *testing.T) {
		t.Parallel()

		verbs := newFakeVerbs()
		verbs.err = errTransport

		var errs []error

		for entity, err := range bookResource(verbs).Where(context.Background(), nil, "").All() {
			assert.Nil(t, entity)

			errs = append(errs, err)
		}

		require.Len(t, errs, 1)
		require.ErrorIs(t, errs[0], errTransport)
	})
}

func TestRows_CollectError(t *testing.T) {
	t.Parallel()

	verbs := newFakeVerbs()
	verbs.err = errTransport

	entities, err := bookResource(verbs).Where(context.Background(), wenu.Fields{"a": 1}, "").Collect()
	require.ErrorIs(t, err, errTransport)
	assert.Nil(t, entities)
}
