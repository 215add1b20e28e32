package wenu

import (
	"context"
	"iter"
)

// Rows is a lazy, single-pass sequence of entities. The request is issued on
// the first call to Next; once exhausted the sequence stays exhausted, and a
// new query has to be built to read the collection again.
//
//	rows := books.Where(ctx, wenu.Fields{"status": "active"}, "")
//	for rows.Next() {
//	  book := rows.Entity()
//	  _ = book
//	}
//	if err := rows.Err(); err != nil { ... }
type Rows struct {
	ctx      context.Context
	resource *Resource
	fetch    func(ctx context.Context) (Document, error)

	started bool
	items   []Fields
	pos     int
	current *Entity
	meta    Meta
	err     error
}

// Next advances to the next entity.
func (r *Rows) Next() bool {
	if !r.started {
		r.started = true

		doc, err := r.fetch(r.ctx)
		if err != nil {
			r.err = err

			return false
		}

		items, err := itemsOf(doc)
		if err != nil {
			r.err = err

			return false
		}

		r.items = items
		r.meta = metaOf(doc)
	}

	if r.err != nil || r.pos >= len(r.items) {
		r.current = nil

		return false
	}

	r.current = newEntity(r.resource, r.items[r.pos], true)
	r.pos++

	return true
}

// Entity returns the entity Next advanced to.
func (r *Rows) Entity() *Entity {
	return r.current
}

// Err returns the error that stopped the iteration, if any.
func (r *Rows) Err() error {
	return r.err
}

// Meta returns the _meta block of the response; zero before the first Next.
func (r *Rows) Meta() Meta {
	return r.meta
}

// All adapts the sequence to a range-over-func iterator. A failed request is
// yielded once as a nil entity with its error.
func (r *Rows) All() iter.Seq2[*Entity, error] {
	return func(yield func(*Entity, error) bool) {
		for r.Next() {
			if !yield(r.Entity(), nil) {
				return
			}
		}

		if r.err != nil {
			yield(nil, r.err)
		}
	}
}

// Collect drains the sequence into a slice.
func (r *Rows) Collect() ([]*Entity, error) {
	var entities []*Entity

	for r.Next() {
		entities = append(entities, r.Entity())
	}

	if r.err != nil {
		return nil, r.err
	}

	return entities, nil
}
