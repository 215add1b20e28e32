package wenu

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/wenu-client/internal/constants"
)

// Resource is the handle of one server collection. It is bound to a single
// link and to the Verbs of the gateway that discovered it, and never changes
// after construction.
type Resource struct {
	name      string
	title     string
	link      string
	indexable bool
	verbs     Verbs
}

// NewResource binds a descriptor to the verbs of a gateway.
func NewResource(desc ResourceDescriptor, verbs Verbs) *Resource {
	return &Resource{
		name:      NormalizeName(desc.Title),
		title:     desc.Title,
		link:      desc.Href,
		indexable: desc.Indexable,
		verbs:     verbs,
	}
}

// Name returns the normalized handle name, e.g. "SensorData".
func (r *Resource) Name() string { return r.name }

// Title returns the title advertised by the server.
func (r *Resource) Title() string { return r.title }

// Link returns the relative path of the collection.
func (r *Resource) Link() string { return r.link }

// Indexable reports whether GetByID is supported.
func (r *Resource) Indexable() bool { return r.indexable }

// Gateway returns the verbs the resource dispatches to.
func (r *Resource) Gateway() Verbs { return r.verbs }

// Descriptor returns the descriptor the resource was built from.
func (r *Resource) Descriptor() ResourceDescriptor {
	return ResourceDescriptor{Title: r.title, Href: r.link, Indexable: r.indexable}
}

// New assembles a fresh, unpersisted entity.
func (r *Resource) New(fields Fields) *Entity {
	return newEntity(r, fields, false)
}

// List returns every row of the first page. options is a raw query string.
func (r *Resource) List(ctx context.Context, options string) ([]*Entity, error) {
	doc, err := r.verbs.Get(ctx, withOptions(r.link, options))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", r.name, err)
	}

	return r.entitiesOf(doc)
}

// ListAll follows _links.next until the last page and returns all rows. It
// fails with ErrPageLimit rather than return a truncated list when a next
// link is still present after constants.MaxPages pages.
func (r *Resource) ListAll(ctx context.Context, options string) ([]*Entity, error) {
	var all []*Entity

	route := withOptions(r.link, options)

	for pages := 0; route != ""; pages++ {
		if pages == constants.MaxPages {
			return nil, fmt.Errorf("listing %s: next link %q after %d pages: %w", r.name, route, pages, ErrPageLimit)
		}

		doc, err := r.verbs.Get(ctx, route)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", r.name, err)
		}

		page, err := r.entitiesOf(doc)
		if err != nil {
			return nil, err
		}

		all = append(all, page...)
		route = nextHref(doc)
	}

	return all, nil
}

// GetByID fetches a single row.
func (r *Resource) GetByID(ctx context.Context, id string, options string) (*Entity, error) {
	if !r.indexable {
		return nil, &PreconditionError{Op: "get by id", Resource: r.name, Err: ErrNotIndexable}
	}

	doc, err := r.verbs.Get(ctx, withOptions(r.itemRoute(id), options))
	if err != nil {
		return nil, fmt.Errorf("getting %s %s: %w", r.name, id, err)
	}

	return newEntity(r, Fields(doc), true), nil
}

// Where returns the rows whose fields equal filters. No request is issued
// until the first call to Rows.Next.
func (r *Resource) Where(ctx context.Context, filters Fields, options string) *Rows {
	return r.lazy(ctx, func() (string, error) {
		return WhereRoute(r.link, filters, options)
	})
}

// Embedded returns the rows with the related resources named in directives
// inlined by the server.
func (r *Resource) Embedded(ctx context.Context, directives Fields, options string) *Rows {
	return r.lazy(ctx, func() (string, error) {
		return EmbeddedRoute(r.link, directives, options)
	})
}

// FirstWhere returns the first row matching filters, or nil when none does.
func (r *Resource) FirstWhere(ctx context.Context, filters Fields) (*Entity, error) {
	rows := r.Where(ctx, filters, "")
	if rows.Next() {
		return rows.Entity(), nil
	}

	return nil, rows.Err()
}

// itemRoute is the route of one row. The id is path-escaped so that reads and
// writes of the same row agree.
func (r *Resource) itemRoute(id string) string {
	return r.link + "/" + url.PathEscape(id)
}

func (r *Resource) lazy(ctx context.Context, route func() (string, error)) *Rows {
	return &Rows{
		ctx:      ctx,
		resource: r,
		fetch: func(ctx context.Context) (Document, error) {
			path, err := route()
			if err != nil {
				return nil, err
			}

			doc, err := r.verbs.Get(ctx, path)
			if err != nil {
				return nil, fmt.Errorf("querying %s: %w", r.name, err)
			}

			return doc, nil
		},
	}
}

func (r *Resource) entitiesOf(doc Document) ([]*Entity, error) {
	rows, err := itemsOf(doc)
	if err != nil {
		return nil, fmt.Errorf("reading %s collection: %w", r.name, err)
	}

	entities := make([]*Entity, 0, len(rows))
	for _, row := range rows {
		entities = append(entities, newEntity(r, row, true))
	}

	return entities, nil
}

// String implements fmt.Stringer.
func (r *Resource) String() string {
	return r.name + " (" + r.link + ")"
}
