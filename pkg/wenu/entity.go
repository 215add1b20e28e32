package wenu

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"

	"github.com/fivetwenty-io/wenu-client/internal/constants"
)

// Entity is one row of a Resource.
//
// It keeps two separate namespaces: the field mapping, which mirrors the
// server row and is what Create and Save send, and a set of attributes that
// only live in process and are never persisted. Writing a field that does
// not exist is an error; use PutField to add one or SetAttr to attach a
// local value.
type Entity struct {
	resource *Resource
	fields   Fields
	attrs    map[string]interface{}
	loaded   bool
}

func newEntity(resource *Resource, fields Fields, loaded bool) *Entity {
	copied := make(Fields, len(fields))
	maps.Copy(copied, fields)

	return &Entity{
		resource: resource,
		fields:   copied,
		attrs:    make(map[string]interface{}),
		loaded:   loaded,
	}
}

// Resource returns the resource the entity belongs to.
func (e *Entity) Resource() *Resource { return e.resource }

// Link returns the collection link of the entity's resource.
func (e *Entity) Link() string { return e.resource.link }

// Loaded reports whether the entity was decoded from a server row.
func (e *Entity) Loaded() bool { return e.loaded }

// Has reports whether name is a key of the field mapping.
func (e *Entity) Has(name string) bool {
	_, ok := e.fields[name]

	return ok
}

// Field returns the value of a field.
func (e *Entity) Field(name string) (interface{}, error) {
	value, ok := e.fields[name]
	if !ok {
		return nil, &UnknownFieldError{Resource: e.resource.name, Field: name}
	}

	return value, nil
}

// SetField rewrites an existing field.
func (e *Entity) SetField(name string, value interface{}) error {
	if _, ok := e.fields[name]; !ok {
		return &UnknownFieldError{Resource: e.resource.name, Field: name}
	}

	e.fields[name] = value

	return nil
}

// PutField inserts or rewrites a field.
func (e *Entity) PutField(name string, value interface{}) {
	e.fields[name] = value
}

// DeleteField drops a field from the mapping.
func (e *Entity) DeleteField(name string) {
	delete(e.fields, name)
}

// Attr returns a non-persisted attribute.
func (e *Entity) Attr(name string) (interface{}, bool) {
	value, ok := e.attrs[name]

	return value, ok
}

// SetAttr attaches a non-persisted attribute.
func (e *Entity) SetAttr(name string, value interface{}) {
	e.attrs[name] = value
}

// Lookup resolves name against the fields, then the attributes.
func (e *Entity) Lookup(name string) (interface{}, error) {
	if value, ok := e.fields[name]; ok {
		return value, nil
	}

	if value, ok := e.attrs[name]; ok {
		return value, nil
	}

	return nil, &UnknownFieldError{Resource: e.resource.name, Field: name}
}

// Fields returns a copy of the whole field mapping.
func (e *Entity) Fields() Fields {
	copied := make(Fields, len(e.fields))
	maps.Copy(copied, e.fields)

	return copied
}

// RegularFields returns the fields whose name does not start with "_".
func (e *Entity) RegularFields() Fields {
	regular := make(Fields, len(e.fields))

	for name, value := range e.fields {
		if !IsReserved(name) {
			regular[name] = value
		}
	}

	return regular
}

// ID returns the _id field rendered as a string.
func (e *Entity) ID() (string, bool) {
	value, ok := e.fields[constants.IDField]
	if !ok || value == nil {
		return "", false
	}

	return formatID(value), true
}

// ETag returns the concurrency token, or "" when the row never round-tripped.
func (e *Entity) ETag() string {
	value, ok := e.fields[constants.ETagField]
	if !ok || value == nil {
		return ""
	}

	if s, ok := value.(string); ok {
		return s
	}

	return fmt.Sprint(value)
}

// Create posts the whole field mapping and merges the response (typically
// _id and _etag) back into it.
func (e *Entity) Create(ctx context.Context) (Document, error) {
	resp, err := e.resource.verbs.Post(ctx, e.resource.link, e.fields)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", e.resource.name, err)
	}

	maps.Copy(e.fields, resp)

	return resp, nil
}

// Save replaces the row with the regular fields, conditional on _etag.
// The local _etag is left untouched, so a second Save without a re-fetch
// sends a stale token.
func (e *Entity) Save(ctx context.Context) (Document, error) {
	id, ok := e.ID()
	if !ok {
		return nil, &PreconditionError{Op: "save", Resource: e.resource.name, Err: ErrMissingID}
	}

	resp, err := e.resource.verbs.Put(ctx, e.resource.itemRoute(id), e.RegularFields(), e.ETag())
	if err != nil {
		return nil, fmt.Errorf("saving %s %s: %w", e.resource.name, id, err)
	}

	return resp, nil
}

// Remove deletes the row, conditional on _etag, and returns its last known
// content. The entity itself stays usable.
func (e *Entity) Remove(ctx context.Context) (Document, error) {
	id, ok := e.ID()
	if !ok {
		return nil, &PreconditionError{Op: "remove", Resource: e.resource.name, Err: ErrMissingID}
	}

	resp, err := e.resource.verbs.Delete(ctx, e.resource.itemRoute(id), e.ETag())
	if err != nil {
		return nil, fmt.Errorf("removing %s %s: %w", e.resource.name, id, err)
	}

	return resp, nil
}

// Reload fetches the row again and replaces the field mapping with it.
func (e *Entity) Reload(ctx context.Context) error {
	id, ok := e.ID()
	if !ok {
		return &PreconditionError{Op: "reload", Resource: e.resource.name, Err: ErrMissingID}
	}

	fresh, err := e.resource.GetByID(ctx, id, "")
	if err != nil {
		return err
	}

	e.fields = fresh.fields
	e.loaded = true

	return nil
}

// MarshalJSON encodes the field mapping.
func (e *Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.fields)
}

// String renders the field mapping as JSON.
func (e *Entity) String() string {
	encoded, err := json.Marshal(e.fields)
	if err != nil {
		return fmt.Sprint(map[string]interface{}(e.fields))
	}

	return string(encoded)
}

func formatID(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
