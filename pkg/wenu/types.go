package wenu

import (
	"strings"
	"unicode"

	"github.com/fivetwenty-io/wenu-client/internal/constants"
)

// Document is a decoded JSON object returned by the server.
type Document map[string]interface{}

// Fields is an entity's field mapping.
type Fields map[string]interface{}

// ResourceDescriptor describes one resource of the catalog.
type ResourceDescriptor struct {
	Title string `json:"title" yaml:"title"`
	Href  string `json:"href"  yaml:"href"`
	// Indexable is false for resources whose storage backend cannot look rows
	// up by id.
	Indexable bool `json:"indexable" yaml:"indexable"`
}

// DefaultExtraResources returns the pseudo-resources injected when
// Config.ExtraResources is nil.
func DefaultExtraResources() []ResourceDescriptor {
	return []ResourceDescriptor{
		{Title: constants.MeasurementTitle, Href: constants.MeasurementHref, Indexable: false},
	}
}

// Meta is the pagination block of a collection response.
type Meta struct {
	Page       int `json:"page"        yaml:"page"`
	MaxResults int `json:"max_results" yaml:"max_results"`
	Total      int `json:"total"       yaml:"total"`
}

// NormalizeName turns a resource title into its handle name: every word is
// title-cased (a word starts after any non-letter) and underscores are
// dropped, so "sensor_data" becomes "SensorData".
func NormalizeName(title string) string {
	var builder strings.Builder

	prevLetter := false

	for _, r := range title {
		switch {
		case unicode.IsLetter(r) && !prevLetter:
			builder.WriteRune(unicode.ToUpper(r))
		case unicode.IsLetter(r):
			builder.WriteRune(unicode.ToLower(r))
		default:
			builder.WriteRune(r)
		}

		prevLetter = unicode.IsLetter(r)
	}

	return strings.ReplaceAll(builder.String(), "_", "")
}

// IsReserved reports whether a field name is server-managed metadata.
func IsReserved(name string) bool {
	return strings.HasPrefix(name, constants.ReservedPrefix)
}

func metaOf(doc Document) Meta {
	raw, ok := doc[constants.MetaKey].(map[string]interface{})
	if !ok {
		return Meta{}
	}

	return Meta{
		Page:       intOf(raw["page"]),
		MaxResults: intOf(raw["max_results"]),
		Total:      intOf(raw["total"]),
	}
}

func intOf(value interface{}) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

// nextHref returns _links.next.href of a collection response.
func nextHref(doc Document) string {
	links, ok := doc[constants.LinksKey].(map[string]interface{})
	if !ok {
		return ""
	}

	next, ok := links[constants.NextKey].(map[string]interface{})
	if !ok {
		return ""
	}

	href, _ := next["href"].(string)

	return strings.TrimPrefix(href, "/")
}

// itemsOf unwraps the _items envelope.
func itemsOf(doc Document) ([]Fields, error) {
	raw, ok := doc[constants.ItemsKey]
	if !ok {
		return nil, ErrMalformedEnvelope
	}

	list, ok := raw.([]interface{})
	if !ok {
		return nil, ErrMalformedEnvelope
	}

	rows := make([]Fields, 0, len(list))

	for _, item := range list {
		row, ok := item.(map[string]interface{})
		if !ok {
			return nil, ErrMalformedRow
		}

		rows = append(rows, Fields(row))
	}

	return rows, nil
}
