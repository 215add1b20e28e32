// Package changefeed publishes an event for every successful mutation a
// gateway performs. Events are JSON documents sent to NATS subjects of the
// form "<prefix>.<resource>.<created|updated|deleted>".
package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fivetwenty-io/wenu-client/internal/constants"
	"github.com/fivetwenty-io/wenu-client/pkg/wenu"
)

// DefaultPrefix is the subject prefix used when none is given.
const DefaultPrefix = "wenu.changes"

// Static errors for err113 compliance.
var (
	ErrPublisherRequired = errors.New("publisher is required")
)

// Publisher sends a message to a subject. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Event describes one mutation.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Resource  string    `json:"resource"`
	EntityID  string    `json:"entity_id,omitempty"`
	ETag      string    `json:"etag,omitempty"`
	Status    int       `json:"status"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Feed turns gateway responses into events.
type Feed struct {
	publisher Publisher
	prefix    string
	logger    wenu.Logger
	published *prometheus.CounterVec
	conn      *nats.Conn
}

// Option configures a Feed.
type Option func(*Feed)

// WithLogger reports publish failures. Without a logger they are dropped.
func WithLogger(logger wenu.Logger) Option {
	return func(f *Feed) {
		f.logger = logger
	}
}

// WithMetrics counts published events on registerer. A nil registerer still
// counts but leaves the counter unregistered.
func WithMetrics(registerer prometheus.Registerer) Option {
	return func(f *Feed) {
		counter := prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: constants.MetricsNamespace,
				Subsystem: "changefeed",
				Name:      "events_published_total",
				Help:      "Total number of change events published by resource and type",
			},
			[]string{"resource", "type"},
		)

		f.published = counter

		if registerer == nil {
			return
		}

		err := registerer.Register(counter)
		if err != nil {
			are := prometheus.AlreadyRegisteredError{}
			if errors.As(err, &are) {
				if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
					f.published = existing
				}
			}
		}
	}
}

// New creates a feed publishing through publisher.
func New(publisher Publisher, prefix string, opts ...Option) (*Feed, error) {
	if publisher == nil {
		return nil, ErrPublisherRequired
	}

	if prefix == "" {
		prefix = DefaultPrefix
	}

	feed := &Feed{
		publisher: publisher,
		prefix:    strings.TrimSuffix(prefix, "."),
	}

	for _, opt := range opts {
		opt(feed)
	}

	return feed, nil
}

// Connect dials NATS at url and returns a feed owning the connection.
func Connect(url, prefix string, opts ...Option) (*Feed, error) {
	conn, err := nats.Connect(url,
		nats.Name("wenu-changefeed"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	feed, err := New(conn, prefix, opts...)
	if err != nil {
		conn.Close()

		return nil, err
	}

	feed.conn = conn

	return feed, nil
}

// Close drains the connection opened by Connect. It is a no-op for feeds
// built with New.
func (f *Feed) Close() error {
	if f.conn == nil {
		return nil
	}

	err := f.conn.Drain()
	if err != nil {
		return fmt.Errorf("draining NATS connection: %w", err)
	}

	return nil
}

// Subject returns the subject events of eventType on resource are sent to.
func (f *Feed) Subject(resource, eventType string) string {
	return f.prefix + "." + resource + "." + eventType
}

// Install adds the feed's response interceptor to chain.
func (f *Feed) Install(chain *wenu.InterceptorChain) {
	chain.AddResponseInterceptor(f.Interceptor())
}

// Interceptor publishes an event after each successful POST, PUT, PATCH or
// DELETE. A failed publish is logged and never fails the request.
func (f *Feed) Interceptor() wenu.ResponseInterceptor {
	return func(ctx context.Context, req *wenu.Request, resp *wenu.Response) error {
		if resp.Error != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil
		}

		event, ok := eventOf(req, resp)
		if !ok {
			return nil
		}

		err := f.Publish(event)
		if err != nil && f.logger != nil {
			f.logger.Warn("Failed to publish change event", map[string]interface{}{
				"subject": f.Subject(event.Resource, event.Type),
				"error":   err.Error(),
			})
		}

		return nil
	}
}

// Publish sends event to its subject.
func (f *Feed) Publish(event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling change event: %w", err)
	}

	subject := f.Subject(event.Resource, event.Type)

	err = f.publisher.Publish(subject, data)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}

	if f.published != nil {
		f.published.WithLabelValues(event.Resource, event.Type).Inc()
	}

	return nil
}

// PublishedCounter returns the counter of events published for resource and
// eventType, or nil when the feed was built without WithMetrics.
func (f *Feed) PublishedCounter(resource, eventType string) prometheus.Counter {
	if f.published == nil {
		return nil
	}

	return f.published.WithLabelValues(resource, eventType)
}

func eventOf(req *wenu.Request, resp *wenu.Response) (*Event, bool) {
	var eventType string

	switch req.Method {
	case http.MethodPost:
		eventType = constants.EventCreated
	case http.MethodPut, http.MethodPatch:
		eventType = constants.EventUpdated
	case http.MethodDelete:
		eventType = constants.EventDeleted
	default:
		return nil, false
	}

	event := &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Resource:  wenu.ResourceOfRoute(req.Route),
		EntityID:  entityOfRoute(req.Route),
		Status:    resp.StatusCode,
		Timestamp: time.Now().UTC(),
	}

	if req.Headers != nil {
		event.RequestID = req.Headers.Get(constants.HeaderRequestID)
	}

	var body struct {
		ID   string `json:"_id"`
		ETag string `json:"_etag"`
	}

	if len(resp.Body) > 0 && json.Unmarshal(resp.Body, &body) == nil {
		if event.EntityID == "" {
			event.EntityID = body.ID
		}

		event.ETag = body.ETag
	}

	return event, true
}

// entityOfRoute returns the item segment of "book/42?x=1", or "".
func entityOfRoute(route string) string {
	route = strings.TrimPrefix(route, "/")

	if i := strings.IndexByte(route, '?'); i >= 0 {
		route = route[:i]
	}

	parts := strings.Split(route, "/")
	if len(parts) < 2 {
		return ""
	}

	return parts[1]
}
