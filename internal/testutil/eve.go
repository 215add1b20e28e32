// Package testutil provides an in-memory Eve-style API for tests.
package testutil

import (
	"crypto/sha1" //nolint:gosec // etags, not security
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultPageSize is the page size when a request carries no max_results.
const DefaultPageSize = 25

// Collection declares one resource the server advertises at its root.
type Collection struct {
	Title string
	Href  string
	// Hidden collections are served but not listed by discovery.
	Hidden bool
}

// Server is an httptest.Server speaking the Eve envelope: discovery under
// _links.child, rows under _items, ids in _id, optimistic concurrency through
// _etag and If-Match.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	collections []Collection
	rows        map[string][]map[string]interface{}
	users       map[string]string
	tokens      map[string]string
	nextID      int
	requireAuth bool
	pageSize    int
	failRoot    int
	requests    []string
	count       atomic.Int64
}

// Option configures a Server.
type Option func(*Server)

// WithUser registers an account that can log in.
func WithUser(username, password string) Option {
	return func(s *Server) {
		s.users[username] = password
	}
}

// WithToken accepts token for username without a login.
func WithToken(token, username string) Option {
	return func(s *Server) {
		s.tokens[token] = username
	}
}

// WithRequiredAuth rejects unauthenticated requests to collections with 401.
func WithRequiredAuth() Option {
	return func(s *Server) {
		s.requireAuth = true
	}
}

// WithPageSize sets the default page size.
func WithPageSize(size int) Option {
	return func(s *Server) {
		s.pageSize = size
	}
}

// WithRootStatus makes the discovery route answer with status.
func WithRootStatus(status int) Option {
	return func(s *Server) {
		s.failRoot = status
	}
}

// NewServer starts a server advertising collections. Close it when done.
func NewServer(collections []Collection, opts ...Option) *Server {
	server := &Server{
		collections: collections,
		rows:        make(map[string][]map[string]interface{}),
		users:       make(map[string]string),
		tokens:      make(map[string]string),
		pageSize:    DefaultPageSize,
	}

	for _, opt := range opts {
		opt(server)
	}

	server.Server = httptest.NewServer(http.HandlerFunc(server.serve))

	return server
}

// Requests returns the number of requests served.
func (s *Server) Requests() int64 {
	return s.count.Load()
}

// Log returns "METHOD /path?query" for every request served, in order.
func (s *Server) Log() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.requests...)
}

// Seed inserts a row directly and returns its _id.
func (s *Server) Seed(href string, fields map[string]interface{}) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.insertLocked(href, normalize(fields))

	return row["_id"].(string) //nolint:forcetypeassert // set by insertLocked
}

// Row returns a copy of a stored row.
func (s *Server) Row(href, id string) (map[string]interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, row := s.findLocked(href, id)
	if row == nil {
		return nil, false
	}

	return copyRow(row), true
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.count.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, r.Method+" "+r.URL.RequestURI())

	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case r.URL.Path == "/" || r.URL.Path == "":
		s.discover(w)
	case segments[0] == "login" && r.Method == http.MethodGet:
		s.login(w, r)
	case segments[0] == "register" && r.Method == http.MethodPost:
		s.register(w, r)
	case segments[0] == "refreshtoken" && r.Method == http.MethodGet:
		s.refresh(w, r)
	default:
		if s.requireAuth && !s.authenticated(r) {
			writeError(w, http.StatusUnauthorized, "Please provide proper credentials")

			return
		}

		if !s.knownLocked(segments[0]) {
			writeError(w, http.StatusNotFound, "The requested URL was not found on the server.")

			return
		}

		if len(segments) == 1 {
			s.collection(w, r, segments[0])

			return
		}

		s.item(w, r, segments[0], segments[1])
	}
}

func (s *Server) discover(w http.ResponseWriter) {
	if s.failRoot != 0 {
		writeError(w, s.failRoot, "discovery unavailable")

		return
	}

	children := make([]map[string]string, 0, len(s.collections))

	for _, c := range s.collections {
		if c.Hidden {
			continue
		}

		children = append(children, map[string]string{"title": c.Title, "href": c.Href})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"_links": map[string]interface{}{"child": children},
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	username, password, ok := r.BasicAuth()
	if !ok || s.users[username] == "" || s.users[username] != password {
		writeError(w, http.StatusUnauthorized, "Please provide proper credentials")

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": s.issueLocked(username)})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())

		return
	}

	username := r.Form.Get("username")
	if username == "" || r.Form.Get("password") == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")

		return
	}

	if _, exists := s.users[username]; exists {
		writeError(w, http.StatusConflict, "user exists")

		return
	}

	s.users[username] = r.Form.Get("password")
	writeJSON(w, http.StatusCreated, map[string]string{"_status": "OK"})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	token, _, _ := r.BasicAuth()

	username, ok := s.tokens[token]
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please provide proper credentials")

		return
	}

	delete(s.tokens, token)
	writeJSON(w, http.StatusOK, map[string]string{"token": s.issueLocked(username)})
}

func (s *Server) authenticated(r *http.Request) bool {
	token, _, ok := r.BasicAuth()
	if !ok {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}

	_, known := s.tokens[token]

	return known
}

func (s *Server) issueLocked(username string) string {
	s.nextID++
	token := fmt.Sprintf("token-%s-%d", username, s.nextID)
	s.tokens[token] = username

	return token
}

func (s *Server) collection(w http.ResponseWriter, r *http.Request, href string) {
	switch r.Method {
	case http.MethodGet:
		s.list(w, r, href)
	case http.MethodPost:
		var fields map[string]interface{}

		err := json.NewDecoder(r.Body).Decode(&fields)
		if err != nil {
			writeError(w, http.StatusBadRequest, "payload is not a JSON object")

			return
		}

		for key := range fields {
			if strings.HasPrefix(key, "_") {
				delete(fields, key)
			}
		}

		row := s.insertLocked(href, fields)
		writeJSON(w, http.StatusCreated, statusOf(row))
	default:
		writeError(w, http.StatusMethodNotAllowed, "The method is not allowed for the requested URL.")
	}
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, href string) {
	query := r.URL.Query()

	var where map[string]interface{}

	if raw := query.Get("where"); raw != "" {
		err := json.Unmarshal([]byte(raw), &where)
		if err != nil {
			writeError(w, http.StatusBadRequest, "where is not a JSON object")

			return
		}
	}

	if raw := query.Get("embedded"); raw != "" {
		var embedded map[string]interface{}

		err := json.Unmarshal([]byte(raw), &embedded)
		if err != nil {
			writeError(w, http.StatusBadRequest, "embedded is not a JSON object")

			return
		}
	}

	matched := make([]map[string]interface{}, 0)

	for _, row := range s.rows[href] {
		if matches(row, where) {
			matched = append(matched, copyRow(row))
		}
	}

	pageSize := positive(query.Get("max_results"), s.pageSize)
	page := positive(query.Get("page"), 1)

	start := min((page-1)*pageSize, len(matched))
	end := min(start+pageSize, len(matched))

	links := map[string]interface{}{}

	if end < len(matched) {
		next := url.Values{}
		for key, values := range query {
			next[key] = values
		}

		next.Set("page", strconv.Itoa(page+1))
		links["next"] = map[string]string{"href": href + "?" + next.Encode()}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"_items": matched[start:end],
		"_meta": map[string]int{
			"page":        page,
			"max_results": pageSize,
			"total":       len(matched),
		},
		"_links": links,
	})
}

func (s *Server) item(w http.ResponseWriter, r *http.Request, href, id string) {
	index, row := s.findLocked(href, id)
	if row == nil {
		writeError(w, http.StatusNotFound, "The requested URL was not found on the server.")

		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, row)

		return
	case http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		writeError(w, http.StatusMethodNotAllowed, "The method is not allowed for the requested URL.")

		return
	}

	ifMatch := r.Header.Get("If-Match")
	if ifMatch == "" {
		writeError(w, http.StatusPreconditionRequired, "To edit a document its etag must be provided using the If-Match header")

		return
	}

	if ifMatch != row["_etag"] {
		writeError(w, http.StatusPreconditionFailed, "Client and server etags don't match")

		return
	}

	if r.Method == http.MethodDelete {
		s.rows[href] = append(s.rows[href][:index], s.rows[href][index+1:]...)
		w.WriteHeader(http.StatusNoContent)

		return
	}

	var fields map[string]interface{}

	err := json.NewDecoder(r.Body).Decode(&fields)
	if err != nil {
		writeError(w, http.StatusBadRequest, "payload is not a JSON object")

		return
	}

	updated := map[string]interface{}{"_id": row["_id"], "_created": row["_created"]}
	if r.Method == http.MethodPatch {
		updated = copyRow(row)
	}

	for key, value := range fields {
		if !strings.HasPrefix(key, "_") {
			updated[key] = value
		}
	}

	stamp(updated)
	s.rows[href][index] = updated
	writeJSON(w, http.StatusOK, statusOf(updated))
}

func (s *Server) knownLocked(href string) bool {
	for _, c := range s.collections {
		if c.Href == href {
			return true
		}
	}

	return false
}

func (s *Server) insertLocked(href string, fields map[string]interface{}) map[string]interface{} {
	s.nextID++

	row := copyRow(fields)
	row["_id"] = fmt.Sprintf("%024x", s.nextID)
	row["_created"] = time.Now().UTC().Format(http.TimeFormat)
	stamp(row)

	s.rows[href] = append(s.rows[href], row)

	return row
}

func (s *Server) findLocked(href, id string) (int, map[string]interface{}) {
	for i, row := range s.rows[href] {
		if row["_id"] == id {
			return i, row
		}
	}

	return -1, nil
}

var revision atomic.Int64

// stamp sets _updated and derives _etag from the row content and a global
// revision, so every write yields a new etag.
func stamp(row map[string]interface{}) {
	delete(row, "_etag")
	row["_updated"] = time.Now().UTC().Format(time.RFC3339Nano)

	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	hash := sha1.New() //nolint:gosec // etags, not security
	_, _ = fmt.Fprintf(hash, "%d;", revision.Add(1))

	for _, key := range keys {
		_, _ = fmt.Fprintf(hash, "%s=%v;", key, row[key])
	}

	row["_etag"] = hex.EncodeToString(hash.Sum(nil))
}

func statusOf(row map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"_id":      row["_id"],
		"_etag":    row["_etag"],
		"_created": row["_created"],
		"_updated": row["_updated"],
		"_status":  "OK",
	}
}

func matches(row, where map[string]interface{}) bool {
	for key, want := range where {
		if !reflect.DeepEqual(row[key], want) {
			return false
		}
	}

	return true
}

// normalize round-trips fields through JSON so stored values have the types
// a decoded request body would have.
func normalize(fields map[string]interface{}) map[string]interface{} {
	data, err := json.Marshal(fields)
	if err != nil {
		panic(err)
	}

	var out map[string]interface{}

	err = json.Unmarshal(data, &out)
	if err != nil {
		panic(err)
	}

	return out
}

func copyRow(row map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(row))
	for key, value := range row {
		out[key] = value
	}

	return out
}

func positive(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}

	return n
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"_status": "ERR",
		"_error":  map[string]interface{}{"code": status, "message": message},
	})
}
