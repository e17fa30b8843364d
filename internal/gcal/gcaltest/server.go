// Package gcaltest provides an in-process stand-in for the Calendar v3
// events API, for tests of code that talks to a real gcal.Client.
package gcaltest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"
)

// Server serves the subset of the events API that gcal.Client uses:
// list (paged by offset tokens), insert, patch, delete and get.
type Server struct {
	// InsertTime and PatchTime are reported as the updated timestamp of
	// inserted and patched events.
	InsertTime time.Time
	PatchTime  time.Time

	srv *httptest.Server

	mu      sync.Mutex
	events  map[string]*calendar.Event
	order   []string
	gone    map[string]bool
	nextID  int
	lists   int
	patches []map[string]any
	failAll int
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		InsertTime: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		PatchTime:  time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
		events:     map[string]*calendar.Event{},
		gone:       map[string]bool{},
	}
	s.srv = httptest.NewServer(s.handler())
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the endpoint to pass to gcal.WithEndpoint.
func (s *Server) URL() string {
	return s.srv.URL + "/"
}

// Client returns an HTTP client for the server.
func (s *Server) Client() *http.Client {
	return s.srv.Client()
}

// Add stores ev as if it had been created by another client.
func (s *Server) Add(ev *calendar.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(ev)
}

func (s *Server) add(ev *calendar.Event) {
	s.events[ev.Id] = ev
	s.order = append(s.order, ev.Id)
}

// Event returns the stored event with id, or nil.
func (s *Server) Event(id string) *calendar.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id]
}

// Events returns the stored events ordered by id.
func (s *Server) Events() []*calendar.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*calendar.Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

// Lists returns how many list pages were served.
func (s *Server) Lists() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists
}

// Patches returns the raw JSON bodies of every patch request.
func (s *Server) Patches() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.patches...)
}

// FailAll makes every list request fail with code. Zero restores service.
func (s *Server) FailAll(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAll = code
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": map[string]any{"code": code, "message": msg}})
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /calendars/{cal}/events", s.list)
	mux.HandleFunc("POST /calendars/{cal}/events", s.insert)
	mux.HandleFunc("PATCH /calendars/{cal}/events/{id}", s.patch)
	mux.HandleFunc("DELETE /calendars/{cal}/events/{id}", s.delete)
	mux.HandleFunc("GET /calendars/{cal}/events/{id}", s.get)
	return mux
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.failAll != 0 {
		writeError(w, s.failAll, "backend error")
		return
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("maxResults"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("pageToken"))
	var ids []string
	for _, id := range s.order {
		if _, ok := s.events[id]; ok {
			ids = append(ids, id)
		}
	}
	if offset < len(ids) {
		ids = ids[offset:]
	} else {
		ids = nil
	}
	resp := &calendar.Events{}
	if size > 0 && len(ids) > size {
		ids = ids[:size]
		resp.NextPageToken = strconv.Itoa(offset + size)
	}
	for _, id := range ids {
		resp.Items = append(resp.Items, s.events[id])
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) insert(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ev calendar.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.nextID++
	ev.Id = "ev" + strconv.Itoa(s.nextID)
	ev.Updated = s.InsertTime.Format(time.RFC3339)
	s.add(&ev)
	writeJSON(w, http.StatusOK, &ev)
}

func (s *Server) patch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	raw, _ := io.ReadAll(r.Body)
	var fields map[string]any
	_ = json.Unmarshal(raw, &fields)
	s.patches = append(s.patches, fields)

	var p calendar.Event
	_ = json.Unmarshal(raw, &p)
	ev.Summary = p.Summary
	ev.Location = p.Location
	ev.Description = p.Description
	ev.Start, ev.End = p.Start, p.End
	ev.ExtendedProperties = p.ExtendedProperties
	ev.Updated = s.PatchTime.Format(time.RFC3339)
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	if s.gone[id] {
		writeError(w, http.StatusGone, "Resource has been deleted")
		return
	}
	if _, ok := s.events[id]; !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	delete(s.events, id)
	s.gone[id] = true
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
