// Package gigontest provides an in-memory fake of the Gig-On collaborator API
// for tests. It keeps at most one record per unordered pair of users and
// answers duplicate creates with 409 Conflict.
package gigontest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gigon/gigon/internal/gigon"
)

// Transition records one status change observed by the fake.
type Transition struct {
	ID   int64
	From *gigon.Status // nil on create
	To   *gigon.Status // nil on delete
}

// Server is a fake collaborator served over httptest.
type Server struct {
	*httptest.Server

	// Token, when set, must be presented as a bearer credential.
	Token string

	mu          sync.Mutex
	nextID      int64
	records     map[int64]gigon.Connection
	history     []Transition
	calls       map[string]int
	failures    map[string]int
	beforeWrite func(method string)
}

// NewServer starts a fake collaborator. Close it with t.Cleanup(srv.Close).
func NewServer() *Server {
	s := &Server{
		records:  make(map[int64]gigon.Connection),
		calls:    make(map[string]int),
		failures: make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /connections/{user}", s.handleList)
	mux.HandleFunc("GET /connections/{viewer}/{other}", s.handlePair)
	mux.HandleFunc("POST /connections", s.handleCreate)
	mux.HandleFunc("PUT /connections/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /connections/{id}", s.handleDelete)
	s.Server = httptest.NewServer(s.authorize(mux))
	return s
}

// Seed inserts a record directly, bypassing the uniqueness check.
func (s *Server) Seed(requester, acceptor string, status gigon.Status) gigon.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(requester, acceptor, status)
}

// Records returns all stored records ordered by id.
func (s *Server) Records() []gigon.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gigon.Connection, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// History returns every status transition in the order applied.
func (s *Server) History() []Transition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Transition(nil), s.history...)
}

// Calls returns how many requests hit "METHOD pattern-ish" keys such as
// "GET pair", "GET list", "POST", "PUT", "DELETE".
func (s *Server) Calls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

// FailNext makes the next n requests for key answer with code.
func (s *Server) FailNext(key string, code, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[key+"#"+strconv.Itoa(code)] += n
}

// BeforeWrite installs a hook run before each POST/PUT/DELETE is applied,
// outside the store lock. Tests use it to interleave racing writers.
func (s *Server) BeforeWrite(fn func(method string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeWrite = fn
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.Token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) enter(key string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[key]++
	for k, n := range s.failures {
		if n <= 0 || !strings.HasPrefix(k, key+"#") {
			continue
		}
		s.failures[k] = n - 1
		code, _ := strconv.Atoi(strings.TrimPrefix(k, key+"#"))
		return code, true
	}
	return 0, false
}

func (s *Server) hook(method string) {
	s.mu.Lock()
	fn := s.beforeWrite
	s.mu.Unlock()
	if fn != nil {
		fn(method)
	}
}

func (s *Server) handlePair(w http.ResponseWriter, r *http.Request) {
	if code, fail := s.enter("GET pair"); fail {
		http.Error(w, "injected failure", code)
		return
	}
	viewer, other := r.PathValue("viewer"), r.PathValue("other")
	s.mu.Lock()
	var results []gigon.Connection
	for _, rec := range s.records {
		if rec.Matches(viewer, other) {
			results = append(results, rec)
		}
	}
	s.mu.Unlock()
	writeResults(w, http.StatusOK, results)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if code, fail := s.enter("GET list"); fail {
		http.Error(w, "injected failure", code)
		return
	}
	user := r.PathValue("user")
	s.mu.Lock()
	var results []gigon.Connection
	for _, rec := range s.records {
		if rec.Involves(user) {
			results = append(results, rec)
		}
	}
	s.mu.Unlock()
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	writeResults(w, http.StatusOK, results)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if code, fail := s.enter("POST"); fail {
		http.Error(w, "injected failure", code)
		return
	}
	var body gigon.CreateConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Requester == "" || body.Acceptor == "" || body.Requester == body.Acceptor {
		http.Error(w, "invalid pair", http.StatusBadRequest)
		return
	}
	s.hook(http.MethodPost)

	s.mu.Lock()
	for _, rec := range s.records {
		if rec.Matches(body.Requester, body.Acceptor) {
			s.mu.Unlock()
			http.Error(w, "connection already exists", http.StatusConflict)
			return
		}
	}
	rec := s.insertLocked(body.Requester, body.Acceptor, gigon.StatusRequested)
	s.mu.Unlock()
	writeResults(w, http.StatusCreated, []gigon.Connection{rec})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if code, fail := s.enter("PUT"); fail {
		http.Error(w, "injected failure", code)
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var body gigon.UpdateConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	s.hook(http.MethodPut)

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		http.Error(w, "connection not found", http.StatusNotFound)
		return
	}
	if body.Status != gigon.StatusConnected {
		http.Error(w, "invalid transition", http.StatusConflict)
		return
	}
	if rec.Status != body.Status {
		from, to := rec.Status, body.Status
		s.history = append(s.history, Transition{ID: id, From: &from, To: &to})
		rec.Status = body.Status
		s.records[id] = rec
	}
	writeResults(w, http.StatusOK, []gigon.Connection{rec})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if code, fail := s.enter("DELETE"); fail {
		http.Error(w, "injected failure", code)
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	s.hook(http.MethodDelete)

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		http.Error(w, "connection not found", http.StatusNotFound)
		return
	}
	from := rec.Status
	s.history = append(s.history, Transition{ID: id, From: &from})
	delete(s.records, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) insertLocked(requester, acceptor string, status gigon.Status) gigon.Connection {
	s.nextID++
	rec := gigon.Connection{ID: s.nextID, Requester: requester, Acceptor: acceptor, Status: status}
	s.records[rec.ID] = rec
	to := status
	s.history = append(s.history, Transition{ID: rec.ID, To: &to})
	return rec
}

func writeResults(w http.ResponseWriter, code int, results []gigon.Connection) {
	if results == nil {
		results = []gigon.Connection{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(gigon.ConnectionList{Results: results})
}
