// Package cdptest provides an in-process stand-in for an application's
// remote-debugging endpoint, for tests: the /json discovery resource plus
// one WebSocket evaluate route per fake session.
package cdptest

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// Responder decides the outcome of one evaluation: the value to return and
// whether a value is returned at all (false mimics an expression evaluating
// to undefined, which the protocol reports without a value field).
type Responder func(expression string) (any, bool)

// Endpoint serves discovery and evaluation for a mutable set of fake
// sessions.
type Endpoint struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	sessions map[string]*Session
	order    []string
	failList bool
}

// Session is one fake debuggable page.
type Session struct {
	id  string
	url string

	mu      sync.Mutex
	respond Responder
	calls   []string
}

// NewEndpoint starts the fake endpoint. It is shut down with the test.
func NewEndpoint(t *testing.T) *Endpoint {
	t.Helper()
	e := &Endpoint{
		t:        t,
		sessions: make(map[string]*Session),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/json", e.handleList)
	mux.HandleFunc("/devtools/page/", e.handleEvaluate)
	e.srv = httptest.NewServer(mux)
	t.Cleanup(e.srv.Close)
	return e
}

// Host returns the endpoint's listen host.
func (e *Endpoint) Host() string {
	host, _, _ := net.SplitHostPort(strings.TrimPrefix(e.srv.URL, "http://"))
	return host
}

// Port returns the endpoint's listen port.
func (e *Endpoint) Port() int {
	_, portStr, _ := net.SplitHostPort(strings.TrimPrefix(e.srv.URL, "http://"))
	port, _ := strconv.Atoi(portStr)
	return port
}

// AddSession registers a fake session under id and returns it for
// scripting. By default every evaluation reports no value.
func (e *Endpoint) AddSession(id string) *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := &Session{
		id:  id,
		url: "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/devtools/page/" + id,
	}
	e.sessions[id] = s
	e.order = append(e.order, id)
	return s
}

// RemoveSession drops the session from discovery and closes its route.
func (e *Endpoint) RemoveSession(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, id)
	for i, known := range e.order {
		if known == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// FailDiscovery makes /json return a server error until re-enabled.
func (e *Endpoint) FailDiscovery(fail bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failList = fail
}

func (e *Endpoint) handleList(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failList {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	type entry struct {
		ID                   string `json:"id"`
		Type                 string `json:"type"`
		Title                string `json:"title"`
		URL                  string `json:"url"`
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	entries := make([]entry, 0, len(e.order))
	for _, id := range e.order {
		s := e.sessions[id]
		entries = append(entries, entry{
			ID:                   s.id,
			Type:                 "page",
			Title:                "session " + s.id,
			URL:                  "app://pages/" + s.id,
			WebSocketDebuggerURL: s.url,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (e *Endpoint) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/devtools/page/")
	e.mu.Lock()
	s := e.sessions[id]
	e.mu.Unlock()
	if s == nil {
		http.NotFound(w, r)
		return
	}

	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var req struct {
			ID     int `json:"id"`
			Params struct {
				Expression string `json:"expression"`
			} `json:"params"`
		}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		value, ok := s.eval(req.Params.Expression)
		resp := map[string]any{"id": req.ID}
		if ok {
			resp["result"] = map[string]any{"result": map[string]any{"value": value}}
		} else {
			resp["result"] = map[string]any{"result": map[string]any{"type": "undefined"}}
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

// Address returns the session's WebSocket URL.
func (s *Session) Address() string {
	return s.url
}

// Respond installs the session's evaluation behavior.
func (s *Session) Respond(fn Responder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.respond = fn
}

// Calls returns the expressions evaluated against the session, in order.
func (s *Session) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how many expressions matching substr were evaluated.
func (s *Session) CallCount(substr string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, call := range s.calls {
		if strings.Contains(call, substr) {
			n++
		}
	}
	return n
}

func (s *Session) eval(expression string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, expression)
	if s.respond == nil {
		return nil, false
	}
	return s.respond(expression)
}

// Script is a convenience Responder built from literal expression matches;
// unmatched expressions report no value.
func Script(values map[string]any) Responder {
	return func(expression string) (any, bool) {
		v, ok := values[expression]
		return v, ok
	}
}
