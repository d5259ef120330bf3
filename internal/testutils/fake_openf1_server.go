package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
)

// filterParam is the query parameter each provider endpoint is keyed by
var filterParam = map[string]string{
	"meetings":     "year",
	"sessions":     "meeting_key",
	"drivers":      "session_key",
	"position":     "session_key",
	"race_control": "session_key",
	"weather":      "session_key",
}

// FakeOpenF1Server serves canned provider payloads keyed by endpoint and filter value
type FakeOpenF1Server struct {
	s *httptest.Server

	mu       sync.Mutex
	payloads map[string]map[string]any
	failures map[string]int
	calls    map[string]int
}

func NewFakeOpenF1Server() *FakeOpenF1Server {
	f := &FakeOpenF1Server{
		payloads: make(map[string]map[string]any),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}

	r := chi.NewRouter()
	r.Get("/{endpoint}", f.handle)

	f.s = httptest.NewServer(r)
	return f
}

func (f *FakeOpenF1Server) Close() {
	f.s.Close()
}

func (f *FakeOpenF1Server) URL() string {
	return f.s.URL
}

// Set registers the payload served for endpoint?<filter>=key
func (f *FakeOpenF1Server) Set(endpoint, key string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.payloads[endpoint] == nil {
		f.payloads[endpoint] = make(map[string]any)
	}
	f.payloads[endpoint][key] = payload
}

// Fail makes endpoint answer with status; 0 clears the failure
func (f *FakeOpenF1Server) Fail(endpoint string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if status == 0 {
		delete(f.failures, endpoint)
		return
	}
	f.failures[endpoint] = status
}

// Calls returns how many requests endpoint has served
func (f *FakeOpenF1Server) Calls(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

func (f *FakeOpenF1Server) handle(w http.ResponseWriter, r *http.Request) {
	endpoint := chi.URLParam(r, "endpoint")
	param, ok := filterParam[endpoint]
	if !ok {
		http.NotFound(w, r)
		return
	}

	f.mu.Lock()
	f.calls[endpoint]++
	status := f.failures[endpoint]
	payload, found := f.payloads[endpoint][r.URL.Query().Get(param)]
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if !found {
		w.Write([]byte("[]"))
		return
	}
	json.NewEncoder(w).Encode(payload)
}
