// Package ghtest serves canned GitHub REST responses to a Client without a network.
package ghtest

import (
	"io"
	"net/http"
	"strings"
	"sync"
)

// Response is a canned reply
type Response struct {
	Status int
	Body   string
}

// Request is a recorded call
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

// Transport is an http.RoundTripper keyed by "METHOD /path".
// Each route serves its responses in order and repeats the last one.
type Transport struct {
	mu       sync.Mutex
	routes   map[string][]Response
	requests []Request
}

func NewTransport() *Transport {
	return &Transport{routes: map[string][]Response{}}
}

// Handle registers responses for method and path
func (t *Transport) Handle(method, path string, responses ...Response) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes[method+" "+path] = append(t.routes[method+" "+path], responses...)
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		body = string(b)
	}

	t.mu.Lock()
	t.requests = append(t.requests, Request{
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  req.URL.RawQuery,
		Header: req.Header.Clone(),
		Body:   body,
	})
	key := req.Method + " " + req.URL.Path
	resp := Response{Status: http.StatusNotFound, Body: `{"message":"Not Found"}`}
	if queue := t.routes[key]; len(queue) > 0 {
		resp = queue[0]
		if len(queue) > 1 {
			t.routes[key] = queue[1:]
		}
	}
	t.mu.Unlock()

	return &http.Response{
		StatusCode: resp.Status,
		Status:     http.StatusText(resp.Status),
		Header:     http.Header{"Content-Type": []string{"application/json; charset=utf-8"}},
		Body:       io.NopCloser(strings.NewReader(resp.Body)),
		Request:    req,
	}, nil
}

// Requests returns every call seen so far
func (t *Transport) Requests() []Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Request(nil), t.requests...)
}

// Calls returns the recorded calls for method and path
func (t *Transport) Calls(method, path string) []Request {
	var out []Request
	for _, r := range t.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}
