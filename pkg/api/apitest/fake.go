// Package apitest provides an in-memory api.Transport for editor tests.
package apitest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/goliatone/go-editors/pkg/api"
)

// Handler answers one request.
type Handler func(req api.Request, query url.Values) (api.Response, error)

// Transport routes requests to per-route handlers and records every call.
type Transport struct {
	mu       sync.Mutex
	handlers map[string]Handler
	requests []api.Request
}

var _ api.Transport = (*Transport)(nil)

// New returns an empty fake transport.
func New() *Transport {
	return &Transport{handlers: make(map[string]Handler)}
}

// Handle registers h for route.
func (t *Transport) Handle(route string, h Handler) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[route] = h
	return t
}

// Do implements api.Transport.
func (t *Transport) Do(_ context.Context, req api.Request) (api.Response, error) {
	t.mu.Lock()
	t.requests = append(t.requests, req)
	h := t.handlers[req.Route]
	t.mu.Unlock()

	if h == nil {
		return api.Response{}, fmt.Errorf("apitest: no handler for route %q", req.Route)
	}
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return api.Response{}, err
	}
	resp, err := h(req, parsed.Query())
	resp.Meta.Route = req.Route
	resp.Meta.URL = req.URL
	if err == nil && resp.Meta.Status == 0 {
		resp.Meta.Status = 200
	}
	return resp, err
}

// Requests returns a copy of the recorded requests.
func (t *Transport) Requests() []api.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]api.Request(nil), t.requests...)
}

// JSON builds a response whose state is value encoded as JSON.
func JSON(template string, value any) api.Response {
	raw, err := json.Marshal(value)
	if err != nil {
		panic(err)
	}
	return api.Response{Content: api.Content{Template: template, State: raw}}
}
