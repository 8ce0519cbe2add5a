package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-editors/pkg/dom"
	"github.com/goliatone/go-editors/pkg/loop"
	"github.com/goliatone/go-editors/pkg/model"
)

// Context is what editors need from the surrounding application: routes,
// model lookup, asynchronous requests and the loop those requests complete on.
type Context interface {
	RouteFor(name string, params Params) (string, error)
	Model(name string) (model.Model, bool)
	Fetch(ctx context.Context, route, url string) *loop.Task[Response]
	Upload(ctx context.Context, route, url string, file dom.File) *loop.Task[Response]
	Loop() *loop.Loop
}

// Observer receives one call per completed request.
type Observer interface {
	ObserveRequest(route, outcome string, duration time.Duration)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTransport overrides the transport (HTTP by default).
func WithTransport(transport Transport) ClientOption {
	return func(c *Client) {
		if transport != nil {
			c.transport = transport
		}
	}
}

// WithRoutes overrides the route table.
func WithRoutes(routes Routes) ClientOption {
	return func(c *Client) {
		c.routes = routes
	}
}

// WithModels registers model descriptors for lookup by slug.
func WithModels(models ...model.Model) ClientOption {
	return func(c *Client) {
		for _, m := range models {
			if m.Slug != "" {
				c.models[m.Slug] = m
			}
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver reports request outcomes to obs.
func WithObserver(obs Observer) ClientOption {
	return func(c *Client) {
		c.observer = obs
	}
}

// Client implements Context on top of a Transport and a Loop.
type Client struct {
	loop      *loop.Loop
	routes    Routes
	models    map[string]model.Model
	transport Transport
	logger    *zap.Logger
	observer  Observer
}

var _ Context = (*Client)(nil)

// NewClient constructs a Client bound to l.
func NewClient(l *loop.Loop, options ...ClientOption) *Client {
	c := &Client{
		loop:      l,
		routes:    DefaultRoutes(),
		models:    make(map[string]model.Model),
		transport: NewHTTPTransport(http.DefaultClient, 0),
		logger:    zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	if c.loop == nil {
		c.loop = loop.New()
	}
	return c
}

// Loop returns the loop results are delivered on.
func (c *Client) Loop() *loop.Loop {
	return c.loop
}

// RouteFor resolves a named route.
func (c *Client) RouteFor(name string, params Params) (string, error) {
	return c.routes.RouteFor(name, params)
}

// Model looks up a model descriptor. Unknown slugs return a bare descriptor
// with ok=false so callers can still address the endpoint by slug.
func (c *Client) Model(name string) (model.Model, bool) {
	m, ok := c.models[name]
	if !ok {
		return model.Model{Slug: name}, false
	}
	return m, true
}

// Fetch issues a GET for url.
func (c *Client) Fetch(ctx context.Context, route, url string) *loop.Task[Response] {
	return c.do(ctx, Request{Route: route, Method: http.MethodGet, URL: url})
}

// Upload posts file to url.
func (c *Client) Upload(ctx context.Context, route, url string, file dom.File) *loop.Task[Response] {
	f := file
	return c.do(ctx, Request{Route: route, Method: http.MethodPost, URL: url, File: &f})
}

func (c *Client) do(ctx context.Context, req Request) *loop.Task[Response] {
	if c.transport == nil {
		return loop.Resolved(c.loop, Response{Meta: Meta{Route: req.Route, URL: req.URL}}, ErrNoTransport)
	}
	transport, logger, observer := c.transport, c.logger, c.observer
	return loop.Start(c.loop, ctx, func(ctx context.Context) (Response, error) {
		started := time.Now()
		resp, err := transport.Do(ctx, req)
		outcome := "success"
		if err != nil {
			outcome = "error"
			logger.Warn("request failed",
				zap.String("route", req.Route),
				zap.String("url", req.URL),
				zap.Error(err),
			)
		} else {
			logger.Debug("request completed",
				zap.String("route", req.Route),
				zap.String("url", req.URL),
				zap.Int("status", resp.Meta.Status),
			)
		}
		if observer != nil {
			observer.ObserveRequest(req.Route, outcome, time.Since(started))
		}
		return resp, err
	})
}
