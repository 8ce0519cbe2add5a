package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/goliatone/go-editors/pkg/dom"
)

// Request is one call issued by an editor.
type Request struct {
	Route  string
	Method string
	URL    string
	File   *dom.File
}

// Transport performs a request synchronously. Clients run transports off the
// loop and deliver results back onto it.
type Transport interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// TransportFunc adapts a function into a Transport.
type TransportFunc func(ctx context.Context, req Request) (Response, error)

// Do implements Transport.
func (fn TransportFunc) Do(ctx context.Context, req Request) (Response, error) {
	return fn(ctx, req)
}

// HTTPTransport talks JSON to the content endpoints over net/http. Uploads are
// sent as multipart forms with the file under UploadField.
type HTTPTransport struct {
	Client      *http.Client
	UploadField string
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport constructs a transport with the provided client, or a
// client with timeout when nil.
func NewHTTPTransport(client *http.Client, timeout time.Duration) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPTransport{Client: client, UploadField: "file"}
}

// Do implements Transport.
func (t *HTTPTransport) Do(ctx context.Context, req Request) (Response, error) {
	started := time.Now()
	meta := Meta{Route: req.Route, URL: req.URL}

	httpReq, err := t.newRequest(ctx, req)
	if err != nil {
		return Response{Meta: meta}, err
	}
	httpReq.Header.Set("Accept", "application/json")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		meta.Duration = time.Since(started)
		return Response{Meta: meta}, fmt.Errorf("api: do request: %w", err)
	}
	defer resp.Body.Close()

	meta.Status = resp.StatusCode
	body, err := io.ReadAll(resp.Body)
	meta.Duration = time.Since(started)
	if err != nil {
		return Response{Meta: meta}, fmt.Errorf("api: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{Meta: meta}, fmt.Errorf("%w %d from %s", ErrUnexpectedStatus, resp.StatusCode, req.URL)
	}

	var content Content
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &content); err != nil {
			return Response{Meta: meta}, fmt.Errorf("api: decode: %w", err)
		}
	}
	return Response{Content: content, Meta: meta}, nil
}

func (t *HTTPTransport) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if req.File == nil {
		if method == "" {
			method = http.MethodGet
		}
		httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("api: request: %w", err)
		}
		return httpReq, nil
	}

	if method == "" {
		method = http.MethodPost
	}
	field := t.UploadField
	if field == "" {
		field = "file"
	}
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, req.File.Name)
	if err != nil {
		return nil, fmt.Errorf("api: multipart: %w", err)
	}
	if _, err := part.Write(req.File.Data); err != nil {
		return nil, fmt.Errorf("api: multipart: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("api: multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, &buf)
	if err != nil {
		return nil, fmt.Errorf("api: request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	return httpReq, nil
}
