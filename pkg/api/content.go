package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/goliatone/go-editors/pkg/model"
)

// Content is the payload of editor-content and upload responses: the rendered
// panel markup plus the domain value it was rendered from.
type Content struct {
	Template string          `json:"template,omitempty"`
	State    json.RawMessage `json:"state,omitempty"`
}

// HasState reports whether the response carried a non-null state.
func (c Content) HasState() bool {
	trimmed := bytes.TrimSpace(c.State)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Record decodes a single record state. A missing or null state yields nil.
func (c Content) Record() (model.Record, error) {
	if !c.HasState() {
		return nil, nil
	}
	var out model.Record
	if err := json.Unmarshal(c.State, &out); err != nil {
		return nil, fmt.Errorf("api: decode record state: %w", err)
	}
	return out, nil
}

// Records decodes a list state such as a page of assets.
func (c Content) Records() ([]model.Record, error) {
	if !c.HasState() {
		return nil, nil
	}
	var out []model.Record
	if err := json.Unmarshal(c.State, &out); err != nil {
		return nil, fmt.Errorf("api: decode list state: %w", err)
	}
	return out, nil
}

// Meta describes the exchange that produced a response.
type Meta struct {
	Route    string
	URL      string
	Status   int
	Duration time.Duration
}

// Response pairs decoded content with transport metadata.
type Response struct {
	Content
	Meta Meta
}
