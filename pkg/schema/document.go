package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Document wraps the raw schema payload and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument constructs a Document wrapper while validating the inputs.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if len(raw) == 0 {
		return Document{}, errors.New("schema: raw document is empty")
	}
	clone := append([]byte(nil), raw...)
	return Document{source: src, raw: clone}, nil
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a defensive copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Load reads the document behind src. URL sources are fetched with client,
// or http.DefaultClient when client is nil.
func Load(ctx context.Context, src Source, client *http.Client) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	switch src.Kind() {
	case SourceKindFile:
		raw, err := os.ReadFile(src.Location())
		if err != nil {
			return Document{}, fmt.Errorf("schema: read %s: %w", src.Location(), err)
		}
		return NewDocument(src, raw)
	case SourceKindURL:
		if client == nil {
			client = http.DefaultClient
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Location(), nil)
		if err != nil {
			return Document{}, fmt.Errorf("schema: build request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return Document{}, fmt.Errorf("schema: fetch %s: %w", src.Location(), err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return Document{}, fmt.Errorf("schema: fetch %s: status %d", src.Location(), resp.StatusCode)
		}
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return Document{}, fmt.Errorf("schema: read %s: %w", src.Location(), err)
		}
		return NewDocument(src, raw)
	default:
		return Document{}, fmt.Errorf("schema: unsupported source kind %q", src.Kind())
	}
}
