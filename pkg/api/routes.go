package api

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Route names used by the editors.
const (
	RouteUploadAsset   = "upload-asset"
	RouteEditorContent = "editor-content"
)

// Params are route parameters. Values that fill a {placeholder} are consumed
// by the path; the rest become query parameters. Empty values are omitted.
type Params map[string]string

// Routes maps route names to path patterns such as "/content/{model}".
type Routes struct {
	BaseURL  string
	Patterns map[string]string
}

// DefaultRoutes returns the patterns served by the reference content server.
func DefaultRoutes() Routes {
	return Routes{
		Patterns: map[string]string{
			RouteUploadAsset:   "/upload-asset",
			RouteEditorContent: "/editor-content",
		},
	}
}

// With returns a copy of r with the given patterns merged in.
func (r Routes) With(patterns map[string]string) Routes {
	merged := make(map[string]string, len(r.Patterns)+len(patterns))
	for name, pattern := range r.Patterns {
		merged[name] = pattern
	}
	for name, pattern := range patterns {
		if trimmed := strings.TrimSpace(pattern); trimmed != "" {
			merged[strings.TrimSpace(name)] = trimmed
		}
	}
	return Routes{BaseURL: r.BaseURL, Patterns: merged}
}

// RouteFor resolves a named route into a URL.
func (r Routes) RouteFor(name string, params Params) (string, error) {
	pattern, ok := r.Patterns[name]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownRoute, name)
	}

	used := make(map[string]struct{})
	var path strings.Builder
	rest := pattern
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			path.WriteString(rest)
			break
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			path.WriteString(rest)
			break
		}
		key := rest[open+1 : open+closing]
		value := params[key]
		if value == "" {
			return "", fmt.Errorf("%w %q for route %q", ErrMissingParam, key, name)
		}
		path.WriteString(rest[:open])
		path.WriteString(url.PathEscape(value))
		used[key] = struct{}{}
		rest = rest[open+closing+1:]
	}

	query := url.Values{}
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, consumed := used[key]; consumed {
			continue
		}
		if value := params[key]; value != "" {
			query.Set(key, value)
		}
	}

	out := strings.TrimRight(r.BaseURL, "/") + path.String()
	if encoded := query.Encode(); encoded != "" {
		out += "?" + encoded
	}
	return out, nil
}
