// Package api is the editors' view of the server: named routes resolved into
// URLs, model descriptors looked up by slug, and a transport whose calls are
// surfaced as loop tasks. Content responses carry the rendered template for an
// editor panel and the domain state behind it.
package api
