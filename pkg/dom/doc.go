// Package dom exposes the narrow document contract field editors bind to:
// CSS-selector queries over form controls, value/property/attribute access,
// fragment replacement and direct event listeners. Reads against a selector
// that matches nothing report ok=false rather than failing, because controls
// routinely disappear while pages transition.
//
// Tree is the HTML-backed implementation. Fragments inserted through SetHTML
// and Append are sanitized with a bluemonday policy that keeps form controls
// and data attributes. A Tree is not safe for concurrent use; confine it to the
// event loop that dispatches its listeners.
package dom
