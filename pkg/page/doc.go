// Package page builds the field editors of one content page from a model
// descriptor and coordinates hydrating, attaching and collecting them.
package page
