// Package asset implements the image asset field editor and the stack editor
// it opens to upload or choose an asset.
package asset
