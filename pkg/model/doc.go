// Package model defines the descriptors editors bind to. A Field carries the
// stable slug used both as the DOM selector key and as the key of the value in
// a flat Record; a Model groups the fields of one content table. Type tags on a
// Field select the editor variant through the editor registry. Records are the
// loosely typed payloads exchanged with the content endpoints (pages, assets,
// foreign-key targets) and expose helpers for the identifier and string access
// patterns editors rely on.
package model
