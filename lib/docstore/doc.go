// Package docstore implements a schemaless document store on top of
// an ordered key-value engine.
//
// Documents are JSON objects addressed by a string id inside a named
// namespace. Namespaces are registered under client-facing aliases
// and mapped to unique engine regions, so removing and recreating an
// alias always yields an empty namespace.
//
// The store offers conflict-aware CRUD, ordered listing with
// inclusive key bounds, declarative selector queries with sorting,
// paging and projection, index metadata registration and atomic bulk
// writes. All failures are reported as *Error values carrying a
// machine-readable kind and an HTTP-style status code.
//
// The engine is pluggable, see the lib/engine package.
package docstore
