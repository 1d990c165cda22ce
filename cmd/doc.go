// Package cmd implements the command-line interface for the hyper document
// store. It provides a hierarchical command structure with operations for
// running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - doc: Commands for document operations (create, get, query, bulk, etc.)
//   - serve: Commands for starting and configuring the hyper server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See hyper -help for a list of all commands.
package cmd
