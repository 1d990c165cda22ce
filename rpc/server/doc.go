// Package server implements the RPC server for the document store system.
// It provides the adapter for handling RPC requests against the document store,
// along with the core server implementation that owns the storage engine and
// wires the transport to the adapter.
//
// The package focuses on:
//   - Server-side RPC request handling for namespace and document operations
//   - Adapter pattern to decouple application logic from RPC mechanisms
//   - Engine selection (persistent or in-memory) based on the server configuration
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a
//     docstore.IDocStore.
//
//   - NewDocStoreServerAdapter: Factory function creating the adapter for document
//     store operations, translating RPC requests to docstore.IDocStore method calls
//     and mapping typed store errors to status codes on the wire.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	// Create server configuration
//	config := common.ServerConfig{
//	  Endpoint: "0.0.0.0:8080",
//	  Engine: "pebble",
//	  DataDir: "/var/lib/hyper",
//	  TimeoutSecond: 5,
//	  LogLevel: "info",
//	}
//
//	// Create and start the server
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPDefaultServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	// Start the server
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent requests
//	across multiple connections. Each request is processed independently.
//	The Listen method is not thread-safe and should be called only once.
package server
