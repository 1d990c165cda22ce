// Package client implements the RPC client for the document store.
// It provides an implementation of the docstore.IDocStore interface
// that forwards all operations to a remote server via RPC.
//
// The package focuses on:
//   - Transparent RPC access to a remote document store
//   - Integration with the transport and serialization layers
//   - Conversion of RPC error envelopes back into typed docstore errors
//
// Key Components:
//
//   - NewRPCDocStore: Factory function that creates a client implementing the
//     docstore.IDocStore interface. This client forwards all operations to the
//     remote server via the configured transport layer.
//
// Usage Example:
//
//	// Configure the client
//	config := common.ClientConfig{
//	  Endpoints:              []string{"localhost:5000"},
//	  TimeoutSecond:          5,
//	  RetryCount:             3,
//	  ConnectionsPerEndpoint: 1,
//	}
//
//	// Create a serializer
//	serializer := serializer.NewBinarySerializer()
//
//	// Create the store client
//	store, _ := client.NewRPCDocStore(config, tcp.NewTCPClientTransport(), serializer)
//
//	// Use the store
//	store.CreateNamespace("users")
//	id, _ := store.CreateDocument("users", "u1", docstore.Document{"name": "ada"})
//	doc, _ := store.RetrieveDocument("users", id)
//
// Failed operations come back as *docstore.Error values carrying the
// same kind (bad request, not found, conflict, engine) that a local
// store would have produced, so callers can switch transparently
// between local and remote stores.
//
// Performance Considerations:
//
//   - For applications that frequently send large payloads, increasing ConnectionsPerEndpoint
//     can improve throughput by allowing parallel requests.
//
//   - For small messages, a single connection per endpoint is often more efficient due to
//     reduced connection overhead.
//
//   - The choice of serializer significantly affects performance. The binary serializer
//     provides the best performance and smallest payload size.
//
// Thread Safety:
//
//	The client is thread-safe and can be used concurrently from multiple
//	goroutines without additional synchronization.
package client
