package serializer

import (
	"github.com/hyperio-mc/hyper/rpc/common"
	"testing"
)

// benchmarkMessages returns a set of messages for targeted benchmarking
func benchmarkMessages() map[string]common.Message {
	return map[string]common.Message{
		"Empty": {
			MsgType: common.MsgTSuccess,
		},
		"SmallKeyOnly": {
			MsgType: common.MsgTDocRetrieve,
			Key:     "k",
		},
		"MediumKeyOnly": {
			MsgType: common.MsgTDocRetrieve,
			Key:     "medium-length-key-for-testing",
		},
		"LargeKeyOnly": {
			MsgType: common.MsgTDocRetrieve,
			Key:     "this-is-a-very-large-key-that-could-be-used-for-storing-data-or-as-a-document-id-in-some-cases",
		},
		"SmallDocument": {
			MsgType:   common.MsgTDocCreate,
			Namespace: "bench",
			Key:       "key",
			Value:     []byte(`{"v":1}`),
		},
		"MediumDocument": {
			MsgType:   common.MsgTDocCreate,
			Namespace: "bench",
			Key:       "key",
			Value:     []byte(`{"name":"medium length value for testing serialization","tags":["a","b"]}`),
		},
		"LargeDocument": {
			MsgType:   common.MsgTDocCreate,
			Namespace: "bench",
			Key:       "key",
			Value:     make([]byte, 1024), // 1KB of data
		},
		"VeryLargeDocument": {
			MsgType:   common.MsgTDocCreate,
			Namespace: "bench",
			Key:       "key",
			Value:     make([]byte, 1024*16), // 16KB of data
		},
		"ManyDocs": {
			MsgType:   common.MsgTDocBulk,
			Namespace: "bench",
			Docs: [][]byte{
				[]byte(`{"_id":"a","v":1}`),
				[]byte(`{"_id":"b","v":2}`),
				[]byte(`{"_id":"c","v":3}`),
				[]byte(`{"_id":"d","v":4}`),
			},
		},
		"CompleteMessage": {
			MsgType:   common.MsgTDocBulk,
			Namespace: "bench",
			Key:       "complete-test-key",
			Value:     []byte("test-value-data"),
			Docs:      [][]byte{[]byte(`{"_id":"a"}`)},
			Ok:        true,
			Status:    200,
			Err:       "This is a test error message",
			Meta:      []byte("test-meta-data-for-benchmarking"),
		},
		"ErrorMessage": {
			MsgType: common.MsgTError,
			Err:     "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.",
		},
	}
}

// BenchmarkSerialize benchmarks serialization for all implementations with various message types
func BenchmarkSerialize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					_, err := serializer.Serialize(msg)
					if err != nil {
						b.Fatalf("Failed to serialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkDeserialize benchmarks deserialization for all implementations with various message types
func BenchmarkDeserialize(b *testing.B) {
	messages := benchmarkMessages()
	serializedData := make(map[string]map[string][]byte)

	// Pre-serialize all messages with all serializers
	for name, factory := range testSerializers {
		serializer := factory()
		serializedData[name] = make(map[string][]byte)

		for msgName, msg := range messages {
			data, err := serializer.Serialize(msg)
			if err != nil {
				b.Fatalf("Failed to serialize %s with %s: %v", msgName, name, err)
			}
			serializedData[name][msgName] = data
		}
	}

	// Benchmark deserialization
	for name, factory := range testSerializers {
		for msgName := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				data := serializedData[name][msgName]
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					var msg common.Message
					err := serializer.Deserialize(data, &msg)
					if err != nil {
						b.Fatalf("Failed to deserialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkSize measures and reports the serialized size for each message type
func BenchmarkSize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		serializer := factory()

		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				data, err := serializer.Serialize(msg)
				if err != nil {
					b.Fatalf("Failed to serialize: %v", err)
				}

				// Report the size as a custom metric
				b.ReportMetric(float64(len(data)), "bytes")

				// Minimal loop to satisfy benchmark requirements
				for i := 0; i < b.N; i++ {
					_ = data
				}
			})
		}
	}
}
