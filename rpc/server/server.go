package server

import (
	"fmt"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/VictoriaMetrics/metrics"
	"github.com/hyperio-mc/hyper/lib/docstore"
	"github.com/hyperio-mc/hyper/lib/engine"
	"github.com/hyperio-mc/hyper/lib/engine/engines/memory"
	"github.com/hyperio-mc/hyper/lib/engine/engines/pebble"
	"github.com/hyperio-mc/hyper/lib/logger"
	"github.com/hyperio-mc/hyper/rpc/common"
	"github.com/hyperio-mc/hyper/rpc/serializer"
	"github.com/hyperio-mc/hyper/rpc/transport"
)

var (
	Logger = logger.GetLogger("rpc")

	errorsTotal = metrics.GetOrCreateCounter("hyper_rpc_errors_total")
)

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	// Create the RPC server
	return rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		adapter:    NewDocStoreServerAdapter(),
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	adapter    IRPCServerAdapter
	store      docstore.IDocStore
}

func (s *rpcServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(req []byte) []byte {
		var msg common.Message
		var respMsg common.Message

		// Decode the request
		err := s.serializer.Deserialize(req, &msg)

		if err != nil {
			respMsg = *common.NewErrorResponse(
				fmt.Sprintf("failed to deserialize request: %s", err))
		} else {
			// Let the adapter handle the request
			respMsg = *s.adapter.Handle(&msg, s.store)
		}

		if !respMsg.Ok {
			errorsTotal.Inc()
		}

		// Return result
		val, err := s.serializer.Serialize(respMsg)
		if err != nil {
			Logger.Errorf("failed to serialize response: %v", err)
			val, _ = s.serializer.Serialize(
				*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
		}
		return val
	})
}

// newEngine creates the storage engine selected by the configuration
func newEngine(config common.ServerConfig) (engine.Engine, error) {
	switch config.Engine {
	case "", "pebble":
		if config.DataDir == "" {
			return nil, fmt.Errorf("pebble engine requires a data directory")
		}
		return pebble.NewPebbleEngine(config.DataDir, nil)
	case "memory":
		return memory.NewMemoryEngine(), nil
	default:
		return nil, fmt.Errorf("unknown engine: %s", config.Engine)
	}
}

func (s *rpcServer) init() error {

	// Init logger
	if err := common.InitLoggers(s.config.LogLevel); err != nil {
		return err
	}

	// Create the storage engine
	eng, err := newEngine(s.config)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	// Create the document store on top of the engine
	store, err := docstore.NewDocStore(eng)
	if err != nil {
		return fmt.Errorf("failed to create document store: %w", err)
	}
	s.store = store

	Logger.Infof("document store setup completed successfully (engine: %s)", s.config.Engine)

	// Configure the transport layer
	s.registerTransportHandler()

	return nil
}

// Serve starts the RPC server
// This function will also initialize the server plus the document store
// and start the transport layer
func (s *rpcServer) Serve() error {
	err := s.init()
	if err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}
