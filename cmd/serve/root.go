package serve

import (
	"fmt"
	"strings"

	cmdUtil "github.com/hyperio-mc/hyper/cmd/util"
	"github.com/hyperio-mc/hyper/rpc/common"
	"github.com/hyperio-mc/hyper/rpc/serializer"
	"github.com/hyperio-mc/hyper/rpc/server"
	"github.com/hyperio-mc/hyper/rpc/transport"
	"github.com/hyperio-mc/hyper/rpc/transport/http"
	"github.com/hyperio-mc/hyper/rpc/transport/tcp"
	"github.com/hyperio-mc/hyper/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the hyper server",
		Long:    `Start the hyper server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is HYPER_<flag> (e.g. HYPER_DATA_DIR=/var/lib/hyper)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. localhost:8080, /tmp/hyper.sock, ...)"))

	key = "engine"
	ServeCmd.PersistentFlags().String(key, "pebble", cmdUtil.WrapString("The storage engine to use (pebble, memory). The memory engine keeps all data in RAM and loses it on shutdown"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "data", cmdUtil.WrapString("The directory used for storing documents (required for the pebble engine, ignored for memory)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Request timeout in seconds"))

	key = "buffer-size"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("The size of the read/write buffers for the transport (in KB, ignored for http)"))

	key = "workers-per-conn"
	ServeCmd.PersistentFlags().Int(key, 8, cmdUtil.WrapString("How many requests may be processed concurrently per connection (ignored for http)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.Transport = viper.GetString("transport")
	serveCmdConfig.Serializer = viper.GetString("serializer")
	serveCmdConfig.Engine = viper.GetString("engine")
	serveCmdConfig.DataDir = viper.GetString("data-dir")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	// the pebble engine persists to disk and needs a place to do so
	if serveCmdConfig.Engine == "pebble" && serveCmdConfig.DataDir == "" {
		return fmt.Errorf("data-dir is required for the pebble engine")
	}

	return nil
}

// run starts the hyper server
func run(_ *cobra.Command, _ []string) error {

	// parse the serializer
	var s serializer.IRPCSerializer
	switch serveCmdConfig.Serializer {
	case "json":
		s = serializer.NewJSONSerializer()
	case "gob":
		s = serializer.NewGOBSerializer()
	case "binary":
		s = serializer.NewBinarySerializer()
	default:
		return fmt.Errorf("invalid serializer %s", serveCmdConfig.Serializer)
	}

	// parse the transport
	bufferSize := viper.GetInt("buffer-size") * 1024
	workersPerConn := viper.GetInt("workers-per-conn")

	var t transport.IRPCServerTransport
	switch serveCmdConfig.Transport {
	case "http":
		t = http.NewHttpServerTransport()
	case "tcp":
		t = tcp.NewTCPServerTransport(bufferSize, workersPerConn)
	case "unix":
		t = unix.NewUnixServerTransport(bufferSize, workersPerConn)
	default:
		return fmt.Errorf("invalid transport %s", serveCmdConfig.Transport)
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		s,
	)

	return serv.Serve()
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("hyper")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
