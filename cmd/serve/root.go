package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cmdUtil "github.com/ValentinKolb/redkv/cmd/util"
	"github.com/ValentinKolb/redkv/rpc/common"
	"github.com/ValentinKolb/redkv/rpc/server"
	"github.com/ValentinKolb/redkv/rpc/transport/tcp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the redkv server",
		Long:    `Start the redkv server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is REDKV_<flag> (e.g. REDKV_REPLICAOF="localhost 6379")`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "port"
	ServeCmd.PersistentFlags().Int(key, 6379, cmdUtil.WrapString("The TCP port the server listens on"))

	key = "bind"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0", cmdUtil.WrapString("The address the TCP listener binds to"))

	key = "socket"
	ServeCmd.PersistentFlags().String(key, "/tmp/redkv.sock", cmdUtil.WrapString("The socket path (only for the unix transport)"))

	key = "replicaof"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Run as a follower of the given leader. Format: '<host> <port>' or '<host>:<port>'. Empty means the server is a leader"))

	key = "handshake-retries"
	ServeCmd.PersistentFlags().Int(key, 5, cmdUtil.WrapString("(Follower) How many times the handshake with the leader is retried before the server gives up"))

	key = "handshake-timeout"
	ServeCmd.PersistentFlags().Duration(key, 0, cmdUtil.WrapString("(Follower) Upper bound for one handshake with the leader (0 = no bound)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 0, cmdUtil.WrapString("Close client connections idle for more than this many seconds (0 = never)"))

	key = "shards"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Number of shards of the key-value engine (0 = number of CPUs)"))

	key = "gc-interval"
	ServeCmd.PersistentFlags().Duration(key, 0, cmdUtil.WrapString("Interval of the expired key collector (0 = engine default)"))

	key = "max-value-size"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Largest accepted string value in bytes (0 = unlimited)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Address for the HTTP metrics and health endpoint (e.g. localhost:9121). Empty disables it"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	replicaOf, err := common.ParseReplicaOf(viper.GetString("replicaof"))
	if err != nil {
		return err
	}

	serveCmdConfig.Port = viper.GetInt("port")
	serveCmdConfig.BindHost = viper.GetString("bind")
	serveCmdConfig.Transport = common.TransportType(viper.GetString("transport"))
	serveCmdConfig.SocketPath = viper.GetString("socket")
	serveCmdConfig.ReplicaOf = replicaOf
	serveCmdConfig.HandshakeRetries = viper.GetInt("handshake-retries")
	serveCmdConfig.HandshakeTimeout = viper.GetDuration("handshake-timeout")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.Shards = viper.GetInt("shards")
	serveCmdConfig.GCInterval = viper.GetDuration("gc-interval")
	serveCmdConfig.MaxValueSize = viper.GetInt("max-value-size")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	if err := serveCmdConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// run starts the redkv server and blocks until SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	if err := common.InitLoggers(serveCmdConfig.LogLevel); err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport(serveCmdConfig.Transport)
	if err != nil {
		return err
	}

	serv := server.NewServer(
		*serveCmdConfig,
		t,
		tcp.NewTCPClientTransport(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serv.Serve(ctx)
}
