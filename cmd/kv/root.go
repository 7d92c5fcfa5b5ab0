package kv

import (
	"context"

	"github.com/ValentinKolb/redkv/cmd/util"
	"github.com/ValentinKolb/redkv/rpc/client"
	"github.com/ValentinKolb/redkv/rpc/common"
	"github.com/ValentinKolb/redkv/rpc/transport"
	"github.com/spf13/cobra"
)

var (
	rpcClient *client.Client

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Send commands to a redkv server",
		PersistentPreRunE:  setupKVClient,
		PersistentPostRunE: closeKVClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add connection flags to the KV command
	util.SetupClientFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(pingCmd)
	KeyValueCommands.AddCommand(echoCmd)
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(typeCmd)
	KeyValueCommands.AddCommand(infoCmd)
	KeyValueCommands.AddCommand(xaddCmd)
	KeyValueCommands.AddCommand(xrangeCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient connects to the server
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	t, err := util.GetClientTransport()
	if err != nil {
		return err
	}

	rpcClient, err = dial(cmd.Context(), t, util.GetClientConfig())
	return err
}

func dial(ctx context.Context, t transport.IClientTransport, config *common.ClientConfig) (*client.Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return client.Dial(ctx, t, *config)
}

func closeKVClient(_ *cobra.Command, _ []string) error {
	if rpcClient == nil {
		return nil
	}
	return rpcClient.Close()
}
