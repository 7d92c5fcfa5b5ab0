package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/redkv/cmd/kv"
	"github.com/ValentinKolb/redkv/cmd/serve"
	"github.com/ValentinKolb/redkv/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "redkv",
		Short: "RESP key-value and stream server",
		Long: fmt.Sprintf(`redkv (v%s)

An in-memory key-value and stream server speaking the Redis
serialization protocol, with leader/follower replication.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of redkv",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("redkv v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
