package kv

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Checks that the server answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := rpcClient.Ping()
			if err != nil {
				return err
			}
			fmt.Println(reply)
			return nil
		},
	}
	echoCmd = &cobra.Command{
		Use:   "echo [message]",
		Short: "Sends a message and prints the server's echo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := rpcClient.Echo(args[0])
			if err != nil {
				return err
			}
			fmt.Println(reply)
			return nil
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [key] [value] [expireInMs]",
		Short: "Sets the value for a key, optionally expiring after the given milliseconds",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ttl time.Duration
			if len(args) == 3 {
				ms, err := strconv.ParseUint(args[2], 10, 63)
				if err != nil || ms == 0 {
					return fmt.Errorf("expireInMs must be a positive number")
				}
				ttl = time.Duration(ms) * time.Millisecond
			}
			if err := rpcClient.Set(args[0], args[1], ttl); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value, ok, err := rpcClient.Get(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%v, value=%s\n", key, ok, value)
			return nil
		},
	}
	typeCmd = &cobra.Command{
		Use:   "type [key]",
		Short: "Prints the type of a key (string, stream or none)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kt, err := rpcClient.Type(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, type=%s\n", args[0], kt)
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info [section...]",
		Short: "Prints server information (replication, stats, keyspace)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"replication", "stats", "keyspace"}
			}
			text, err := rpcClient.Info(args...)
			if err != nil {
				return err
			}
			fmt.Println(strings.ReplaceAll(text, "\r\n", "\n"))
			return nil
		},
	}
	xaddCmd = &cobra.Command{
		Use:   "xadd [key] [id] [field] [value] [field value...]",
		Short: "Appends an entry to a stream. Use * to let the server pick the id",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 4 || len(args)%2 != 0 {
				return fmt.Errorf("expected a key, an id and field/value pairs")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := rpcClient.XAdd(args[0], args[1], args[2:]...)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, id=%s\n", args[0], id)
			return nil
		},
	}
	xrangeCmd = &cobra.Command{
		Use:   "xrange [key] [start] [end] [count]",
		Short: "Reads stream entries between start and end (- and + for the whole stream)",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			count := 0
			if len(args) == 4 {
				n, err := strconv.Atoi(args[3])
				if err != nil || n <= 0 {
					return fmt.Errorf("count must be a positive number")
				}
				count = n
			}
			entries, err := rpcClient.XRange(args[0], args[1], args[2], count)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s %s\n", e.ID, strings.Join(e.Fields, " "))
			}
			fmt.Printf("(%d entries)\n", len(entries))
			return nil
		},
	}
)
