// Package client implements a RESP client for redkv. It is used by the
// command line client and by followers for the replication handshake.
//
// Client.Do sends a raw command and returns the reply value. The typed
// methods (Ping, Get, Set, XAdd, ...) convert error replies into a
// *ReplyError and check the reply kind.
//
// Usage Example:
//
//	c, err := client.Dial(ctx, tcp.NewTCPClientTransport(), common.ClientConfig{
//		Endpoint:      "localhost:6379",
//		TimeoutSecond: 5,
//		RetryCount:    3,
//	})
//	if err != nil { ... }
//	defer c.Close()
//
//	err = c.Set("greeting", "hello", 10*time.Second)
//	value, ok, err := c.Get("greeting")
package client
