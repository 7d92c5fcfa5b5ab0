package client

import (
	"strconv"
	"time"

	"github.com/ValentinKolb/redkv/lib/resp"
)

// StreamEntry is one entry returned by XRange.
type StreamEntry struct {
	ID     string
	Fields []string
}

// Ping sends PING and returns the reply text.
func (c *Client) Ping() (string, error) {
	v, err := c.invoke("PING")
	if err != nil {
		return "", err
	}
	return expectString("ping", v)
}

// Echo sends ECHO and returns the reply text.
func (c *Client) Echo(msg string) (string, error) {
	v, err := c.invoke("ECHO", msg)
	if err != nil {
		return "", err
	}
	return expectString("echo", v)
}

// Get returns the value of key. loaded is false for a missing or expired key.
func (c *Client) Get(key string) (value string, loaded bool, err error) {
	v, err := c.invoke("GET", key)
	if err != nil {
		return "", false, err
	}
	if v.Kind == resp.KindBulkString && v.Null {
		return "", false, nil
	}
	s, err := expectString("get", v)
	return s, err == nil, err
}

// Set writes key. A ttl > 0 is sent as px in milliseconds.
func (c *Client) Set(key, value string, ttl time.Duration) error {
	args := []string{"SET", key, value}
	if ttl > 0 {
		ms := ttl.Milliseconds()
		if ms == 0 {
			ms = 1
		}
		args = append(args, "px", strconv.FormatInt(ms, 10))
	}
	v, err := c.invoke(args...)
	if err != nil {
		return err
	}
	if !v.EqualFold("OK") {
		return &UnexpectedReplyError{Command: "SET", Reply: v}
	}
	return nil
}

// Info returns the text of the requested INFO sections.
func (c *Client) Info(sections ...string) (string, error) {
	v, err := c.invoke(append([]string{"INFO"}, sections...)...)
	if err != nil {
		return "", err
	}
	return expectString("info", v)
}

// Type returns "string", "stream" or "none".
func (c *Client) Type(key string) (string, error) {
	v, err := c.invoke("TYPE", key)
	if err != nil {
		return "", err
	}
	return expectString("type", v)
}

// XAdd appends field/value pairs to a stream and returns the assigned id.
func (c *Client) XAdd(key, id string, fields ...string) (string, error) {
	args := append([]string{"XADD", key, id}, fields...)
	v, err := c.invoke(args...)
	if err != nil {
		return "", err
	}
	return expectString("xadd", v)
}

// XRange returns the entries of a stream between start and end. A count > 0
// limits the result.
func (c *Client) XRange(key, start, end string, count int) ([]StreamEntry, error) {
	args := []string{"XRANGE", key, start, end}
	if count > 0 {
		args = append(args, "COUNT", strconv.Itoa(count))
	}
	v, err := c.invoke(args...)
	if err != nil {
		return nil, err
	}
	if v.Kind != resp.KindArray {
		return nil, &UnexpectedReplyError{Command: "XRANGE", Reply: v}
	}

	entries := make([]StreamEntry, 0, len(v.Elems))
	for _, e := range v.Elems {
		if e.Kind != resp.KindArray || len(e.Elems) != 2 || !e.Elems[0].IsString() {
			return nil, &UnexpectedReplyError{Command: "XRANGE", Reply: v}
		}
		fields, ok := e.Elems[1].Strings()
		if !ok {
			return nil, &UnexpectedReplyError{Command: "XRANGE", Reply: v}
		}
		entries = append(entries, StreamEntry{ID: e.Elems[0].Str, Fields: fields})
	}
	return entries, nil
}
