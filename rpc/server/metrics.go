package server

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/redkv/rpc/replication"
	"github.com/VictoriaMetrics/metrics"
	gometrics "github.com/rcrowley/go-metrics"
)

// Metrics collects the server statistics. The counters behind INFO stats
// live in a go-metrics registry, the Prometheus exposition is a
// VictoriaMetrics set that also exports them.
//
// Thread-safety: all methods are safe for concurrent use.
type Metrics struct {
	registry           gometrics.Registry
	ops                gometrics.Meter
	connections        gometrics.Counter
	commands           gometrics.Counter
	rejected           gometrics.Counter
	propagatedCommands gometrics.Counter
	propagatedBytes    gometrics.Counter
	followersAttached  gometrics.Counter

	clients atomic.Int64
	state   *State

	set *metrics.Set
}

func newMetrics(state *State) *Metrics {
	r := gometrics.NewRegistry()
	m := &Metrics{
		registry:           r,
		ops:                gometrics.NewRegisteredMeter("commands.rate", r),
		connections:        gometrics.NewRegisteredCounter("connections.received", r),
		commands:           gometrics.NewRegisteredCounter("commands.processed", r),
		rejected:           gometrics.NewRegisteredCounter("commands.rejected", r),
		propagatedCommands: gometrics.NewRegisteredCounter("replication.propagated.commands", r),
		propagatedBytes:    gometrics.NewRegisteredCounter("replication.propagated.bytes", r),
		followersAttached:  gometrics.NewRegisteredCounter("replication.followers.attached", r),
		state:              state,
		set:                metrics.NewSet(),
	}

	counter := func(c gometrics.Counter) func() float64 {
		return func() float64 { return float64(c.Count()) }
	}
	m.set.NewGauge("redkv_connections_received_total", counter(m.connections))
	m.set.NewGauge("redkv_commands_processed_total", counter(m.commands))
	m.set.NewGauge("redkv_commands_rejected_total", counter(m.rejected))
	m.set.NewGauge("redkv_propagated_commands_total", counter(m.propagatedCommands))
	m.set.NewGauge("redkv_propagated_bytes_total", counter(m.propagatedBytes))
	m.set.NewGauge("redkv_followers_attached_total", counter(m.followersAttached))
	m.set.NewGauge("redkv_instantaneous_ops_per_sec", func() float64 { return m.ops.Rate1() })
	m.set.NewGauge("redkv_connected_clients", func() float64 { return float64(m.clients.Load()) })
	m.set.NewGauge("redkv_connected_followers", func() float64 { return float64(state.Followers()) })
	m.set.NewGauge("redkv_repl_offset", func() float64 { return float64(state.Info().Offset) })
	m.set.NewGauge("redkv_leader_link_up", func() float64 {
		info := state.Info()
		if info.Role == replication.RoleFollower && info.LinkUp {
			return 1
		}
		return 0
	})
	return m
}

// WritePrometheus writes all server and process metrics in the Prometheus
// text format.
func (m *Metrics) WritePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
	metrics.WriteProcessMetrics(w)
}

// Close stops the background rate computation.
func (m *Metrics) Close() {
	m.registry.UnregisterAll()
}

func (m *Metrics) connectionOpened() {
	m.connections.Inc(1)
	m.clients.Add(1)
}

func (m *Metrics) connectionClosed() {
	m.clients.Add(-1)
}

// commandDone records an executed command and its latency.
func (m *Metrics) commandDone(name string, start time.Time) {
	m.commands.Inc(1)
	m.ops.Mark(1)
	m.set.GetOrCreateCounter(fmt.Sprintf(`redkv_commands_total{command=%q}`, name)).Inc()
	m.set.GetOrCreateHistogram(fmt.Sprintf(`redkv_command_duration_seconds{command=%q}`, name)).UpdateDuration(start)
}

func (m *Metrics) commandRejected() {
	m.rejected.Inc(1)
}

func (m *Metrics) followerAttached() {
	m.followersAttached.Inc(1)
}

func (m *Metrics) propagated(result replication.FlushResult) {
	m.propagatedCommands.Inc(int64(result.Commands))
	m.propagatedBytes.Inc(int64(result.Bytes))
}

// infoStats renders the INFO stats section.
func (m *Metrics) infoStats() string {
	lines := []string{
		fmt.Sprintf("total_connections_received:%d", m.connections.Count()),
		fmt.Sprintf("connected_clients:%d", m.clients.Load()),
		fmt.Sprintf("total_commands_processed:%d", m.commands.Count()),
		fmt.Sprintf("instantaneous_ops_per_sec:%d", int64(m.ops.Rate1())),
		fmt.Sprintf("rejected_commands:%d", m.rejected.Count()),
		fmt.Sprintf("connected_followers:%d", m.state.Followers()),
		fmt.Sprintf("propagated_commands:%d", m.propagatedCommands.Count()),
		fmt.Sprintf("propagated_bytes:%d", m.propagatedBytes.Count()),
	}
	return strings.Join(lines, "\r\n")
}
