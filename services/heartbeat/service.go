// Package heartbeat publishes a retained liveness beat under sys/heartbeat so
// bridges and monitors can tell a quiet node from a dead one.
package heartbeat

import (
	"context"
	"encoding/json"
	"time"

	"adccal-go/bus"
	"adccal-go/types"
	"adccal-go/x/timex"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	topicHeartbeat       = bus.T("sys", "heartbeat")
)

const defaultInterval = time.Second

type Service struct{}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	started := timex.NowMs()
	var seq uint32

	beat := func() {
		seq++
		now := timex.NowMs()
		conn.Publish(conn.NewMessage(topicHeartbeat, types.Heartbeat{
			Seq:     seq,
			UptimeS: uint32((now - started) / 1000),
			TSms:    now,
		}, true))
	}

	for {
		select {
		case <-ctx.Done():
			println("Info: heartbeat service stopping")
			return
		case <-tick.C:
			beat()
		case msg := <-cfgSub.Channel():
			ms := parseIntervalMs(msg.Payload)
			if ms == 0 {
				println("Info: heartbeat config ignored (no interval_ms)")
				continue
			}
			tick.Reset(time.Duration(ms) * time.Millisecond)
			println("Info: heartbeat interval set to", ms, "ms")
		}
	}
}

// parseIntervalMs accepts both raw JSON config sections and already-decoded
// maps. Returns 0 when no usable interval is present.
func parseIntervalMs(p any) uint32 {
	switch v := p.(type) {
	case []byte:
		var cfg struct {
			IntervalMs uint32 `json:"interval_ms"`
		}
		if err := json.Unmarshal(v, &cfg); err != nil {
			return 0
		}
		return cfg.IntervalMs
	case map[string]any:
		if iv, ok := v["interval_ms"].(float64); ok && iv > 0 {
			return uint32(iv)
		}
	}
	return 0
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
