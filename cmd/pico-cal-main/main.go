package main

import (
	"context"
	"runtime"
	"time"

	"adccal-go/bus"
	"adccal-go/services/config"
	"adccal-go/services/hal"
	"adccal-go/services/heartbeat"
	"adccal-go/services/report"
	"adccal-go/types"
)

// waitHALReady blocks until hal/state reports ready or the deadline passes.
func waitHALReady(c *bus.Connection, d time.Duration) bool {
	sub := c.Subscribe(bus.T("hal", "state"))
	defer c.Unsubscribe(sub)

	dead := time.Now().Add(d)
	for time.Now().Before(dead) {
		select {
		case m := <-sub.Channel():
			if st, ok := m.Payload.(types.HALState); ok && st.Level == "ready" {
				return true
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	return false
}

func main() {
	// Give USB serial a moment to enumerate before the first prints.
	time.Sleep(3 * time.Second)

	println("[main] bootstrapping bus ...")
	b := bus.NewBus(8)
	halConn := b.NewConnection("hal")
	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, "pico")

	println("[main] starting hal.Run ...")
	go hal.Run(ctx, halConn)

	if con := hal.Console(); con != nil {
		println("[main] mirroring hal/# to the console ...")
		rep := &report.Service{Out: con}
		if err := rep.Start(ctx, b.NewConnection("report")); err != nil {
			println("[main] report disabled:", err.Error())
		}
	}

	println("[main] starting heartbeat ...")
	hb := &heartbeat.Service{}
	_ = hb.Start(ctx, b.NewConnection("heartbeat"))

	println("[main] publishing configuration ...")
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	ui := b.NewConnection("ui")
	if !waitHALReady(ui, 5*time.Second) {
		println("[main] HAL not ready within timeout; continuing")
	}

	// One-shot sanity check: ask the NTC channel for its calibrated span.
	rangeTopic := bus.T("hal", "cap", "env", string(types.KindTemperature), "ntc0", "control", "range")
	if reply, err := ui.RequestWait(ctx, ui.NewMessage(rangeTopic, nil, false)); err != nil {
		println("[main] range request failed:", err.Error())
	} else if r, ok := reply.Payload.(types.RangeReply); ok && r.OK {
		println("[main] ntc0 span:", r.Min, "..", r.Max, r.Unit)
	}

	for {
		printMem()
		time.Sleep(10 * time.Second)
	}
}

// printMem prints a compact snapshot of runtime memory stats.
// Uses builtin println to avoid fmt overhead/allocations.
func printMem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	println(
		"[mem]",
		"alloc:", uint32(ms.Alloc),
		"heapInuse:", uint32(ms.HeapInuse),
		"heapSys:", uint32(ms.HeapSys),
		"mallocs:", uint32(ms.Mallocs),
		"frees:", uint32(ms.Frees),
	)
}
