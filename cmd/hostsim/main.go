//go:build !rp2040 && !rp2350

// Command hostsim runs the calibration pipeline on a development machine:
// simulated ADC pins stand in for hardware, sweeps drive them across their
// calibration tables, and the report service mirrors the resulting hal/#
// traffic to stdout.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"adccal-go/adc"
	"adccal-go/bus"
	"adccal-go/services/hal"
	"adccal-go/services/report"
	"adccal-go/types"
	"adccal-go/x/ramp"
)

// ---------- Configuration ----------

const (
	halReadyTimeout = 5 * time.Second

	potPin = 26
	ntcPin = 27

	fullScaleMV = 3300

	// Sweep shape
	sweepMs    = 3000
	sweepSteps = 60
	dwell      = time.Second

	// Cycles: 0 = loop forever
	cyclesToRun = 3
)

// pot0 reads back millivolts through an identity table; ntc0 goes through a
// bench-measured thermistor divider table (value unit is deci-degC).
var halConfig = []byte(`{
  "devices": [
    {"id": "pot0", "type": "analog_in", "params": {
      "pin": 26, "kind": "voltage", "domain": "power", "unit": "mV",
      "points": [[0, 0], [3300, 3300]]
    }},
    {"id": "ntc0", "type": "analog_in", "params": {
      "pin": 27, "kind": "temperature", "domain": "env", "unit": "dC",
      "points": [[330, 600], [660, 450], [1100, 350], [1650, 250], [2310, 120], [2970, 0]]
    }}
  ],
  "pollers": [
    {"domain": "power", "kind": "voltage", "name": "pot0", "interval_ms": 100},
    {"domain": "env", "kind": "temperature", "name": "ntc0", "interval_ms": 250, "jitter_ms": 50}
  ]
}`)

// ---------- Helpers ----------

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

// ---------- Main ----------

func main() {
	ctx := context.Background()

	b := bus.NewBus(16)
	halConn := b.NewConnection("hal")
	go hal.Run(ctx, halConn)

	rep := &report.Service{Out: os.Stdout}
	if err := rep.Start(ctx, b.NewConnection("report")); err != nil {
		println("[sim] report failed:", err.Error())
		os.Exit(1)
	}

	// Pins must exist before the sweeps script them; the HAL claims them
	// when it applies the config.
	pot := hal.SimADC(potPin)
	ntc := hal.SimADC(ntcPin)
	if pot == nil || ntc == nil {
		println("[sim] pins 26/27 not in the resource plan")
		os.Exit(1)
	}
	pot.SetMillivolts(0, fullScaleMV)
	ntc.SetMillivolts(330, fullScaleMV)

	ui := b.NewConnection("ui")
	ui.Publish(ui.NewMessage(bus.T("config", "hal"), halConfig, true))

	if !waitHALReady(ui, halReadyTimeout) {
		println("[sim] HAL not ready within timeout")
		os.Exit(1)
	}

	tick := func(d time.Duration) bool { time.Sleep(d); return true }
	sweep := func(p *adc.SimPin, from, to uint16) {
		ramp.StartLinear(from, to, fullScaleMV, sweepMs, sweepSteps, tick, func(level uint16) {
			p.SetMillivolts(level, fullScaleMV)
		})
	}
	errInjected := errors.New("injected adc fault")

	cycle := 0
	for {
		cycle++
		println("=== sim: cycle", cycle, "===")

		// Identity channel end to end.
		sweep(pot, 0, fullScaleMV)
		time.Sleep(dwell)

		// Thermistor from cold to hot, then past the last calibration point
		// so the out-of-range flag shows up in the stream.
		sweep(ntc, 330, 2970)
		sweep(ntc, 2970, 3200)
		time.Sleep(dwell)
		sweep(ntc, 3200, 330)

		// Fault injection: pot goes degraded, then recovers.
		pot.SetErr(errInjected)
		time.Sleep(500 * time.Millisecond)
		pot.SetErr(nil)

		sweep(pot, fullScaleMV, 0)
		time.Sleep(dwell)

		if cyclesToRun > 0 && cycle >= cyclesToRun {
			println("[sim] completed", cycle, "cycles; halting")
			return
		}
	}
}
