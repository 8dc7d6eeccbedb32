// Command adc-probe is an interactive bring-up tool for recording calibration
// points. It samples one ADC pin through an identity table (value == input
// millivolts) and talks over the board console: a serial terminal on MCU
// builds, stdin/stdout on host builds. Feed the pin from a reference source,
// note the meter reading next to each marked sample, and the (mv, value)
// pairs go straight into an analog_in points list.
//
// Commands (empty line repeats mark):
//
//	mark        capture the latest sample as a calibration point
//	rate <hz>   change the sampling rate
//	range       print the active table span
//	quit        stop polling and exit
package main

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/shlex"

	"adccal-go/bus"
	"adccal-go/services/hal"
	"adccal-go/types"
	"adccal-go/x/conv"
	"adccal-go/x/strconvx"
	"adccal-go/x/timex"
)

// ---------- Configuration ----------

const (
	halReadyTimeout = 5 * time.Second
	replyTimeout    = 2 * time.Second

	defaultRateHz = 5
	maxRateHz     = 100
)

var probeConfig = []byte(`{
  "devices": [
    {"id": "probe0", "type": "analog_in", "params": {
      "pin": 26, "kind": "voltage", "unit": "mV",
      "points": [[0, 0], [3300, 3300]]
    }}
  ]
}`)

// ---------- Topics ----------

func tValue() bus.Topic {
	return bus.T("hal", "cap", "power", string(types.KindVoltage), "probe0", "value")
}
func tCtrl(verb string) bus.Topic {
	return bus.T("hal", "cap", "power", string(types.KindVoltage), "probe0", "control", verb)
}
func tHALState() bus.Topic { return bus.T("hal", "state") }

// ---------- Console output ----------

// conWriter serializes whole lines onto the console so the live ticker and
// command replies do not interleave mid-line.
type conWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *conWriter) line(parts ...any) {
	var buf [120]byte
	b := buf[:0]
	var tmp [20]byte
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			b = append(b, v...)
		case uint32:
			b = append(b, conv.Utoa(tmp[:], uint64(v))...)
		case uint16:
			b = append(b, conv.Utoa(tmp[:], uint64(v))...)
		case int:
			b = append(b, conv.Itoa(tmp[:], int64(v))...)
		}
	}
	b = append(b, '\r', '\n')
	c.mu.Lock()
	c.w.Write(b)
	c.mu.Unlock()
}

// ---------- Helpers ----------

func waitHALReady(c *bus.Connection, d time.Duration) bool {
	sub := c.Subscribe(tHALState())
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

func request(ui *bus.Connection, t bus.Topic, payload any) (*bus.Message, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()
	reply, err := ui.RequestWait(ctx, ui.NewMessage(t, payload, false))
	if err != nil {
		return nil, false
	}
	if e, isErr := reply.Payload.(types.ErrorReply); isErr && !e.OK {
		return reply, false
	}
	return reply, true
}

func startPolling(ui *bus.Connection, rateHz uint32) bool {
	iv := uint32(timex.PeriodFromHz(rateHz).Milliseconds())
	_, ok := request(ui, tCtrl("poll_start"), types.PollStart{Verb: "read", IntervalMs: iv})
	return ok
}

// latest tracks the most recent sample off the value subscription.
type latest struct {
	mu  sync.Mutex
	v   types.AnalogValue
	got bool
}

func (l *latest) set(v types.AnalogValue) {
	l.mu.Lock()
	l.v, l.got = v, true
	l.mu.Unlock()
}

func (l *latest) get() (types.AnalogValue, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.v, l.got
}

// ---------- Main ----------

func main() {
	time.Sleep(2 * time.Second)

	ctx := context.Background()
	b := bus.NewBus(8)
	go hal.Run(ctx, b.NewConnection("hal"))

	con := hal.Console()
	if con == nil {
		println("[probe] no console on this build; nothing to talk to")
		return
	}
	out := &conWriter{w: con}

	ui := b.NewConnection("probe")
	ui.Publish(ui.NewMessage(bus.T("config", "hal"), probeConfig, true))

	if !waitHALReady(ui, halReadyTimeout) {
		out.line("probe: HAL not ready within timeout")
		return
	}
	if !startPolling(ui, defaultRateHz) {
		out.line("probe: poll_start rejected")
		return
	}
	out.line("probe: sampling pin 26 at ", defaultRateHz, " Hz; 'mark' records a point")

	var cur latest
	sub := ui.Subscribe(tValue())
	go func() {
		tick := time.NewTicker(time.Second)
		defer tick.Stop()
		for {
			select {
			case m := <-sub.Channel():
				if v, ok := m.Payload.(types.AnalogValue); ok {
					cur.set(v)
				}
			case <-tick.C:
				if v, ok := cur.get(); ok {
					if v.InRange {
						out.line("live: raw=", v.Raw, " mv=", v.Value)
					} else {
						out.line("live: raw=", v.Raw, " (out of range)")
					}
				}
			}
		}
	}()

	points := 0
	rd := lineReader{r: con}
	for {
		lineStr, err := rd.next()
		if err != nil {
			out.line("probe: console read failed; exiting")
			return
		}
		args, err := shlex.Split(lineStr)
		if err != nil {
			out.line("probe: bad quoting in command")
			continue
		}
		cmd := "mark"
		if len(args) > 0 {
			cmd = args[0]
		}

		switch cmd {
		case "mark":
			v, ok := cur.get()
			if !ok {
				out.line("probe: no sample yet")
				continue
			}
			points++
			out.line("point ", points, ": raw=", v.Raw, " mv=", v.Value)
		case "rate":
			if len(args) < 2 {
				out.line("usage: rate <hz>")
				continue
			}
			hz, err := strconvx.Atoi(args[1])
			if err != nil || hz < 1 || hz > maxRateHz {
				out.line("probe: rate must be 1..", maxRateHz, " Hz")
				continue
			}
			request(ui, tCtrl("poll_stop"), types.PollStop{})
			if startPolling(ui, uint32(hz)) {
				out.line("probe: rate set to ", hz, " Hz")
			} else {
				out.line("probe: poll_start rejected")
			}
		case "range":
			reply, ok := request(ui, tCtrl("range"), nil)
			if !ok {
				out.line("probe: range request failed")
				continue
			}
			if r, isRange := reply.Payload.(types.RangeReply); isRange && r.OK {
				out.line("range: ", r.Min, " .. ", r.Max, " ", r.Unit)
			}
		case "quit", "q":
			request(ui, tCtrl("poll_stop"), types.PollStop{})
			out.line("probe: captured ", points, " points; bye")
			return
		default:
			out.line("commands: mark | rate <hz> | range | quit")
		}
	}
}

// lineReader accumulates console bytes into newline-terminated commands.
// Reads are byte-wise: serial consoles deliver keystrokes, not lines. Either
// CR or LF ends a line; the LF of a CRLF pair is swallowed so terminals that
// send both do not produce a spurious empty command.
type lineReader struct {
	r      io.Reader
	buf    [64]byte
	n      int
	lastCR bool
}

func (lr *lineReader) next() (string, error) {
	lr.n = 0
	var one [1]byte
	for {
		k, err := lr.r.Read(one[:])
		if err != nil {
			return "", err
		}
		if k == 0 {
			continue
		}
		c := one[0]
		if c == '\n' && lr.lastCR {
			lr.lastCR = false
			continue
		}
		if c == '\r' || c == '\n' {
			lr.lastCR = c == '\r'
			return string(lr.buf[:lr.n]), nil
		}
		lr.lastCR = false
		if lr.n < len(lr.buf) {
			lr.buf[lr.n] = c
			lr.n++
		}
	}
}
