package core

import (
	"context"
	"time"

	"adccal-go/bus"
	"adccal-go/errcode"
	"adccal-go/services/hal/internal/util"
	"adccal-go/types"
	"adccal-go/x/strx"
	"adccal-go/x/timex"
)

const (
	eventQueueLen = 16
	pollQueueLen  = 8
)

type capKey struct {
	domain string
	kind   string
	name   string
}

type HAL struct {
	conn *bus.Connection
	res  Resources

	// Device registry
	dev map[string]Device // devID -> device

	// Capability index: (domain,kind,name) -> devID
	capIndex map[capKey]string

	cfgSub  *bus.Subscription
	ctrlSub *bus.Subscription

	// Single-threaded publication of device events
	evCh chan Event

	poller *Poller
	pollCh chan PollReq
}

func NewHAL(conn *bus.Connection, res Resources) *HAL {
	pollCh := make(chan PollReq, pollQueueLen)
	h := &HAL{
		conn:     conn,
		res:      res,
		dev:      map[string]Device{},
		capIndex: map[capKey]string{},
		evCh:     make(chan Event, eventQueueLen),
		pollCh:   pollCh,
		poller:   NewPoller(pollCh),
	}
	// HAL provides the emitter to devices.
	h.res.Pub = h
	return h
}

func (h *HAL) Run(ctx context.Context) {
	h.cfgSub = h.conn.Subscribe(topicConfigHAL())
	h.ctrlSub = h.conn.Subscribe(ctrlWildcard())
	defer h.conn.Unsubscribe(h.cfgSub)
	defer h.conn.Unsubscribe(h.ctrlSub)

	go h.poller.Run(ctx)

	ready := false
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.pubHALState("stopped", "context_cancelled")
			return
		case msg := <-h.cfgSub.Channel():
			// Config arrives typed from board setups and as raw JSON from the
			// config service; accept both.
			cfg, ok := msg.Payload.(types.HALConfig)
			if !ok {
				if err := util.DecodeJSON(msg.Payload, &cfg); err != nil {
					println("[hal] bad config payload:", err.Error())
					continue
				}
			}
			// applyConfig is additive/idempotent for existing devices.
			h.applyConfig(ctx, cfg)
			if !ready {
				ready = true
				h.pubHALState("ready", "")
			}
		case m := <-h.ctrlSub.Channel():
			if !ready {
				// Reject controls until HAL has a configuration.
				h.replyErr(m, errcode.HALNotReady)
				continue
			}
			h.handleControl(m) // bounded: device controls are one-shot operations
		case ev := <-h.evCh:
			// All device→HAL telemetry is published from this goroutine.
			h.handleEvent(ev)
		case req := <-h.pollCh:
			h.handlePoll(ctx, req)
		}
	}
}

func (h *HAL) applyConfig(ctx context.Context, cfg types.HALConfig) {
	for i := range cfg.Devices {
		dc := cfg.Devices[i]
		if _, exists := h.dev[dc.ID]; exists {
			continue
		}
		b, ok := lookupBuilder(dc.Type)
		if !ok {
			println("[hal] no builder for type:", dc.Type, "id:", dc.ID)
			continue
		}
		dev, err := b.Build(ctx, BuilderInput{
			ID:     dc.ID,
			Type:   dc.Type,
			Params: dc.Params,
			Res:    h.res,
		})
		if err != nil {
			println("[hal] build failed for:", dc.ID, "err:", err.Error())
			continue
		}
		if err := dev.Init(ctx); err != nil {
			println("[hal] init failed for:", dc.ID)
			continue
		}
		h.dev[dev.ID()] = dev

		// Register capabilities, publish retained info + initial status:down
		for _, cs := range dev.Capabilities() {
			addr := h.capAddr(dev.ID(), cs)
			h.capIndex[capKey{domain: addr.Domain, kind: addr.Kind, name: addr.Name}] = dev.ID()

			h.conn.Publish(h.conn.NewMessage(capInfo(addr), cs.Info, true))
			h.conn.Publish(h.conn.NewMessage(
				capStatus(addr),
				types.CapabilityStatus{Link: types.LinkDown, TSms: timex.NowMs()},
				true,
			))
		}
	}

	// Declarative schedules; re-applying a config re-arms them.
	for _, ps := range cfg.Pollers {
		h.poller.Upsert(ps.Domain, ps.Kind, ps.Name, strx.Coalesce(ps.Verb, "read"),
			time.Duration(ps.IntervalMs)*time.Millisecond,
			time.Duration(ps.JitterMs)*time.Millisecond)
	}
}

func (h *HAL) capAddr(devID string, cs CapabilitySpec) CapAddr {
	k := string(cs.Kind)
	domain := cs.Domain
	if domain == "" {
		domain = defaultDomainFor(k)
	}
	return CapAddr{Domain: domain, Kind: k, Name: strx.Coalesce(cs.Name, devID)}
}

func (h *HAL) handleControl(msg *bus.Message) {
	// hal/cap/<domain>/<kind>/<name>/control/<verb>
	if msg.Topic.Len() < 7 {
		h.replyErr(msg, errcode.InvalidTopic)
		return
	}
	domain, _ := msg.Topic.At(2).(string)
	kind, _ := msg.Topic.At(3).(string)
	name, _ := msg.Topic.At(4).(string)
	verb, _ := msg.Topic.At(6).(string)

	addr := CapAddr{Domain: domain, Kind: kind, Name: name}
	ownerID, ok := h.capIndex[capKey{domain: domain, kind: kind, name: name}]
	if !ok {
		h.replyErr(msg, errcode.UnknownCapability)
		return
	}

	// Poll schedules are owned by the HAL, not the device.
	switch verb {
	case "poll_start":
		h.ctrlPollStart(msg, addr)
		return
	case "poll_stop":
		h.ctrlPollStop(msg, addr)
		return
	}

	dev := h.dev[ownerID]
	if dev == nil {
		// capIndex and dev are updated together; a miss here is a bug.
		h.replyErr(msg, errcode.Error)
		return
	}

	res, err := dev.Control(addr, verb, msg.Payload)
	if err != nil {
		h.replyFromError(msg, err)
		return
	}
	if !msg.CanReply() {
		return
	}
	if res.OK {
		if res.Payload != nil {
			h.conn.Reply(msg, res.Payload, false)
		} else {
			h.replyOK(msg)
		}
		return
	}
	code := res.Error
	if code == "" {
		code = errcode.Busy
	}
	h.conn.Reply(msg, types.ErrorReply{OK: false, Error: string(code)}, false)
}

func (h *HAL) ctrlPollStart(msg *bus.Message, addr CapAddr) {
	ps, code := As[types.PollStart](msg.Payload)
	if code != "" {
		h.replyErr(msg, code)
		return
	}
	ps.Verb = strx.Coalesce(ps.Verb, "read")
	if ps.Verb != "read" || ps.IntervalMs == 0 {
		h.replyErr(msg, errcode.InvalidParams)
		return
	}
	h.poller.Upsert(addr.Domain, types.Kind(addr.Kind), addr.Name, ps.Verb,
		time.Duration(ps.IntervalMs)*time.Millisecond,
		time.Duration(ps.JitterMs)*time.Millisecond)
	h.replyOK(msg)
}

func (h *HAL) ctrlPollStop(msg *bus.Message, addr CapAddr) {
	ps, code := As[types.PollStop](msg.Payload)
	if code != "" {
		h.replyErr(msg, code)
		return
	}
	h.poller.Stop(addr.Domain, types.Kind(addr.Kind), addr.Name, strx.Coalesce(ps.Verb, "read"))
	h.replyOK(msg)
}

func (h *HAL) handlePoll(ctx context.Context, req PollReq) {
	key := capKey{domain: req.Domain, kind: string(req.Kind), name: req.Name}
	devID, ok := h.capIndex[key]
	if !ok {
		// Capability never registered; drop the schedule.
		h.poller.Stop(req.Domain, req.Kind, req.Name, req.Verb)
		return
	}
	dev := h.dev[devID]
	if dev == nil {
		return
	}
	addr := CapAddr{Domain: req.Domain, Kind: string(req.Kind), Name: req.Name}
	if err := dev.Read(ctx, addr); err != nil {
		h.handleEvent(Event{Addr: addr, TSms: timex.NowMs(), Err: string(codeOf(err))})
	}
}

func (h *HAL) handleEvent(ev Event) {
	// 1) Error → retained status:degraded; no value published.
	if ev.Err != "" {
		h.conn.Publish(h.conn.NewMessage(
			capStatus(ev.Addr),
			types.CapabilityStatus{Link: types.LinkDegraded, TSms: ev.TSms, Error: ev.Err},
			true,
		))
		return
	}

	// 2) Success: retained value, then retained status:up.
	h.conn.Publish(h.conn.NewMessage(capValue(ev.Addr), ev.Payload, true))
	h.conn.Publish(h.conn.NewMessage(
		capStatus(ev.Addr),
		types.CapabilityStatus{Link: types.LinkUp, TSms: ev.TSms},
		true,
	))
}

func (h *HAL) pubHALState(level, status string) {
	h.conn.Publish(h.conn.NewMessage(
		T("hal", "state"),
		types.HALState{Level: level, Status: status, TSms: timex.NowMs()},
		true,
	))
}

func (h *HAL) closeAll() {
	for id, d := range h.dev {
		if err := d.Close(); err != nil {
			println("[hal] close failed for:", id)
		}
	}
}

func defaultDomainFor(kind string) string {
	switch kind {
	case "temperature", "humidity", "level":
		return "env"
	case "voltage", "current", "battery":
		return "power"
	default:
		return "io"
	}
}

// ---- HAL as EventEmitter (enqueue to single publisher) ----

func (h *HAL) Emit(ev Event) bool {
	select {
	case h.evCh <- ev:
		return true
	default:
		return false
	}
}
