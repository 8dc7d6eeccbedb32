// Package report mirrors hal/# bus traffic onto an io.Writer as one-line
// text records. On MCU builds the writer is the board console UART; the host
// binaries point it at stdout. Lines are built through x/conv so the loop
// runs without fmt or per-message allocation.
package report

import (
	"context"
	"io"

	"adccal-go/bus"
	"adccal-go/errcode"
	"adccal-go/types"
	"adccal-go/x/conv"
)

type Service struct {
	Out io.Writer
}

func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	if s.Out == nil {
		return &errcode.E{C: errcode.InvalidParams, Op: "report.start", Msg: "nil output writer"}
	}
	go s.serviceLoop(ctx, conn)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(bus.T("hal", "#"))
	defer conn.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-sub.Channel():
			s.emit(msg)
		}
	}
}

func (s *Service) emit(msg *bus.Message) {
	var l line
	l.topic(msg.Topic)
	switch p := msg.Payload.(type) {
	case types.AnalogValue:
		l.str(" raw=")
		l.u64(uint64(p.Raw))
		l.str(" value=")
		l.u64(uint64(p.Value))
		l.str(" in_range=")
		l.flag(p.InRange)
	case types.CapabilityStatus:
		l.str(" link=")
		l.str(string(p.Link))
		if p.Error != "" {
			l.str(" error=")
			l.str(p.Error)
		}
	case types.HALState:
		l.str(" level=")
		l.str(p.Level)
		if p.Status != "" {
			l.str(" status=")
			l.str(p.Status)
		}
	case types.Info:
		l.str(" driver=")
		l.str(p.Driver)
		l.str(" schema=")
		l.i64(int64(p.SchemaVersion))
	case types.RangeReply:
		l.str(" min=")
		l.u64(uint64(p.Min))
		l.str(" max=")
		l.u64(uint64(p.Max))
		if p.Unit != "" {
			l.str(" unit=")
			l.str(p.Unit)
		}
	default:
		// Control requests and replies carry request-scoped payloads; the
		// topic alone is still worth a line.
	}
	l.str("\r\n")
	s.Out.Write(l.buf[:l.n])
}

// line accumulates one record in a fixed buffer. Overflow truncates.
type line struct {
	buf [192]byte
	n   int
}

func (l *line) raw(p []byte) { l.n += copy(l.buf[l.n:], p) }
func (l *line) str(s string) { l.n += copy(l.buf[l.n:], s) }

func (l *line) u64(v uint64) {
	var tmp [20]byte
	l.raw(conv.Utoa(tmp[:], v))
}

func (l *line) i64(v int64) {
	var tmp [20]byte
	l.raw(conv.Itoa(tmp[:], v))
}

func (l *line) flag(v bool) {
	if v {
		l.str("true")
	} else {
		l.str("false")
	}
}

func (l *line) topic(t bus.Topic) {
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			l.str("/")
		}
		switch v := t.At(i).(type) {
		case string:
			l.str(v)
		case int:
			l.i64(int64(v))
		case int32:
			l.i64(int64(v))
		case int64:
			l.i64(v)
		default:
			l.str("?")
		}
	}
}
