package core

import (
	"errors"

	"adccal-go/bus"
	"adccal-go/errcode"
	"adccal-go/types"
)

func (h *HAL) replyOK(m *bus.Message) {
	if m.CanReply() {
		h.conn.Reply(m, types.OKReply{OK: true}, false)
	}
}

func (h *HAL) replyErr(m *bus.Message, code errcode.Code) {
	if !m.CanReply() {
		return
	}
	if code == "" {
		code = errcode.Error
	}
	h.conn.Reply(m, types.ErrorReply{OK: false, Error: string(code)}, false)
}

func (h *HAL) replyFromError(m *bus.Message, err error) {
	h.replyErr(m, codeOf(err))
}

// codeOf maps resource sentinels and coded errors onto bus-facing codes.
func codeOf(err error) errcode.Code {
	switch {
	case errors.Is(err, ErrUnknownPin):
		return errcode.UnknownPin
	case errors.Is(err, ErrPinInUse):
		return errcode.PinInUse
	case errors.Is(err, ErrUnknownBus):
		return errcode.UnknownBus
	case errors.Is(err, ErrBusInUse):
		return errcode.BusInUse
	case errors.Is(err, ErrTimeout):
		return errcode.Timeout
	}
	return errcode.Of(err)
}
