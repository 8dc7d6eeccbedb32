package analog

import (
	"context"
	"errors"

	"adccal-go/adc"
	"adccal-go/drivers/ads1015"
	"adccal-go/errcode"
	"adccal-go/interp"
	"adccal-go/services/hal/internal/core"
	"adccal-go/types"
	"adccal-go/x/timex"
)

// source yields native-width codes matching the calibration table.
type source interface {
	Sample() (uint16, error)
}

// pinSource narrows left-aligned on-chip samples to the table's width.
type pinSource struct {
	pin  core.ADCPin
	bits uint32
}

func (s pinSource) Sample() (uint16, error) {
	v, err := s.pin.Sample()
	if err != nil {
		return 0, err
	}
	return adc.Native(v, s.bits), nil
}

// busI2C adapts a claimed bus owner to the driver's transaction shape.
// timeoutMS 0 defers to the provider's per-bus default.
type busI2C struct {
	own core.I2COwner
}

func (b busI2C) Tx(addr uint16, w, r []byte) error { return b.own.Tx(addr, w, r, 0) }

type device struct {
	id    string
	res   core.Resources
	cap   core.CapabilitySpec
	src   source
	conv  ads1015.Device
	table interp.Table[uint16]
	unit  string

	relPin int             // claimed on-chip pin; -1 when bus-sourced
	relBus core.ResourceID // claimed bus id; "" when pin-sourced
}

func (d *device) ID() string                          { return d.id }
func (d *device) Capabilities() []core.CapabilitySpec { return []core.CapabilitySpec{d.cap} }
func (d *device) Init(ctx context.Context) error      { return nil }

func (d *device) Read(ctx context.Context, addr core.CapAddr) error {
	raw, err := d.src.Sample()
	if err != nil {
		return readErr(err)
	}
	value, ok := d.table.Lookup(raw)
	d.res.Pub.Emit(core.Event{
		Addr:    addr,
		Payload: types.AnalogValue{Raw: raw, Value: value, InRange: ok},
		TSms:    timex.NowMs(),
	})
	return nil
}

func (d *device) Control(addr core.CapAddr, verb string, payload any) (core.ControlResult, error) {
	switch verb {
	case "read":
		if err := d.Read(context.Background(), addr); err != nil {
			return core.ControlResult{}, err
		}
		return core.ControlResult{OK: true}, nil
	case "range":
		return core.ControlResult{OK: true, Payload: types.RangeReply{
			OK:   true,
			Min:  d.table.MinValue(),
			Max:  d.table.MaxValue(),
			Unit: d.unit,
		}}, nil
	}
	return core.ControlResult{OK: false, Error: errcode.Unsupported}, nil
}

func (d *device) Close() error {
	if d.relBus != "" {
		d.res.Reg.ReleaseI2C(d.id, d.relBus)
		d.relBus = ""
	}
	if d.relPin >= 0 {
		d.res.Reg.ReleaseADC(d.id, d.relPin)
		d.relPin = -1
	}
	return nil
}

// readErr maps sampling failures onto bus-facing codes, leaving already-coded
// errors untouched.
func readErr(err error) error {
	if errors.Is(err, ads1015.ErrTimeout) {
		return &errcode.E{C: errcode.Timeout, Op: "analog.read", Err: err}
	}
	if _, ok := err.(errcode.Code); ok {
		return err
	}
	if _, ok := err.(interface{ Code() errcode.Code }); ok {
		return err
	}
	return &errcode.E{C: errcode.IOError, Op: "analog.read", Err: err}
}
