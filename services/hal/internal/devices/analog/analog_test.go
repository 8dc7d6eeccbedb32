package analog

import (
	"context"
	"errors"
	"testing"

	"adccal-go/drivers/ads1015"
	"adccal-go/errcode"
	"adccal-go/interp"
	"adccal-go/services/hal/internal/core"
	"adccal-go/types"
)

// fakePin scripts an on-chip source. Samples are left-aligned 16-bit, so a
// 12-bit code c is presented as c<<4.
type fakePin struct {
	num int
	raw uint16
	err error
}

func (p *fakePin) Pin() int                { return p.num }
func (p *fakePin) Sample() (uint16, error) { return p.raw, p.err }

// fakeBus answers the ADS1015 single-shot sequence: config writes are
// recorded, config reads report the conversion done, conversion reads return
// the scripted code left-justified.
type fakeBus struct {
	code     uint16
	err      error
	lastAddr uint16
	lastCfg  uint16
	triggers int
}

func (b *fakeBus) Tx(addr uint16, w, r []byte, _ int) error {
	if b.err != nil {
		return b.err
	}
	b.lastAddr = addr
	switch {
	case len(w) == 3 && w[0] == 0x01: // config write
		b.lastCfg = uint16(w[1])<<8 | uint16(w[2])
		b.triggers++
	case len(w) == 1 && w[0] == 0x01: // config read: OS set, idle
		r[0], r[1] = 0x80, 0x00
	case len(w) == 1 && w[0] == 0x00: // conversion read
		v := b.code << 4
		r[0], r[1] = byte(v>>8), byte(v)
	default:
		return errors.New("unexpected transaction")
	}
	return nil
}

type fakeReg struct {
	pin    *fakePin
	bus    *fakeBus
	pinErr error
	busErr error

	claimedPin  int
	claimedBus  core.ResourceID
	releasedPin []int
	releasedBus []core.ResourceID
}

func (r *fakeReg) ClaimADC(devID string, pin int) (core.ADCPin, error) {
	if r.pinErr != nil {
		return nil, r.pinErr
	}
	r.claimedPin = pin
	r.pin.num = pin
	return r.pin, nil
}

func (r *fakeReg) ReleaseADC(devID string, pin int) {
	r.releasedPin = append(r.releasedPin, pin)
}

func (r *fakeReg) ClaimI2C(devID string, id core.ResourceID) (core.I2COwner, error) {
	if r.busErr != nil {
		return nil, r.busErr
	}
	r.claimedBus = id
	return r.bus, nil
}

func (r *fakeReg) ReleaseI2C(devID string, id core.ResourceID) {
	r.releasedBus = append(r.releasedBus, id)
}

type fakeSink struct {
	events []core.Event
}

func (s *fakeSink) Emit(ev core.Event) bool {
	s.events = append(s.events, ev)
	return true
}

// ntcPoints is a descending calibration: 1000 mV reference, 12-bit codes
// 409/819/1228 for values 40/30/10.
var ntcPoints = [][2]uint32{{100, 40}, {200, 30}, {300, 10}}

func newFixture() (*fakeReg, *fakeSink) {
	return &fakeReg{pin: &fakePin{}, bus: &fakeBus{}}, &fakeSink{}
}

func build(t *testing.T, reg *fakeReg, sink *fakeSink, p Params) *device {
	t.Helper()
	dev, err := builder{}.Build(context.Background(), core.BuilderInput{
		ID:     "a0",
		Type:   "analog_in",
		Params: p,
		Res:    core.Resources{Reg: reg, Pub: sink},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return dev.(*device)
}

func TestBuild_PinSource(t *testing.T) {
	reg, sink := newFixture()
	d := build(t, reg, sink, Params{
		Pin: 26, Bits: 12, MaxMilliV: 1000,
		Kind: "temperature", Domain: "env", Name: "ntc0", Unit: "C",
		Points: ntcPoints,
	})

	if d.ID() != "a0" {
		t.Fatalf("ID = %q", d.ID())
	}
	if reg.claimedPin != 26 {
		t.Fatalf("claimed pin %d, want 26", reg.claimedPin)
	}
	caps := d.Capabilities()
	if len(caps) != 1 {
		t.Fatalf("capabilities = %d, want 1", len(caps))
	}
	c := caps[0]
	if c.Domain != "env" || c.Kind != types.KindTemperature || c.Name != "ntc0" {
		t.Fatalf("capability %+v", c)
	}
	if c.Info.Driver != "rp2_adc" {
		t.Fatalf("driver = %q", c.Info.Driver)
	}
	info, ok := c.Info.Detail.(types.AnalogInfo)
	if !ok {
		t.Fatalf("detail type %T", c.Info.Detail)
	}
	if info.Pin != 26 || info.Bits != 12 || info.MaxMilliV != 1000 || info.Points != 3 {
		t.Fatalf("detail %+v", info)
	}
	if info.MinValue != 10 || info.MaxValue != 40 {
		t.Fatalf("range %d..%d, want 10..40", info.MinValue, info.MaxValue)
	}
}

func TestRead_PinInterpolates(t *testing.T) {
	reg, sink := newFixture()
	d := build(t, reg, sink, Params{Pin: 26, Bits: 12, MaxMilliV: 1000, Points: ntcPoints})

	reg.pin.raw = 614 << 4
	if err := d.Read(context.Background(), core.CapAddr{Name: "a0"}); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(sink.events) != 1 {
		t.Fatalf("events = %d, want 1", len(sink.events))
	}
	ev := sink.events[0]
	if ev.Err != "" || ev.TSms == 0 {
		t.Fatalf("event %+v", ev)
	}
	v, ok := ev.Payload.(types.AnalogValue)
	if !ok {
		t.Fatalf("payload type %T", ev.Payload)
	}
	if v.Raw != 614 || v.Value != 35 || !v.InRange {
		t.Fatalf("value %+v, want raw 614 value 35 in range", v)
	}
}

func TestRead_OutOfRangeFlagged(t *testing.T) {
	reg, sink := newFixture()
	d := build(t, reg, sink, Params{Pin: 26, Bits: 12, MaxMilliV: 1000, Points: ntcPoints})

	for _, raw := range []uint16{0, 408, 1229} {
		sink.events = nil
		reg.pin.raw = raw << 4
		if err := d.Read(context.Background(), core.CapAddr{Name: "a0"}); err != nil {
			t.Fatalf("Read(%d): %v", raw, err)
		}
		v := sink.events[0].Payload.(types.AnalogValue)
		if v.InRange {
			t.Fatalf("raw %d reported in range", raw)
		}
		if v.Raw != raw {
			t.Fatalf("raw echoed %d, want %d", v.Raw, raw)
		}
	}
}

func TestRead_SampleErrorCoded(t *testing.T) {
	reg, sink := newFixture()
	d := build(t, reg, sink, Params{Pin: 26, Bits: 12, MaxMilliV: 1000, Points: ntcPoints})

	reg.pin.err = errors.New("conversion fault")
	err := d.Read(context.Background(), core.CapAddr{Name: "a0"})
	if err == nil {
		t.Fatal("expected error")
	}
	if errcode.Of(err) != errcode.IOError {
		t.Fatalf("code = %v, want io_error", errcode.Of(err))
	}
	if len(sink.events) != 0 {
		t.Fatalf("events = %d, want none on failed sample", len(sink.events))
	}
}

func TestReadErrMapping(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want errcode.Code
	}{
		{"driver timeout", ads1015.ErrTimeout, errcode.Timeout},
		{"bare code passthrough", errcode.Busy, errcode.Busy},
		{"wrapped code passthrough", &errcode.E{C: errcode.InvalidParams, Op: "x"}, errcode.InvalidParams},
		{"opaque becomes io_error", errors.New("bus stuck"), errcode.IOError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := errcode.Of(readErr(tc.in)); got != tc.want {
				t.Fatalf("code = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBuild_BusSource(t *testing.T) {
	reg, sink := newFixture()
	reg.bus.code = 100
	d := build(t, reg, sink, Params{
		Bus: "i2c0", Channel: 1, Gain: 1,
		Kind: "level", Name: "tank", Unit: "%",
		Points: ntcPoints,
	})

	if reg.claimedBus != "i2c0" {
		t.Fatalf("claimed bus %q", reg.claimedBus)
	}
	c := d.Capabilities()[0]
	if c.Info.Driver != "ads1015" {
		t.Fatalf("driver = %q", c.Info.Driver)
	}
	info := c.Info.Detail.(types.AnalogInfo)
	if info.Bus != "i2c0" || info.Addr != ads1015.Address || info.Channel != 1 {
		t.Fatalf("detail %+v", info)
	}
	// GainOne full scale 4096 mV at 11 bits: 200 mV quantizes to code 100.
	if info.Bits != 11 || info.MaxMilliV != 4096 {
		t.Fatalf("geometry %d bits %d mV", info.Bits, info.MaxMilliV)
	}

	if err := d.Read(context.Background(), core.CapAddr{Name: "tank"}); err != nil {
		t.Fatalf("Read: %v", err)
	}
	v := sink.events[0].Payload.(types.AnalogValue)
	if v.Raw != 100 || v.Value != 30 || !v.InRange {
		t.Fatalf("value %+v, want raw 100 value 30", v)
	}
	if reg.bus.lastAddr != ads1015.Address {
		t.Fatalf("transactions addressed %#x", reg.bus.lastAddr)
	}
	// OS | AIN1 single-ended | gain 1 | single-shot | 128 SPS | comp off.
	if reg.bus.lastCfg != 0xD303 {
		t.Fatalf("config word %#04x, want 0xd303", reg.bus.lastCfg)
	}
}

func TestBuild_RejectsBadParams(t *testing.T) {
	cases := []struct {
		name   string
		params Params
		wantIs error
	}{
		{"too few points", Params{Pin: 26, Points: [][2]uint32{{100, 40}}}, errTooFewPoints},
		{"bad gain index", Params{Bus: "i2c0", Gain: 9, Points: ntcPoints}, nil},
		{"bad rate index", Params{Bus: "i2c0", Rate: 9, Points: ntcPoints}, nil},
		{"channel out of range", Params{Bus: "i2c0", Channel: 4, Points: ntcPoints}, ads1015.ErrChannel},
		{"precision too wide", Params{Pin: 26, Bits: 33, Points: ntcPoints}, interp.ErrPrecision},
		{"descending millivolts", Params{Pin: 26, Points: [][2]uint32{{300, 10}, {100, 40}}}, interp.ErrUnsorted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reg, sink := newFixture()
			_, err := builder{}.Build(context.Background(), core.BuilderInput{
				ID: "a0", Type: "analog_in", Params: tc.params,
				Res: core.Resources{Reg: reg, Pub: sink},
			})
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.wantIs != nil && !errors.Is(err, tc.wantIs) {
				t.Fatalf("err = %v, want %v", err, tc.wantIs)
			}
			if reg.claimedPin != 0 || reg.claimedBus != "" {
				t.Fatalf("resources claimed despite rejected params")
			}
		})
	}
}

func TestBuild_ClaimFailurePropagates(t *testing.T) {
	reg, sink := newFixture()
	reg.pinErr = core.ErrPinInUse
	_, err := builder{}.Build(context.Background(), core.BuilderInput{
		ID: "a0", Params: Params{Pin: 26, Points: ntcPoints},
		Res: core.Resources{Reg: reg, Pub: sink},
	})
	if !errors.Is(err, core.ErrPinInUse) {
		t.Fatalf("err = %v, want pin_in_use", err)
	}

	reg, sink = newFixture()
	reg.busErr = core.ErrUnknownBus
	_, err = builder{}.Build(context.Background(), core.BuilderInput{
		ID: "a0", Params: Params{Bus: "i2c9", Points: ntcPoints},
		Res: core.Resources{Reg: reg, Pub: sink},
	})
	if !errors.Is(err, core.ErrUnknownBus) {
		t.Fatalf("err = %v, want unknown_bus", err)
	}
}

func TestControl_ReadVerb(t *testing.T) {
	reg, sink := newFixture()
	d := build(t, reg, sink, Params{Pin: 26, Bits: 12, MaxMilliV: 1000, Points: ntcPoints})

	reg.pin.raw = 819 << 4
	res, err := d.Control(core.CapAddr{Name: "a0"}, "read", nil)
	if err != nil || !res.OK {
		t.Fatalf("Control(read) = %+v, %v", res, err)
	}
	if len(sink.events) != 1 {
		t.Fatalf("events = %d, want 1", len(sink.events))
	}
	if v := sink.events[0].Payload.(types.AnalogValue); v.Value != 30 {
		t.Fatalf("value = %d, want 30", v.Value)
	}

	reg.pin.err = ads1015.ErrTimeout
	if _, err := d.Control(core.CapAddr{Name: "a0"}, "read", nil); errcode.Of(err) != errcode.Timeout {
		t.Fatalf("err = %v, want timeout", err)
	}
}

func TestControl_RangeVerb(t *testing.T) {
	reg, sink := newFixture()
	d := build(t, reg, sink, Params{Pin: 26, Bits: 12, MaxMilliV: 1000, Unit: "C", Points: ntcPoints})

	res, err := d.Control(core.CapAddr{Name: "a0"}, "range", nil)
	if err != nil || !res.OK {
		t.Fatalf("Control(range) = %+v, %v", res, err)
	}
	r, ok := res.Payload.(types.RangeReply)
	if !ok {
		t.Fatalf("payload type %T", res.Payload)
	}
	if !r.OK || r.Min != 10 || r.Max != 40 || r.Unit != "C" {
		t.Fatalf("range %+v, want 10..40 C", r)
	}
}

func TestControl_UnknownVerb(t *testing.T) {
	reg, sink := newFixture()
	d := build(t, reg, sink, Params{Pin: 26, Points: ntcPoints})

	res, err := d.Control(core.CapAddr{Name: "a0"}, "calibrate", nil)
	if err != nil {
		t.Fatalf("Control: %v", err)
	}
	if res.OK || res.Error != errcode.Unsupported {
		t.Fatalf("result %+v, want unsupported", res)
	}
}

func TestClose_ReleasesClaims(t *testing.T) {
	reg, sink := newFixture()
	d := build(t, reg, sink, Params{Pin: 26, Points: ntcPoints})
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if len(reg.releasedPin) != 1 || reg.releasedPin[0] != 26 {
		t.Fatalf("pin releases %v, want [26]", reg.releasedPin)
	}

	reg, sink = newFixture()
	d = build(t, reg, sink, Params{Bus: "i2c0", Points: ntcPoints})
	d.Close()
	if len(reg.releasedBus) != 1 || reg.releasedBus[0] != "i2c0" {
		t.Fatalf("bus releases %v, want [i2c0]", reg.releasedBus)
	}
	if len(reg.releasedPin) != 0 {
		t.Fatalf("bus device released pins %v", reg.releasedPin)
	}
}
