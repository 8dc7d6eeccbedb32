// Package ads1015 provides a driver for the ADS1015 12-bit I2C ADC. It
// exposes a two-phase conversion API:
//
//	err := d.Trigger(ch)      // start a single-shot conversion (fast)
//	code, err := d.Collect()  // fetch when ready; returns ErrNotReady while busy
//
// For convenience, d.ReadChannel(ch) performs trigger + bounded polling until
// the conversion completes.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when both
// w and r are provided, without releasing the bus.
//
// The driver is integer-only. Single-ended codes span 0..2047; inputs below
// ground clamp to zero. Full-scale voltages are reported in millivolts so
// calibration tables can be built without floating point.
package ads1015

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"

	"adccal-go/x/mathx"
)

// I2C addresses selected by the ADDR pin strap.
const (
	Address    = 0x48 // ADDR to GND (default)
	AddressVDD = 0x49
	AddressSDA = 0x4A
	AddressSCL = 0x4B
)

// Registers.
const (
	regConversion = 0x00
	regConfig     = 0x01
)

// Config register fields.
const (
	cfgOSSingle    uint16 = 0x8000 // write: start conversion; read: 1 when idle
	cfgMuxSingle   uint16 = 0x4000 // AINx vs GND; channel in bits 13:12
	cfgModeSingle  uint16 = 0x0100
	cfgCompDisable uint16 = 0x0003
)

// Conversion geometry. Codes are 12-bit signed, so single-ended inputs only
// reach half the span.
const (
	Resolution = 12
	MaxCode    = 0x7FF
)

// Gain selects the programmable full-scale range.
type Gain uint16

const (
	GainTwoThirds Gain = 0x0000 // +/- 6.144 V
	GainOne       Gain = 0x0200 // +/- 4.096 V
	GainTwo       Gain = 0x0400 // +/- 2.048 V
	GainFour      Gain = 0x0600 // +/- 1.024 V
	GainEight     Gain = 0x0800 // +/- 0.512 V
	GainSixteen   Gain = 0x0A00 // +/- 0.256 V
)

// FullScaleMillivolts returns the positive full-scale input in mV, or 0 for
// an unknown gain. MaxCode corresponds to one LSB below this value.
func (g Gain) FullScaleMillivolts() uint32 {
	switch g {
	case GainTwoThirds:
		return 6144
	case GainOne:
		return 4096
	case GainTwo:
		return 2048
	case GainFour:
		return 1024
	case GainEight:
		return 512
	case GainSixteen:
		return 256
	}
	return 0
}

// GainByIndex maps the conventional 0..5 gain index onto the register bits.
func GainByIndex(i int) (Gain, bool) {
	switch i {
	case 0:
		return GainTwoThirds, true
	case 1:
		return GainOne, true
	case 2:
		return GainTwo, true
	case 3:
		return GainFour, true
	case 4:
		return GainEight, true
	case 5:
		return GainSixteen, true
	}
	return 0, false
}

// DataRate selects the conversion rate.
type DataRate uint16

const (
	DataRate128  DataRate = 0x0000
	DataRate250  DataRate = 0x0020
	DataRate490  DataRate = 0x0040
	DataRate920  DataRate = 0x0060
	DataRate1600 DataRate = 0x0080 // chip default
	DataRate2400 DataRate = 0x00A0
	DataRate3300 DataRate = 0x00C0
)

// SamplesPerSecond returns the nominal rate, or 0 for an unknown setting.
func (r DataRate) SamplesPerSecond() uint32 {
	switch r {
	case DataRate128:
		return 128
	case DataRate250:
		return 250
	case DataRate490:
		return 490
	case DataRate920:
		return 920
	case DataRate1600:
		return 1600
	case DataRate2400:
		return 2400
	case DataRate3300:
		return 3300
	}
	return 0
}

// DataRateByIndex maps the conventional 0..6 rate index onto the register bits.
func DataRateByIndex(i int) (DataRate, bool) {
	switch i {
	case 0:
		return DataRate128, true
	case 1:
		return DataRate250, true
	case 2:
		return DataRate490, true
	case 3:
		return DataRate920, true
	case 4:
		return DataRate1600, true
	case 5:
		return DataRate2400, true
	case 6:
		return DataRate3300, true
	}
	return 0, false
}

// Errors returned by the driver.
var (
	ErrTimeout  = errors.New("ads1015: timeout")
	ErrNotReady = errors.New("ads1015: conversion not ready")
	ErrChannel  = errors.New("ads1015: channel out of range")
	ErrConfig   = errors.New("ads1015: invalid gain or data rate")
)

// Config controls conversion parameters. All fields are optional. The zero
// values select GainTwoThirds (widest range) and DataRate128 (slowest, most
// accurate); the full config word is written per conversion, so the chip's
// power-on defaults never apply.
type Config struct {
	// Address defaults to 0x48 if zero.
	Address uint16
	Gain    Gain
	// DataRate also sets the default PollInterval: one conversion period.
	DataRate DataRate
	// PollInterval is used by ReadChannel between Collect attempts.
	PollInterval time.Duration
	// CollectTimeout bounds the total wait in ReadChannel. Default 25 ms.
	CollectTimeout time.Duration
}

// Device wraps an I2C connection to an ADS1015.
type Device struct {
	bus     drivers.I2C
	Address uint16

	cfg Config
	w   [3]byte // reuse buffers to avoid allocations
	r   [2]byte
}

// New creates a new ADS1015 connection. The I2C bus must already be
// configured. This function only creates the Device object; it does not touch
// the device.
func New(bus drivers.I2C) Device {
	return Device{
		bus:     bus,
		Address: Address,
	}
}

// Configure applies optional config. It does not touch the hardware; the
// single-shot conversion flow programs everything per conversion.
func (d *Device) Configure(cfgs ...Config) {
	c := Config{}
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.Address != 0 {
		d.Address = c.Address
	}
	if c.PollInterval <= 0 {
		// One conversion period, rounded up.
		sps := c.DataRate.SamplesPerSecond()
		if sps == 0 {
			sps = 128
		}
		c.PollInterval = time.Duration(mathx.CeilDiv(1000, sps)) * time.Millisecond
	}
	if c.CollectTimeout <= 0 {
		c.CollectTimeout = 25 * time.Millisecond
	}
	d.cfg = c
}

// Trigger starts a single-shot conversion on channel ch (0..3). It is a quick
// register write with no blocking.
func (d *Device) Trigger(ch int) error {
	// Ensure the device has been configured at least once.
	if d.cfg.PollInterval == 0 {
		d.Configure()
	}
	if ch < 0 || ch > 3 {
		return ErrChannel
	}
	if d.cfg.Gain.FullScaleMillivolts() == 0 || d.cfg.DataRate.SamplesPerSecond() == 0 {
		return ErrConfig
	}
	word := cfgOSSingle | cfgMuxSingle | uint16(ch)<<12 |
		uint16(d.cfg.Gain) | cfgModeSingle | uint16(d.cfg.DataRate) | cfgCompDisable
	return d.writeWord(regConfig, word)
}

// Busy reports whether a conversion is still in progress.
func (d *Device) Busy() (bool, error) {
	w, err := d.readWord(regConfig)
	if err != nil {
		return false, err
	}
	return w&cfgOSSingle == 0, nil
}

// Collect fetches the result of the last triggered conversion. If the device
// is still converting, ErrNotReady is returned. Any bus error is returned
// as-is.
func (d *Device) Collect() (uint16, error) {
	busy, err := d.Busy()
	if err != nil {
		return 0, err
	}
	if busy {
		return 0, ErrNotReady
	}
	w, err := d.readWord(regConversion)
	if err != nil {
		return 0, err
	}
	// 12-bit signed, left-justified. Below-ground noise clamps to zero.
	code := int16(w) >> 4
	if code < 0 {
		code = 0
	}
	return uint16(code), nil
}

// ReadChannel performs a full conversion cycle on ch: Trigger followed by
// bounded polling until Collect succeeds or the timeout elapses.
func (d *Device) ReadChannel(ch int) (uint16, error) {
	if err := d.Trigger(ch); err != nil {
		return 0, err
	}
	deadline := time.Now().Add(d.cfg.CollectTimeout)
	for {
		code, err := d.Collect()
		switch err {
		case nil:
			return code, nil
		case ErrNotReady:
			if time.Now().After(deadline) {
				return 0, ErrTimeout
			}
			time.Sleep(d.cfg.PollInterval)
			continue
		default:
			return 0, err
		}
	}
}

// Channel is a single-input view of the device, sampling one multiplexer
// setting. It satisfies the one-shot source shape calibration readers expect.
type Channel struct {
	d  *Device
	ch int
}

// Channel returns a sampling view of input ch. Range errors surface on the
// first Sample call.
func (d *Device) Channel(ch int) Channel {
	return Channel{d: d, ch: ch}
}

func (c Channel) Index() int { return c.ch }

// Sample runs one conversion on the channel's input.
func (c Channel) Sample() (uint16, error) {
	return c.d.ReadChannel(c.ch)
}

// I2C 16-bit word operations (big-endian: HIGH then LOW).

func (d *Device) readWord(reg byte) (uint16, error) {
	d.w[0] = reg
	if err := d.bus.Tx(d.Address, d.w[:1], d.r[:2]); err != nil {
		return 0, err
	}
	return uint16(d.r[0])<<8 | uint16(d.r[1]), nil
}

func (d *Device) writeWord(reg byte, val uint16) error {
	d.w[0] = reg
	d.w[1] = byte(val >> 8) // high
	d.w[2] = byte(val)      // low
	return d.bus.Tx(d.Address, d.w[:3], nil)
}
