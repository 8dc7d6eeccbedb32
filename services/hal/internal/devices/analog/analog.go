// Package analog implements the calibrated analog input device type.
//
// Each device owns one sampling source (an on-chip ADC pin or an ADS1015
// channel) and a piecewise-linear calibration table built from its params.
// Readings publish as types.AnalogValue; codes outside the table report
// InRange false rather than a clamped or substituted value.
package analog

import (
	"context"
	"errors"

	"adccal-go/drivers/ads1015"
	"adccal-go/interp"
	"adccal-go/services/hal/internal/core"
	"adccal-go/services/hal/internal/util"
	"adccal-go/types"
	"adccal-go/x/strx"
)

// Params configures one analog input.
//
// Pin source:  {"pin": 26, "bits": 12, "max_mv": 3300, ...}
// Bus source:  {"bus": "i2c0", "addr": 72, "channel": 0, "gain": 1, ...}
//
// Points map millivolts at the input to calibrated values, ascending by
// millivolts. Values may rise or fall across the table.
type Params struct {
	Pin     int    `json:"pin,omitempty"`
	Bus     string `json:"bus,omitempty"`
	Addr    uint16 `json:"addr,omitempty"`
	Channel int    `json:"channel,omitempty"`
	Gain    int    `json:"gain,omitempty"`      // ADS1015 gain index (0..5)
	Rate    int    `json:"data_rate,omitempty"` // ADS1015 data-rate index (0..6)

	Bits      uint32      `json:"bits,omitempty"`   // default: 12 (pin), 11 (bus)
	MaxMilliV uint32      `json:"max_mv,omitempty"` // default: 3300 (pin), gain FS (bus)
	Kind      string      `json:"kind,omitempty"`   // default: "voltage"
	Domain    string      `json:"domain,omitempty"`
	Name      string      `json:"name,omitempty"`
	Unit      string      `json:"unit,omitempty"`
	Points    [][2]uint32 `json:"points"` // [millivolts, value] pairs
}

const (
	// RP2-family on-chip converter geometry.
	pinBits  = 12
	pinMaxMV = 3300
	// ADS1015 single-ended codes span 0..2047, so 11 effective bits.
	busBits = 11

	minPoints = 2
)

type builder struct{}

func init() { core.RegisterBuilder("analog_in", builder{}) }

var errTooFewPoints = errors.New("analog: need at least 2 calibration points")

func (builder) Build(ctx context.Context, in core.BuilderInput) (core.Device, error) {
	var p Params
	if err := util.DecodeJSON(in.Params, &p); err != nil {
		return nil, errors.New("analog: bad params: " + err.Error())
	}
	if len(p.Points) < minPoints {
		return nil, errTooFewPoints
	}

	bits, maxMV := p.Bits, p.MaxMilliV
	var gain ads1015.Gain
	var rate ads1015.DataRate
	if p.Bus != "" {
		var ok bool
		if gain, ok = ads1015.GainByIndex(p.Gain); !ok {
			return nil, errors.New("analog: bad gain index")
		}
		if rate, ok = ads1015.DataRateByIndex(p.Rate); !ok {
			return nil, errors.New("analog: bad data-rate index")
		}
		if p.Channel < 0 || p.Channel > 3 {
			return nil, ads1015.ErrChannel
		}
		if bits == 0 {
			bits = busBits
		}
		if maxMV == 0 {
			maxMV = gain.FullScaleMillivolts()
		}
	} else {
		if bits == 0 {
			bits = pinBits
		}
		if maxMV == 0 {
			maxMV = pinMaxMV
		}
	}

	pts := make([]interp.Point, len(p.Points))
	for i, pair := range p.Points {
		pts[i] = interp.Point{Voltage: pair[0], Value: pair[1]}
	}
	table, err := interp.BuildTable[uint16](interp.Config{
		MaxVoltage: maxMV,
		Precision:  bits,
		Points:     pts,
	})
	if err != nil {
		return nil, err
	}

	d := &device{
		id:     in.ID,
		res:    in.Res,
		table:  table,
		unit:   p.Unit,
		relPin: -1,
	}

	detail := types.AnalogInfo{
		Bits:      bits,
		MaxMilliV: maxMV,
		Points:    table.Len(),
		Unit:      p.Unit,
		MinValue:  table.MinValue(),
		MaxValue:  table.MaxValue(),
	}
	driver := "rp2_adc"

	if p.Bus != "" {
		own, err := in.Res.Reg.ClaimI2C(in.ID, core.ResourceID(p.Bus))
		if err != nil {
			return nil, err
		}
		addr := p.Addr
		if addr == 0 {
			addr = ads1015.Address
		}
		drv := ads1015.New(busI2C{own: own})
		drv.Configure(ads1015.Config{Address: addr, Gain: gain, DataRate: rate})
		d.conv = drv
		d.src = d.conv.Channel(p.Channel)
		d.relBus = core.ResourceID(p.Bus)
		driver = "ads1015"
		detail.Bus = p.Bus
		detail.Addr = addr
		detail.Channel = uint8(p.Channel)
	} else {
		pin, err := in.Res.Reg.ClaimADC(in.ID, p.Pin)
		if err != nil {
			return nil, err
		}
		d.src = pinSource{pin: pin, bits: bits}
		d.relPin = p.Pin
		detail.Pin = p.Pin
	}

	kind := types.Kind(strx.Coalesce(p.Kind, string(types.KindVoltage)))
	d.cap = core.CapabilitySpec{
		Domain: p.Domain,
		Kind:   kind,
		Name:   p.Name,
		Info:   types.Info{SchemaVersion: 1, Driver: driver, Detail: detail},
	}
	return d, nil
}
