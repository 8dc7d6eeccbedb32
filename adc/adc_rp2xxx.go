//go:build rp2040 || rp2350

package adc

import "machine"

// Init powers up the on-chip converter. Call once before NewPin.
func Init() {
	machine.InitADC()
}

// Pin is one analog input on the on-chip converter.
type Pin struct {
	adc machine.ADC
	num int
}

// NewPin configures GPIO num as an analog input. On the Pico family only
// GPIO26..29 reach the converter; other numbers read as noise.
func NewPin(num int) *Pin {
	a := machine.ADC{Pin: machine.Pin(num)}
	a.Configure(machine.ADCConfig{})
	return &Pin{adc: a, num: num}
}

func (p *Pin) Pin() int { return p.num }

// Sample runs one conversion and returns it left-aligned to 16 bits.
func (p *Pin) Sample() (uint16, error) {
	return p.adc.Get(), nil
}
