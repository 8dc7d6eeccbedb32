//go:build !rp2040 && !rp2350

package adc

import (
	"sync"

	"adccal-go/x/mathx"
)

// SimPin is the host stand-in for an analog input. Tests and demos set its
// level or arm a fault; Sample hands those back the way hardware would.
type SimPin struct {
	mu  sync.Mutex
	num int
	raw uint16
	err error
}

func NewSimPin(num int) *SimPin { return &SimPin{num: num} }

func (p *SimPin) Pin() int { return p.num }

// Sample returns the armed fault if one is set, otherwise the current level.
func (p *SimPin) Sample() (uint16, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return 0, p.err
	}
	return p.raw, nil
}

// Set16 sets the left-aligned 16-bit level directly.
func (p *SimPin) Set16(v uint16) {
	p.mu.Lock()
	p.raw = v
	p.mu.Unlock()
}

// SetMillivolts positions the level as a fraction of full scale maxMV.
// maxMV of zero pins the level to zero.
func (p *SimPin) SetMillivolts(mv, maxMV uint16) {
	p.Set16(mathx.MapU16(mv, 0, maxMV, 0, 1<<16-1))
}

// SetErr arms a sampling fault. nil clears it.
func (p *SimPin) SetErr(err error) {
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}
