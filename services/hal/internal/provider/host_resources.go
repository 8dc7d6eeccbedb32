//go:build !rp2040 && !rp2350

package provider

import (
	"io"
	"os"
	"sync"

	"adccal-go/adc"
	"adccal-go/services/hal/internal/core"
	"adccal-go/services/hal/internal/provider/setups"
)

// Ensure the provider satisfies the contracts at compile time.
var _ core.ResourceRegistry = (*hostRegistry)(nil)

// I2CResponder emulates a bus target on the host. w carries the write phase,
// r the buffer the caller expects filled.
type I2CResponder func(addr uint16, w, r []byte) error

// HostI2C is the inert responder assigned to planned buses: it records the
// last transaction and leaves the read buffer zeroed.
type HostI2C struct {
	mu     sync.Mutex
	LastTx struct {
		Addr uint16
		W    []byte
		Rn   int
	}
}

func (h *HostI2C) respond(addr uint16, w, r []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastTx.Addr = addr
	h.LastTx.W = append([]byte(nil), w...)
	h.LastTx.Rn = len(r)
	return nil
}

// hostI2C is the per-claim view. The mutex stands in for the per-bus worker:
// transactions stay serialised even with several claimants.
type hostI2C struct {
	mu  *sync.Mutex
	reg *hostRegistry
	id  core.ResourceID
}

func (b *hostI2C) Tx(addr uint16, w, r []byte, _ int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn := b.reg.responder(b.id)
	if fn == nil {
		return core.ErrUnknownBus
	}
	return fn(addr, w, r)
}

// hostRegistry is the host stand-in for the RP2 registry: stable SimPin
// instances per analog input and scriptable I2C responders.
type hostRegistry struct {
	mu sync.Mutex

	adcValid  map[int]bool
	adcOwners map[int]string
	pins      map[int]*adc.SimPin

	i2cLocks map[core.ResourceID]*sync.Mutex
	i2cResp  map[core.ResourceID]I2CResponder
	i2cRec   map[core.ResourceID]*HostI2C
}

// hostReg is the registry most recently built by NewResourceRegistry; the
// package-level accessors below operate on it so simulations reached through
// the hal facade can script pins and buses.
var hostReg *hostRegistry

func NewResourceRegistry(plan setups.ResourcePlan) *hostRegistry {
	r := &hostRegistry{
		adcValid:  make(map[int]bool),
		adcOwners: make(map[int]string),
		pins:      make(map[int]*adc.SimPin),
		i2cLocks:  make(map[core.ResourceID]*sync.Mutex),
		i2cResp:   make(map[core.ResourceID]I2CResponder),
		i2cRec:    make(map[core.ResourceID]*HostI2C),
	}
	for _, n := range plan.ADC {
		r.adcValid[n] = true
	}
	for _, p := range plan.I2C {
		id := core.ResourceID(p.ID)
		rec := &HostI2C{}
		r.i2cLocks[id] = &sync.Mutex{}
		r.i2cResp[id] = rec.respond
		r.i2cRec[id] = rec
	}
	hostReg = r
	return r
}

// Analog inputs (exclusive)

func (r *hostRegistry) ClaimADC(devID string, pin int) (core.ADCPin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.adcValid[pin] {
		return nil, core.ErrUnknownPin
	}
	if owner, inUse := r.adcOwners[pin]; inUse && owner != devID {
		return nil, core.ErrPinInUse
	}
	r.adcOwners[pin] = devID
	return r.lookupPin(pin), nil
}

func (r *hostRegistry) ReleaseADC(devID string, pin int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, ok := r.adcOwners[pin]; ok && owner == devID {
		delete(r.adcOwners, pin)
	}
}

// caller holds lock
func (r *hostRegistry) lookupPin(pin int) *adc.SimPin {
	p, ok := r.pins[pin]
	if !ok {
		p = adc.NewSimPin(pin)
		r.pins[pin] = p
	}
	return p
}

// SimADC returns the stable SimPin for a plan-listed input, creating it if
// needed, so levels can be scripted before or after the claim. Unknown pins
// return nil.
func (r *hostRegistry) SimADC(pin int) *adc.SimPin {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.adcValid[pin] {
		return nil
	}
	return r.lookupPin(pin)
}

// Transactional buses (I2C, shared)

func (r *hostRegistry) ClaimI2C(devID string, id core.ResourceID) (core.I2COwner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.i2cLocks[id]
	if l == nil {
		return nil, core.ErrUnknownBus
	}
	return &hostI2C{mu: l, reg: r, id: id}, nil
}

func (r *hostRegistry) ReleaseI2C(devID string, id core.ResourceID) {}

func (r *hostRegistry) responder(id core.ResourceID) I2CResponder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.i2cResp[id]
}

// SetI2CResponder replaces a planned bus's behavior, e.g. with a scripted
// device model. It keeps the bus's serialisation lock.
func (r *hostRegistry) SetI2CResponder(id core.ResourceID, fn I2CResponder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.i2cLocks[id]; !ok {
		return
	}
	r.i2cResp[id] = fn
}

// HostBus exposes the default recorder for a planned bus.
func (r *hostRegistry) HostBus(id core.ResourceID) (*HostI2C, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.i2cRec[id]
	return rec, ok
}

// Close keeps the registry surface symmetric with the RP2 provider; the host
// registry runs no workers.
func (r *hostRegistry) Close() {}

// Package-level accessors against the facade-built registry.

func SimADC(pin int) *adc.SimPin {
	if hostReg == nil {
		return nil
	}
	return hostReg.SimADC(pin)
}

func SetI2CResponder(id core.ResourceID, fn I2CResponder) {
	if hostReg != nil {
		hostReg.SetI2CResponder(id, fn)
	}
}

// -----------------------------------------------------------------------------
// Console (stdio)
// -----------------------------------------------------------------------------

type hostConsole struct{}

func (hostConsole) Read(b []byte) (int, error)  { return os.Stdin.Read(b) }
func (hostConsole) Write(b []byte) (int, error) { return os.Stdout.Write(b) }

// Console bridges the board console surface to stdio on the host.
func Console() io.ReadWriter { return hostConsole{} }
