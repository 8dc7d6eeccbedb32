//go:build rp2040 || rp2350

package provider

import (
	"context"
	"io"
	"sync"
	"time"

	"adccal-go/adc"
	"adccal-go/errcode"
	"adccal-go/services/hal/internal/core"
	"adccal-go/services/hal/internal/provider/setups"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// Ensure the provider satisfies the contracts at compile time.
var _ core.ResourceRegistry = (*rp2Registry)(nil)

// -----------------------------------------------------------------------------
// I2C owner (one worker per bus)
// -----------------------------------------------------------------------------

// request posted to the per-bus worker
type i2cReq struct {
	addr uint16
	w, r []byte
	done chan error // buffered(1); worker replies best-effort
}

// per-bus owner that hosts a single worker goroutine
type i2cOwner struct {
	id   core.ResourceID
	hw   *machine.I2C
	reqs chan i2cReq
	quit chan struct{}
}

func newI2COwner(id core.ResourceID, hw *machine.I2C) *i2cOwner {
	o := &i2cOwner{
		id:   id,
		hw:   hw,
		reqs: make(chan i2cReq, 16),
		quit: make(chan struct{}),
	}
	go o.loop()
	return o
}

func (o *i2cOwner) loop() {
	for {
		select {
		case req := <-o.reqs:
			err := o.hw.Tx(req.addr, req.w, req.r)
			// best-effort reply; do not block the worker
			select {
			case req.done <- err:
			default:
			}
		case <-o.quit:
			return
		}
	}
}

func (o *i2cOwner) stop() { close(o.quit) }

// defaultI2CTimeout applies when a transaction passes timeoutMS <= 0.
const defaultI2CTimeout = 250 * time.Millisecond

// busView adapts a per-bus owner to core.I2COwner. Enqueueing is bounded by
// the deadline (a full queue reports Busy), completion by the same deadline
// again (a stuck transaction reports Timeout).
type busView struct {
	o   *i2cOwner
	def time.Duration
}

var _ core.I2COwner = (*busView)(nil)

func (v *busView) Tx(addr uint16, w, r []byte, timeoutMS int) error {
	d := v.def
	if timeoutMS > 0 {
		d = time.Duration(timeoutMS) * time.Millisecond
	}
	req := i2cReq{addr: addr, w: w, r: r, done: make(chan error, 1)}

	t := time.NewTimer(d)
	select {
	case v.o.reqs <- req:
		if !t.Stop() {
			<-t.C
		}
	case <-t.C:
		return errcode.Busy
	}

	t = time.NewTimer(d)
	defer t.Stop()
	select {
	case err := <-req.done:
		return err
	case <-t.C:
		return errcode.Timeout
	}
}

// -----------------------------------------------------------------------------
// Resource registry (ADC + I2C)
// -----------------------------------------------------------------------------

type rp2Registry struct {
	mu sync.Mutex

	// Analog inputs: plan-listed pins, exclusive ownership, cached handles.
	adcValid  map[int]bool
	adcOwners map[int]string
	adcPins   map[int]*adc.Pin

	// I2C
	i2cOwners map[core.ResourceID]*i2cOwner
}

func NewResourceRegistry(plan setups.ResourcePlan) *rp2Registry {
	r := &rp2Registry{
		adcValid:  make(map[int]bool),
		adcOwners: make(map[int]string),
		adcPins:   make(map[int]*adc.Pin),
		i2cOwners: make(map[core.ResourceID]*i2cOwner),
	}

	if len(plan.ADC) > 0 {
		adc.Init()
		for _, n := range plan.ADC {
			r.adcValid[n] = true
		}
	}

	// Instantiate I2C owners from the provided plan (pins and frequency).
	for _, p := range plan.I2C {
		var hw *machine.I2C
		switch p.ID {
		case "i2c0":
			hw = machine.I2C0
		case "i2c1":
			hw = machine.I2C1
		default:
			continue
		}
		// Configure pins & bus frequency.
		sda := machine.Pin(p.SDA)
		scl := machine.Pin(p.SCL)
		sda.Configure(machine.PinConfig{Mode: machine.PinI2C})
		scl.Configure(machine.PinConfig{Mode: machine.PinI2C})
		hw.Configure(machine.I2CConfig{
			SCL:       scl,
			SDA:       sda,
			Frequency: p.Hz,
		})
		r.i2cOwners[core.ResourceID(p.ID)] = newI2COwner(core.ResourceID(p.ID), hw)
	}

	// UART setup; the first planned port becomes the board console.
	for _, u := range plan.UART {
		var hw *uartx.UART
		switch u.ID {
		case "uart0":
			hw = uartx.UART0
		case "uart1":
			hw = uartx.UART1
		default:
			continue
		}
		// Configure pins and baud. Defaults inside uartx will apply if zero.
		_ = hw.Configure(uartx.UARTConfig{
			BaudRate: u.Baud,
			TX:       machine.Pin(u.TX),
			RX:       machine.Pin(u.RX),
		})
		if console == nil {
			console = &serialConsole{u: hw}
		}
	}

	return r
}

// Analog inputs (exclusive)

func (r *rp2Registry) ClaimADC(devID string, pin int) (core.ADCPin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.adcValid[pin] {
		return nil, core.ErrUnknownPin
	}
	if owner, inUse := r.adcOwners[pin]; inUse && owner != devID {
		return nil, core.ErrPinInUse
	}
	h := r.adcPins[pin]
	if h == nil {
		h = adc.NewPin(pin)
		r.adcPins[pin] = h
	}
	r.adcOwners[pin] = devID
	return h, nil
}

func (r *rp2Registry) ReleaseADC(devID string, pin int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, ok := r.adcOwners[pin]; ok && owner == devID {
		delete(r.adcOwners, pin)
	}
}

// Transactional buses (I2C, shared)

func (r *rp2Registry) ClaimI2C(devID string, id core.ResourceID) (core.I2COwner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.i2cOwners[id]
	if o == nil {
		return nil, core.ErrUnknownBus
	}
	return &busView{o: o, def: defaultI2CTimeout}, nil
}

func (r *rp2Registry) ReleaseI2C(devID string, id core.ResourceID) {
	// Owners are long-lived per bus; nothing to do here.
}

// Close stops background workers (the per-bus I2C goroutines).
func (r *rp2Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.i2cOwners {
		if o != nil {
			o.stop()
		}
	}
}

// -----------------------------------------------------------------------------
// Serial console (uartx)
// -----------------------------------------------------------------------------

var console *serialConsole

// serialConsole adapts uartx to io.ReadWriter for the report service and
// interactive tools.
type serialConsole struct{ u *uartx.UART }

func (c *serialConsole) Write(b []byte) (int, error) { return c.u.Write(b) }

// Read blocks until at least one byte arrives.
func (c *serialConsole) Read(b []byte) (int, error) {
	return c.u.RecvSomeContext(context.Background(), b)
}

func (c *serialConsole) SetBaudRate(br uint32) error { c.u.SetBaudRate(br); return nil }

// Parity strings: "none","even","odd"
func (c *serialConsole) SetFormat(databits, stopbits uint8, parity string) error {
	var par uartx.UARTParity
	switch parity {
	case "even":
		par = uartx.ParityEven
	case "odd":
		par = uartx.ParityOdd
	default:
		par = uartx.ParityNone
	}
	return c.u.SetFormat(databits, stopbits, par)
}

// Console returns the first planned UART, or nil before NewResourceRegistry
// runs (or when the plan lists none).
func Console() io.ReadWriter {
	if console == nil {
		return nil
	}
	return console
}
