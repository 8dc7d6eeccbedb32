package core

import (
	"errors"
)

type ResourceID string // e.g. "i2c0", "i2c1"

// ---- On-chip ADC pins ----

// ADCPin is a claimed analog input. Samples follow the TinyGo convention:
// 16-bit left-aligned regardless of the converter's native precision.
type ADCPin interface {
	Pin() int
	Sample() (uint16, error)
}

// ---- Transactional buses (serialised operations) ----

// I2COwner exposes a single atomic transaction.
// timeoutMS: 0 => provider default.
//
// The implementation serialises all hardware access behind a single worker
// per bus. Callers may invoke Tx from their own goroutines; Tx itself blocks
// until the transaction completes or times out.
type I2COwner interface {
	Tx(addr uint16, w []byte, r []byte, timeoutMS int) error
}

// ---- Device → HAL telemetry (single shape) ----
// An Event carries one reading for a capability; HAL publishes it to
// .../value (retained) and marks the capability up. Err, when non-empty,
// causes HAL to publish only .../status=degraded (retained).

type Event struct {
	Addr    CapAddr
	Payload any   // typed value payload (e.g. types.AnalogValue)
	TSms    int64 // ms timestamp
	Err     string
}

// ---- Event emission (devices → HAL) ----

type EventEmitter interface {
	// Emit tries to enqueue an Event for HAL publication.
	// It must be non-blocking; false indicates a drop under pressure.
	Emit(ev Event) bool
}

// ---- Unified registry interface ----

type ResourceRegistry interface {
	// On-chip ADC pins
	ClaimADC(devID string, pin int) (ADCPin, error)
	ReleaseADC(devID string, pin int)

	// Transactional buses
	ClaimI2C(devID string, id ResourceID) (I2COwner, error)
	ReleaseI2C(devID string, id ResourceID)
}

// Short error codes

var (
	ErrUnknownPin = errors.New("unknown_pin")
	ErrPinInUse   = errors.New("pin_in_use")

	ErrUnknownBus = errors.New("unknown_bus")
	ErrBusInUse   = errors.New("bus_in_use")
	ErrTimeout    = errors.New("timeout")
)
