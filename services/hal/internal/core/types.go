package core

import (
	"context"

	"adccal-go/errcode"
	"adccal-go/types"
)

// ---- Capability & device model ----

// CapAddr identifies one capability on the bus:
// hal/cap/<domain>/<kind>/<name>.
type CapAddr struct {
	Domain string
	Kind   string
	Name   string
}

type CapabilitySpec struct {
	// Domain defaults per kind when empty (voltage -> "power", ...).
	Domain string
	Kind   types.Kind
	// Name defaults to the device ID when empty.
	Name string
	Info types.Info
}

// ControlResult is a device's answer to a control verb. When OK, a non-nil
// Payload is replied instead of the generic OKReply.
type ControlResult struct {
	OK      bool
	Error   errcode.Code
	Payload any
}

type Device interface {
	ID() string
	Capabilities() []CapabilitySpec
	Init(ctx context.Context) error
	// Read samples the capability once and emits the result via Resources.Pub.
	// A returned error degrades the capability instead of publishing a value.
	Read(ctx context.Context, addr CapAddr) error
	Control(addr CapAddr, verb string, payload any) (ControlResult, error)
	Close() error // releases claimed resources
}

// ---- HAL-injected resources ----

type Resources struct {
	Reg ResourceRegistry
	Pub EventEmitter // provided by HAL; devices use it to emit readings
}

// Builder input
type BuilderInput struct {
	ID, Type string
	Params   any
	Res      Resources
}

type Builder interface {
	Build(ctx context.Context, in BuilderInput) (Device, error)
}
