//go:build !rp2040 && !rp2350

package provider

import (
	"errors"
	"testing"

	"adccal-go/services/hal/internal/core"
	"adccal-go/services/hal/internal/provider/setups"
)

func testPlan() setups.ResourcePlan {
	return setups.ResourcePlan{
		ADC: []int{26, 29},
		I2C: []setups.I2CPlan{{ID: "i2c0", SDA: 12, SCL: 13, Hz: 400_000}},
	}
}

func TestClaimADC_PlanGated(t *testing.T) {
	r := NewResourceRegistry(testPlan())

	pin, err := r.ClaimADC("a0", 26)
	if err != nil {
		t.Fatalf("ClaimADC(26): %v", err)
	}
	if pin.Pin() != 26 {
		t.Fatalf("Pin() = %d, want 26", pin.Pin())
	}

	if _, err := r.ClaimADC("a0", 31); !errors.Is(err, core.ErrUnknownPin) {
		t.Fatalf("ClaimADC(31) err = %v, want unknown_pin", err)
	}
}

func TestClaimADC_Exclusive(t *testing.T) {
	r := NewResourceRegistry(testPlan())

	if _, err := r.ClaimADC("a0", 26); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if _, err := r.ClaimADC("b0", 26); !errors.Is(err, core.ErrPinInUse) {
		t.Fatalf("conflicting claim err = %v, want pin_in_use", err)
	}
	// Re-claim by the same owner is idempotent.
	if _, err := r.ClaimADC("a0", 26); err != nil {
		t.Fatalf("re-claim: %v", err)
	}

	// Release by a non-owner must not free the pin.
	r.ReleaseADC("b0", 26)
	if _, err := r.ClaimADC("b0", 26); !errors.Is(err, core.ErrPinInUse) {
		t.Fatalf("claim after foreign release err = %v, want pin_in_use", err)
	}

	r.ReleaseADC("a0", 26)
	if _, err := r.ClaimADC("b0", 26); err != nil {
		t.Fatalf("claim after release: %v", err)
	}
}

func TestSimADC_StableInstance(t *testing.T) {
	r := NewResourceRegistry(testPlan())

	// Script the level before anything claims the pin.
	sim := r.SimADC(29)
	if sim == nil {
		t.Fatal("SimADC(29) = nil")
	}
	sim.Set16(0x1234)

	pin, err := r.ClaimADC("a0", 29)
	if err != nil {
		t.Fatalf("ClaimADC: %v", err)
	}
	if v, _ := pin.Sample(); v != 0x1234 {
		t.Fatalf("Sample = %#x, want 0x1234", v)
	}
	if r.SimADC(29) != sim {
		t.Fatal("SimADC returned a different instance")
	}
	if r.SimADC(7) != nil {
		t.Fatal("SimADC on an unplanned pin should be nil")
	}
}

func TestClaimI2C_PlannedBusesOnly(t *testing.T) {
	r := NewResourceRegistry(testPlan())

	if _, err := r.ClaimI2C("d0", "i2c0"); err != nil {
		t.Fatalf("ClaimI2C(i2c0): %v", err)
	}
	if _, err := r.ClaimI2C("d0", "i2c9"); !errors.Is(err, core.ErrUnknownBus) {
		t.Fatalf("ClaimI2C(i2c9) err = %v, want unknown_bus", err)
	}
}

func TestI2C_DefaultRecorder(t *testing.T) {
	r := NewResourceRegistry(testPlan())
	bus, err := r.ClaimI2C("d0", "i2c0")
	if err != nil {
		t.Fatalf("ClaimI2C: %v", err)
	}

	w := []byte{0x01, 0xd3, 0x03}
	rd := make([]byte, 2)
	if err := bus.Tx(0x48, w, rd, 0); err != nil {
		t.Fatalf("Tx: %v", err)
	}

	rec, ok := r.HostBus("i2c0")
	if !ok {
		t.Fatal("HostBus(i2c0) missing")
	}
	if rec.LastTx.Addr != 0x48 || rec.LastTx.Rn != 2 {
		t.Fatalf("recorded %+v", rec.LastTx)
	}
	if len(rec.LastTx.W) != 3 || rec.LastTx.W[0] != 0x01 {
		t.Fatalf("recorded write %#v", rec.LastTx.W)
	}
	if rd[0] != 0 || rd[1] != 0 {
		t.Fatalf("read buffer %#v, want zeros", rd)
	}
}

func TestSetI2CResponder(t *testing.T) {
	r := NewResourceRegistry(testPlan())
	bus, _ := r.ClaimI2C("d0", "i2c0")

	fault := errors.New("nak")
	r.SetI2CResponder("i2c0", func(addr uint16, w, rd []byte) error {
		if len(rd) == 2 {
			rd[0], rd[1] = 0xAB, 0xCD
			return nil
		}
		return fault
	})

	rd := make([]byte, 2)
	if err := bus.Tx(0x48, []byte{0x00}, rd, 0); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if rd[0] != 0xAB || rd[1] != 0xCD {
		t.Fatalf("scripted read %#v", rd)
	}
	if err := bus.Tx(0x48, []byte{0x00}, nil, 0); !errors.Is(err, fault) {
		t.Fatalf("scripted error = %v, want nak", err)
	}

	// Replacing behavior on an unplanned bus is a no-op.
	r.SetI2CResponder("i2c9", func(uint16, []byte, []byte) error { return nil })
	if _, err := r.ClaimI2C("d0", "i2c9"); !errors.Is(err, core.ErrUnknownBus) {
		t.Fatalf("i2c9 err = %v, want unknown_bus", err)
	}
}

func TestPackageAccessorsFollowLatestRegistry(t *testing.T) {
	NewResourceRegistry(testPlan())
	if SimADC(26) == nil {
		t.Fatal("package SimADC did not reach the current registry")
	}
	hit := false
	SetI2CResponder("i2c0", func(uint16, []byte, []byte) error {
		hit = true
		return nil
	})
	bus, _ := hostReg.ClaimI2C("d0", "i2c0")
	if err := bus.Tx(0x10, nil, nil, 0); err != nil || !hit {
		t.Fatalf("responder not installed (err %v, hit %v)", err, hit)
	}
}
