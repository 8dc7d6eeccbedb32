//go:build !rp2040 && !rp2350

package hal

import (
	"adccal-go/adc"
	"adccal-go/services/hal/internal/provider"
)

// SimADC exposes the host registry's stable simulated input so demos and
// tests can script levels before or after a device claims the pin. nil for
// pins the plan does not list.
func SimADC(pin int) *adc.SimPin {
	resources()
	return provider.SimADC(pin)
}
