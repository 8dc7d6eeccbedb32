// Package provider owns the platform side of the HAL: it turns the selected
// wiring plan into resource owners (analog pins, per-bus I2C workers, the
// serial console) and hands them to the core as a core.Resources.
package provider

import (
	"adccal-go/services/hal/internal/core"
	"adccal-go/services/hal/internal/provider/setups"
)

// SelectedPlan and InitialHALConfig are assigned by build-tagged files
// (see setup_selected.go / setup_none.go in this package).
// They are declared here, untagged, for a single import surface on every
// target.
var (
	SelectedPlan     setups.ResourcePlan
	InitialHALConfig core.HALConfig // alias to types.HALConfig via core
)

// NewResources constructs the registry from the selected plan.
func NewResources() core.Resources {
	return core.Resources{Reg: NewResourceRegistry(SelectedPlan)}
}
