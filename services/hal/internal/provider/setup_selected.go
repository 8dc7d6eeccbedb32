//go:build pico && pico_cal_dev

package provider

import (
	"adccal-go/services/hal/internal/provider/setups"
)

func init() {
	SelectedPlan = setups.SelectedPlan
	InitialHALConfig = setups.SelectedSetup
}
