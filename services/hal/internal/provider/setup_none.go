//go:build !(pico && pico_cal_dev)

package provider

import "adccal-go/services/hal/internal/provider/setups"

func init() {
	// No board setup selected: expose the RP2-family analog pins so tools and
	// host simulations can still claim inputs. InitialHALConfig stays zero
	// (no devices until a config is published).
	SelectedPlan = setups.ResourcePlan{ADC: []int{26, 27, 28, 29}}
}
