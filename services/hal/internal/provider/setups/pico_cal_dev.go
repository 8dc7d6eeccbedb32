//go:build pico && pico_cal_dev

package setups

import (
	"adccal-go/services/hal/internal/devices/analog"

	"adccal-go/types"
)

// SelectedPlan wires controllers to pins and sets operating parameters for this setup.
var SelectedPlan = ResourcePlan{
	ADC: []int{26, 27, 28, 29},
	I2C: []I2CPlan{
		{ID: "i2c0", SDA: 12, SCL: 13, Hz: 400_000},
	},
	UART: []UARTPlan{
		// RP2040 default pins for Pico
		{ID: "uart0", TX: 0, RX: 1, Baud: 115_200},
	},
}

// SelectedSetup lists logical devices for HAL to instantiate on boot.
// Names are chosen for meaningful public addresses under hal/cap/…
var SelectedSetup = types.HALConfig{
	Devices: []types.HALDevice{

		// NTC thermistor on ADC0, 10k divider against 3.3 V, in deci-°C
		// (public address hal/cap/env/temperature/ntc0/…). Voltage falls as
		// the board warms, so the table descends.
		{ID: "ntc0", Type: "analog_in", Params: analog.Params{
			Pin: 26, Kind: "temperature", Domain: "env", Name: "ntc0", Unit: "dC",
			Points: [][2]uint32{
				{330, 600},
				{660, 450},
				{1100, 350},
				{1650, 250},
				{2310, 120},
				{2970, 0},
			},
		}},

		// VSYS sense on ADC3 through the Pico's onboard /3 divider, in mV
		// (public address hal/cap/power/voltage/vsys/…).
		{ID: "vsys", Type: "analog_in", Params: analog.Params{
			Pin: 29, Kind: "voltage", Domain: "power", Name: "vsys", Unit: "mV",
			Points: [][2]uint32{
				{0, 0},
				{3300, 9900},
			},
		}},

		// Tank level from a 4-20 mA probe across 100 Ω on ADS1015 AIN0
		// (public address hal/cap/env/level/tank/…).
		{ID: "tank", Type: "analog_in", Params: analog.Params{
			Bus: "i2c0", Channel: 0, Gain: 1, Rate: 4,
			Kind: "level", Domain: "env", Name: "tank", Unit: "%",
			Points: [][2]uint32{
				{400, 0},
				{2000, 100},
			},
		}},

		// Lead-acid pack through a /10 divider on ADS1015 AIN1, percent
		// (public address hal/cap/power/battery/batt0/…).
		{ID: "batt0", Type: "analog_in", Params: analog.Params{
			Bus: "i2c0", Channel: 1, Gain: 1,
			Kind: "battery", Domain: "power", Name: "batt0", Unit: "%",
			Points: [][2]uint32{
				{1050, 0},
				{1280, 100},
			},
		}},
	},

	Pollers: []types.PollSpec{
		{Domain: "env", Kind: types.KindTemperature, Name: "ntc0", IntervalMs: 2_000, JitterMs: 250},
		{Domain: "power", Kind: types.KindVoltage, Name: "vsys", IntervalMs: 5_000, JitterMs: 500},
		{Domain: "env", Kind: types.KindLevel, Name: "tank", IntervalMs: 1_000},
		{Domain: "power", Kind: types.KindBattery, Name: "batt0", IntervalMs: 10_000, JitterMs: 1_000},
	},
}
