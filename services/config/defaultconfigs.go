package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

// The hal section is the fallback when no board setup is compiled in: one
// uncalibrated channel on ADC0 reporting raw millivolts.
const cfgPico = `{
  "hal": {
    "devices": [
      {
        "id": "adc0",
        "type": "analog_in",
        "params": {
          "pin": 26,
          "kind": "voltage",
          "name": "adc0",
          "unit": "mV",
          "points": [[0, 0], [3300, 3300]]
        }
      }
    ],
    "pollers": [
      {"domain": "power", "kind": "voltage", "name": "adc0", "interval_ms": 2000, "jitter_ms": 200}
    ]
  },
  "heartbeat": {
    "interval_ms": 1000
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
}
