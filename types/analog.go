package types

// Analog input capability payloads. Values stay integer-only: the calibration
// table maps raw ADC codes to whatever integer unit the channel was calibrated
// in (deci-°C, millivolts, percent, ...).

// AnalogInfo is published as Info.Detail for each analog channel (retained).
type AnalogInfo struct {
	Pin     int    `json:"pin,omitempty"`     // on-chip ADC pin (pin source)
	Bus     string `json:"bus,omitempty"`     // I²C bus id (bus source)
	Addr    uint16 `json:"addr,omitempty"`    // I²C address (bus source)
	Channel uint8  `json:"channel,omitempty"` // converter input (bus source)

	Bits      uint32 `json:"bits"`   // ADC precision the table was built for
	MaxMilliV uint32 `json:"max_mv"` // full-scale reference
	Points    int    `json:"points"` // calibration table length
	Unit      string `json:"unit,omitempty"`

	MinValue uint32 `json:"min_value"` // smaller of the table's endpoint values
	MaxValue uint32 `json:"max_value"` // larger of the table's endpoint values
}

// AnalogValue is published under hal/cap/.../value (retained).
// When the raw code falls outside the calibration table, InRange is false and
// Value carries no meaning; no substitute value is reported.
type AnalogValue struct {
	Raw     uint16 `json:"raw"` // native-width ADC code
	Value   uint32 `json:"value"`
	InRange bool   `json:"in_range"`
}

// RangeReply answers the "range" control verb from the table endpoints.
type RangeReply struct {
	OK   bool   `json:"ok"`
	Min  uint32 `json:"min"`
	Max  uint32 `json:"max"`
	Unit string `json:"unit,omitempty"`
}
