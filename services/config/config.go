package config

import (
	"context"
	"encoding/json"
	"errors"

	"adccal-go/bus"
	"adccal-go/services/hal"
	"adccal-go/types"
)

// -----------------------------------------------------------------------------
// String constants (live in flash, not RAM)
// -----------------------------------------------------------------------------

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// Parse decodes a config/hal document. Exposed so tools can validate a
// candidate document before publishing it.
func Parse(raw []byte) (types.HALConfig, error) {
	var cfg types.HALConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return types.HALConfig{}, err
	}
	return cfg, nil
}

// publishConfig reads the device config from embedded data and publishes each
// section as a retained message under config/<section>. Section values travel
// as raw JSON bytes; consumers decode what they need.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("missing device ID in context")
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errors.New("no embedded config for device: " + device)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return errors.New("embedded config is not a JSON object: " + err.Error())
	}

	// A build-tagged board setup overrides the embedded hal section.
	if setup := hal.InitialConfig(); len(setup.Devices) > 0 {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, "hal"), setup, true))
		delete(doc, "hal")
	}

	for k, v := range doc {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), []byte(v), true))
	}

	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("Error: config:", err.Error())
		}
	}()
}
