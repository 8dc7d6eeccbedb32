// services/hal/hal.go

// Package hal runs the hardware abstraction service: it builds devices from
// published config, claims platform resources for them, and exposes each
// capability's info, status, value, and control surface on the message bus.
package hal

import (
	"context"
	"io"
	"sync"

	"adccal-go/bus"
	"adccal-go/services/hal/internal/core"
	"adccal-go/services/hal/internal/provider"
	"adccal-go/types"

	// Device builders register themselves with the core registry.
	_ "adccal-go/services/hal/internal/devices/analog"
)

var (
	resOnce sync.Once
	res     core.Resources
)

// resources builds the platform registry once; Run and Console share it.
func resources() core.Resources {
	resOnce.Do(func() { res = provider.NewResources() })
	return res
}

// Run wires the selected platform resources to the HAL core and blocks until
// ctx is cancelled.
func Run(ctx context.Context, conn *bus.Connection) {
	core.NewHAL(conn, resources()).Run(ctx)
}

// InitialConfig returns the board setup's device list, zero when no board
// setup is compiled in. The config service publishes it retained on
// config/hal to bring devices up at boot.
func InitialConfig() types.HALConfig {
	return provider.InitialHALConfig
}

// Console returns the board console: the first planned UART on hardware,
// stdio on the host. nil when the build has neither.
func Console() io.ReadWriter {
	resources()
	return provider.Console()
}
