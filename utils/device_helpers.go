// Package utils holds test-support helpers shared by the device tests.
package utils

import (
	"fmt"
	"os"

	"github.com/notargets/gocca"
)

// CreateTestDevice creates a device for testing, preferring parallel
// backends and falling back to Serial. Set MGKERNEL_OCCA_MODE to force
// a specific backend, e.g. MGKERNEL_OCCA_MODE=Serial.
func CreateTestDevice() *gocca.OCCADevice {
	backends := []string{
		`{"mode": "OpenMP"}`,
		`{"mode": "CUDA", "device_id": 0}`,
		`{"mode": "Serial"}`,
	}
	if mode := os.Getenv("MGKERNEL_OCCA_MODE"); mode != "" {
		backends = []string{fmt.Sprintf(`{"mode": %q}`, mode)}
	}

	for _, props := range backends {
		device, err := gocca.NewDevice(props)
		if err == nil {
			fmt.Printf("Created %s Device\n", device.Mode())
			return device
		}
	}

	panic("Failed to create any Device")
}
