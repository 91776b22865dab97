package contracts

import (
	"fmt"
	"runtime"
)

// ExportFormatVersion identifies the enriched table layout written by exports
const ExportFormatVersion = "v1"

// Build metadata, overridden with -ldflags "-X flightops/pkg/contracts.Version=..."
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// GetFullVersionString describes the binary for --version
func GetFullVersionString() string {
	return fmt.Sprintf("FlightOps Dashboard v%s (export %s, built %s, commit %s, %s %s/%s)",
		Version, ExportFormatVersion, BuildTime, GitCommit,
		runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
