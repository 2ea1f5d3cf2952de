package core

// Version information for the task agent runtime
const (
	// Version is the current runtime version
	Version = "development"

	// APIVersion is the current API version
	APIVersion = "v1alpha1"
)

// Set at build time with -ldflags "-X".
var (
	BuildDate = "development"
	GitCommit = "unknown"
)
