package config

// Generation defaults.
const (
	DefaultVisibility  = "private"
	DefaultMode        = "complete"
	DefaultTags        = true
	DefaultWorkers     = 0
	DefaultMaxFileSize = "1MiB"
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Telemetry defaults.
const (
	DefaultSampleRatio = 1.0
	DefaultEnvironment = ""
)
