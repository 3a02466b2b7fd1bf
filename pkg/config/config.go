package config

// Config is the persisted configuration of battind. Command line flags
// take precedence over it.
type Config interface {
	// Source is the power source reader kind, see powersource.Kinds.
	Source() string
	// UI is the presentation sink: tray, tui or none.
	UI() string
	// StatusSocket is the unix socket of the status API. Empty disables it.
	StatusSocket() string
	EnableMetrics() bool

	SetSource(string)
	SetUI(string)
	SetStatusSocket(string)
	SetEnableMetrics(bool)

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
