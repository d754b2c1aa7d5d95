package schema

// Registered configuration keys distributed over the config-change channel.
const (
	// ConfigKeyMaxEvents bounds the number of events retained in memory.
	ConfigKeyMaxEvents = "dev_console_max_events"
	// ConfigKeyMaxLogs bounds the number of log lines retained in memory.
	ConfigKeyMaxLogs = "dev_console_max_logs"
	// ConfigKeyConsoleURL sets the dashboard UI sub-path.
	ConfigKeyConsoleURL = "dev_console_url"
)

// ConfigChange is the staged change-set broadcast on the config-change
// channel. Only keys present in the map are applied by consumers.
type ConfigChange map[string]any
