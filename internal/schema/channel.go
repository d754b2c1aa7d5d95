// Package schema defines the event, log and HTTP types that travel over the host bus.
package schema

// Channel identifies a category of bus traffic. Channels are discovered
// dynamically; the set only grows during a process lifetime.
type Channel string

const (
	// ChannelHeartbeat carries the host's periodic heartbeat signal.
	ChannelHeartbeat Channel = "app.heartbeat"
	// ChannelLogging carries structured log records emitted by components.
	ChannelLogging Channel = "app.logging"
	// ChannelHTTPRequest carries inbound HTTP requests published by the transport.
	ChannelHTTPRequest Channel = "http.request"
	// ChannelConfigChange carries broadcast configuration change-sets.
	ChannelConfigChange Channel = "app.config_change"
	// ChannelServiceUnregister carries asynchronous service deregistration requests.
	ChannelServiceUnregister Channel = "app.service_unregister"
)
