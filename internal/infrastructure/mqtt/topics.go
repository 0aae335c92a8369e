package mqtt

import "fmt"

// DefaultTopicPrefix is the topic root used when no prefix is configured.
const DefaultTopicPrefix = "audiolink"

// Topics provides builders for AudioLink MQTT topics under a configurable
// root. Using these helpers ensures consistent topic naming across the
// codebase.
//
//	topics := mqtt.NewTopics("speaker")
//	topics.TransportSessions()
//	// Returns: "speaker/transport/sessions"
//
// The zero value uses DefaultTopicPrefix.
type Topics struct {
	Prefix string
}

// NewTopics returns topic builders rooted at prefix.
func NewTopics(prefix string) Topics {
	return Topics{Prefix: prefix}
}

func (t Topics) root() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// =============================================================================
// Transport Topics (published by the transport manager)
// =============================================================================

// TransportSessions returns the topic carrying the full list of transport
// sessions.
//
// Example: audiolink/transport/sessions
func (t Topics) TransportSessions() string {
	return fmt.Sprintf("%s/transport/sessions", t.root())
}

// =============================================================================
// Command Topics (published by UIs and tools)
// =============================================================================

// Command returns the topic for a named command.
//
// Example: audiolink/command/preferred_session
func (t Topics) Command(name string) string {
	return fmt.Sprintf("%s/command/%s", t.root(), name)
}

// CommandAck returns the topic acknowledging a named command.
//
// Example: audiolink/ack/preferred_session
func (t Topics) CommandAck(name string) string {
	return fmt.Sprintf("%s/ack/%s", t.root(), name)
}

// AllCommands returns a wildcard pattern matching every command topic.
//
// Example: audiolink/command/#
func (t Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/#", t.root())
}

// =============================================================================
// Core Topics (published by this service, retained)
// =============================================================================

// CoreState returns the retained state topic for a registry view.
//
// Example: audiolink/core/sessions
func (t Topics) CoreState(name string) string {
	return fmt.Sprintf("%s/core/%s", t.root(), name)
}

// CoreEvent returns the topic for registry events.
//
// Example: audiolink/core/event/preferred
func (t Topics) CoreEvent(eventType string) string {
	return fmt.Sprintf("%s/core/event/%s", t.root(), eventType)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic, also used for the LWT.
//
// Example: audiolink/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.root())
}
