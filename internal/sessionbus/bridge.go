package sessionbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/nerrad567/audiolink-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/audiolink-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/audiolink-core/internal/registry"
)

// Bridge connects the device registry to the MQTT bus.
// It handles:
//   - Session lists from the transport manager, applied with UpdateSessions
//   - Preferred-session and profile commands from UIs, acknowledged on ack topics
//   - Retained state views republished after every registry change
//   - Registry statistics written to InfluxDB after each session update
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	mqtt     MQTTClient
	registry *registry.Registry
	topics   mqtt.Topics
	qos      byte
	deviceID string

	metrics   MetricsWriter
	metricsMu sync.RWMutex

	subscribed []string
	runMu      sync.Mutex
	running    bool

	sessionUpdates  atomic.Uint64
	commandsHandled atomic.Uint64
	commandsFailed  atomic.Uint64
	publishFailures atomic.Uint64

	logger   Logger
	loggerMu sync.RWMutex
}

// MQTTClient is the subset of *mqtt.Client used by the bridge.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// MetricsWriter records registry statistics. *influxdb.Client satisfies it.
type MetricsWriter interface {
	WriteRegistrySnapshot(s influxdb.RegistrySnapshot)
}

// Logger defines the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options holds configuration for creating a bridge.
type Options struct {
	// MQTTClient is the bus connection. Required.
	MQTTClient MQTTClient

	// Registry is the device registry to drive. Required.
	Registry *registry.Registry

	// Topics roots all subscribed and published topics.
	Topics mqtt.Topics

	// QoS is used for subscriptions and publishes.
	QoS byte

	// DeviceID identifies this device in events and metrics.
	DeviceID string

	// Metrics is optional. If nil, no statistics are written.
	Metrics MetricsWriter

	// Logger is optional.
	Logger Logger
}

// NewBridge creates a bridge. Call Start to begin operation.
func NewBridge(opts Options) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}

	return &Bridge{
		mqtt:     opts.MQTTClient,
		registry: opts.Registry,
		topics:   opts.Topics,
		qos:      opts.QoS,
		deviceID: opts.DeviceID,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}, nil
}

// Start registers the registry change handler, subscribes to the transport
// and command topics, and publishes the current state views.
func (b *Bridge) Start(_ context.Context) error {
	b.runMu.Lock()
	defer b.runMu.Unlock()

	if b.running {
		return ErrAlreadyStarted
	}

	b.registry.SetChangeHandler(b.handleChange)

	subscriptions := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{b.topics.TransportSessions(), b.handleSessions},
		{b.topics.Command(CommandPreferredSession), b.handlePreferredCommand},
		{b.topics.Command(CommandProfiles), b.handleProfilesCommand},
	}
	for _, sub := range subscriptions {
		if err := b.mqtt.Subscribe(sub.topic, b.qos, sub.handler); err != nil {
			b.unsubscribeAllLocked()
			b.registry.SetChangeHandler(nil)
			return fmt.Errorf("subscribe to %s: %w", sub.topic, err)
		}
		b.subscribed = append(b.subscribed, sub.topic)
		b.logInfo("subscribed", "topic", sub.topic)
	}

	b.publishSessions()
	b.publishPreferred()
	b.publishProfiles()

	b.running = true
	b.logInfo("session bus started", "device_id", b.deviceID)
	return nil
}

// Stop unsubscribes from all topics and detaches from the registry.
// Calling Stop on a bridge that is not running is a no-op.
func (b *Bridge) Stop() {
	b.runMu.Lock()
	defer b.runMu.Unlock()

	if !b.running {
		return
	}

	b.registry.SetChangeHandler(nil)
	b.unsubscribeAllLocked()
	b.running = false
	b.logInfo("session bus stopped")
}

func (b *Bridge) unsubscribeAllLocked() {
	for _, topic := range b.subscribed {
		if err := b.mqtt.Unsubscribe(topic); err != nil {
			b.logWarn("unsubscribe failed", "topic", topic, "error", err)
		}
	}
	b.subscribed = nil
}

// SetMetrics sets or replaces the metrics writer. Pass nil to disable.
func (b *Bridge) SetMetrics(m MetricsWriter) {
	b.metricsMu.Lock()
	b.metrics = m
	b.metricsMu.Unlock()
}

// SetLogger sets the logger.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
}

// =============================================================================
// Inbound handlers
// =============================================================================

// handleSessions applies a full session list from the transport manager.
func (b *Bridge) handleSessions(_ string, payload []byte) error {
	var msgs []sessionMessage
	if err := json.Unmarshal(payload, &msgs); err != nil {
		return fmt.Errorf("%w: sessions: %w", ErrInvalidPayload, err)
	}

	sessions := make([]registry.SessionInfo, 0, len(msgs))
	for _, m := range msgs {
		sessions = append(sessions, m.toSession())
	}

	b.registry.UpdateSessions(sessions)
	b.sessionUpdates.Add(1)
	b.writeMetrics()

	b.logDebug("transport sessions applied", "count", len(sessions))
	return nil
}

// handlePreferredCommand selects the preferred session and acknowledges.
func (b *Bridge) handlePreferredCommand(_ string, payload []byte) error {
	var cmd PreferredSessionCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.publishAck(CommandPreferredSession, "", fmt.Errorf("%w: %w", ErrInvalidPayload, err))
		return fmt.Errorf("%w: preferred session command: %w", ErrInvalidPayload, err)
	}

	var err error
	switch {
	case cmd.SessionID == "":
		err = fmt.Errorf("%w: session_id", ErrMissingField)
	case !b.registry.SetPreferredSession(cmd.SessionID):
		err = fmt.Errorf("%w: %s", ErrSessionNotFound, cmd.SessionID)
	}

	b.publishAck(CommandPreferredSession, cmd.RequestID, err)
	return nil
}

// handleProfilesCommand applies a profile upsert or removal and acknowledges.
func (b *Bridge) handleProfilesCommand(_ string, payload []byte) error {
	var cmd profilesCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.publishAck(CommandProfiles, "", fmt.Errorf("%w: %w", ErrInvalidPayload, err))
		return fmt.Errorf("%w: profiles command: %w", ErrInvalidPayload, err)
	}

	b.publishAck(CommandProfiles, cmd.RequestID, b.applyProfilesCommand(cmd))
	return nil
}

func (b *Bridge) applyProfilesCommand(cmd profilesCommand) error {
	switch cmd.Action {
	case ActionUpsert:
		if cmd.Profile == nil {
			return fmt.Errorf("%w: profile", ErrMissingField)
		}
		b.registry.AddOrUpdateProfile(cmd.Profile.toProfile())
		return nil

	case ActionRemove:
		var removed bool
		switch {
		case cmd.MAC != "":
			removed = b.registry.RemoveProfileByMac(cmd.MAC)
		case cmd.DeviceID != "":
			removed = b.registry.RemoveProfileByID(cmd.DeviceID)
		default:
			return fmt.Errorf("%w: mac or device_id", ErrMissingField)
		}
		if !removed {
			return ErrProfileNotFound
		}
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
	}
}

// =============================================================================
// Outbound publishing
// =============================================================================

// handleChange republishes state after a registry mutation. It runs on the
// mutating goroutine after the registry lock is released.
func (b *Bridge) handleChange(c registry.Change) {
	switch c.Kind {
	case registry.ChangeSessions:
		b.publishSessions()
	case registry.ChangePreferred:
		b.publishSessions()
		b.publishPreferred()
		b.publishEvent(c)
	case registry.ChangeProfiles:
		b.publishProfiles()
		b.publishEvent(c)
	}
}

func (b *Bridge) publishSessions() {
	b.publishJSON(b.topics.CoreState(StateSessions), newSessionsState(b.registry.GetSessions()), true)
}

// newSessionsState builds the retained sessions view from one snapshot. The
// preferred id is taken from the snapshot's IsPreferred flag so the two
// always agree.
func newSessionsState(sessions []registry.SessionInfo) sessionsState {
	state := sessionsState{
		Sessions:  make([]sessionMessage, 0, len(sessions)),
		Timestamp: timestamp(),
	}
	for _, s := range sessions {
		if s.IsPreferred && state.PreferredSessionID == "" {
			state.PreferredSessionID = s.SessionID
		}
		state.Sessions = append(state.Sessions, fromSession(s))
	}
	return state
}

func (b *Bridge) publishPreferred() {
	b.publishJSON(b.topics.CoreState(StatePreferredSession), preferredState{
		SessionID: b.registry.PreferredSessionID(),
		Timestamp: timestamp(),
	}, true)
}

func (b *Bridge) publishProfiles() {
	profiles := b.registry.GetProfiles()
	state := profilesState{
		Profiles:  make([]profileState, 0, len(profiles)),
		Timestamp: timestamp(),
	}
	for _, p := range profiles {
		state.Profiles = append(state.Profiles, fromProfile(p))
	}
	b.publishJSON(b.topics.CoreState(StateProfiles), state, true)
}

func (b *Bridge) publishEvent(c registry.Change) {
	b.publishJSON(b.topics.CoreEvent(c.Kind.String()), changeEvent{
		EventID:            uuid.NewString(),
		DeviceID:           b.deviceID,
		Kind:               c.Kind.String(),
		PreferredSessionID: c.PreferredSessionID,
		Timestamp:          timestamp(),
	}, false)
}

// publishAck answers a command. A nil err acknowledges success.
func (b *Bridge) publishAck(command, requestID string, err error) {
	ack := Ack{
		EventID:   uuid.NewString(),
		RequestID: requestID,
		Command:   command,
		Success:   err == nil,
		Timestamp: timestamp(),
	}
	if err != nil {
		ack.Error = err.Error()
		b.commandsFailed.Add(1)
		b.logWarn("command rejected", "command", command, "request_id", requestID, "error", err)
	} else {
		b.commandsHandled.Add(1)
		b.logInfo("command applied", "command", command, "request_id", requestID)
	}
	b.publishJSON(b.topics.CommandAck(command), ack, false)
}

func (b *Bridge) publishJSON(topic string, v any, retained bool) {
	payload, err := json.Marshal(v)
	if err != nil {
		b.logError("failed to marshal payload", "topic", topic, "error", err)
		return
	}
	if err := b.mqtt.Publish(topic, payload, b.qos, retained); err != nil {
		b.publishFailures.Add(1)
		if errors.Is(err, mqtt.ErrNotConnected) {
			b.logDebug("publish skipped, broker disconnected", "topic", topic)
			return
		}
		b.logError("failed to publish", "topic", topic, "error", err)
	}
}

func (b *Bridge) writeMetrics() {
	b.metricsMu.RLock()
	m := b.metrics
	b.metricsMu.RUnlock()

	if m == nil {
		return
	}

	stats := b.registry.Stats()
	m.WriteRegistrySnapshot(influxdb.RegistrySnapshot{
		DeviceID:           b.deviceID,
		Profiles:           stats.Profiles,
		Sessions:           stats.Sessions,
		ActiveSessions:     stats.ActiveSessions,
		PreferredSessionID: stats.PreferredSessionID,
	})
}

// =============================================================================
// Metrics and logging
// =============================================================================

// BridgeMetrics contains counters for health reporting.
type BridgeMetrics struct {
	Running         bool
	SessionUpdates  uint64
	CommandsHandled uint64
	CommandsFailed  uint64
	PublishFailures uint64
}

// GetMetrics returns the current bridge counters.
func (b *Bridge) GetMetrics() BridgeMetrics {
	b.runMu.Lock()
	running := b.running
	b.runMu.Unlock()

	return BridgeMetrics{
		Running:         running,
		SessionUpdates:  b.sessionUpdates.Load(),
		CommandsHandled: b.commandsHandled.Load(),
		CommandsFailed:  b.commandsFailed.Load(),
		PublishFailures: b.publishFailures.Load(),
	}
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

func (b *Bridge) logError(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Error(msg, keysAndValues...)
	}
}
