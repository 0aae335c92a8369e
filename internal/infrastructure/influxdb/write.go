package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementRegistrySessions = "registry_sessions"
)

// RegistrySnapshot is one sample of device registry state.
type RegistrySnapshot struct {
	DeviceID           string
	Profiles           int
	Sessions           int
	ActiveSessions     int
	PreferredSessionID string
}

// WriteRegistrySnapshot records registry counts as a registry_sessions
// point. The write is non-blocking; data is batched and sent asynchronously.
//
// Example:
//
//	client.WriteRegistrySnapshot(influxdb.RegistrySnapshot{
//	    DeviceID: "kitchen-speaker", Sessions: 2, ActiveSessions: 1,
//	})
func (c *Client) WriteRegistrySnapshot(s RegistrySnapshot) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(newRegistryPoint(s, time.Now()))
}

// newRegistryPoint builds the registry_sessions point. The preferred_session
// tag is only set when a session is preferred.
func newRegistryPoint(s RegistrySnapshot, ts time.Time) *write.Point {
	tags := map[string]string{
		"device_id": s.DeviceID,
	}
	if s.PreferredSessionID != "" {
		tags["preferred_session"] = s.PreferredSessionID
	}

	return write.NewPoint(
		MeasurementRegistrySessions,
		tags,
		map[string]interface{}{
			"profiles":        s.Profiles,
			"sessions":        s.Sessions,
			"active_sessions": s.ActiveSessions,
			"has_preferred":   s.PreferredSessionID != "",
		},
		ts,
	)
}
