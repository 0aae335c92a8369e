package sessionbus

import (
	"time"

	"github.com/nerrad567/audiolink-core/internal/registry"
)

// Command names, used in command and ack topics.
const (
	CommandPreferredSession = "preferred_session"
	CommandProfiles         = "profiles"
)

// Retained core state views.
const (
	StateSessions         = "sessions"
	StatePreferredSession = "preferred_session"
	StateProfiles         = "profiles"
)

// Profile command actions.
const (
	ActionUpsert = "upsert"
	ActionRemove = "remove"
)

// sessionMessage is the wire form of a session, both in transport updates
// and in the retained sessions view.
type sessionMessage struct {
	SessionID   string `json:"session_id"`
	DeviceID    string `json:"device_id"`
	Label       string `json:"label"`
	Transport   string `json:"transport"`
	SupportsUDP bool   `json:"supports_udp"`
	SupportsMCP bool   `json:"supports_mcp"`
	IsActive    bool   `json:"is_active"`
	IsPreferred bool   `json:"is_preferred"`
}

func (m sessionMessage) toSession() registry.SessionInfo {
	return registry.SessionInfo{
		SessionID:   m.SessionID,
		DeviceID:    m.DeviceID,
		Label:       m.Label,
		Transport:   m.Transport,
		SupportsUDP: m.SupportsUDP,
		SupportsMCP: m.SupportsMCP,
		IsActive:    m.IsActive,
	}
}

func fromSession(s registry.SessionInfo) sessionMessage {
	return sessionMessage{
		SessionID:   s.SessionID,
		DeviceID:    s.DeviceID,
		Label:       s.Label,
		Transport:   s.Transport,
		SupportsUDP: s.SupportsUDP,
		SupportsMCP: s.SupportsMCP,
		IsActive:    s.IsActive,
		IsPreferred: s.IsPreferred,
	}
}

// profileMessage is the wire form of a profile in commands. Permission
// fields are pointers so that an omitted field keeps its default.
type profileMessage struct {
	DeviceID           string `json:"device_id"`
	MAC                string `json:"mac"`
	Label              string `json:"label"`
	Description        string `json:"description"`
	TransportHint      string `json:"transport_hint"`
	AllowAudio         *bool  `json:"allow_audio,omitempty"`
	AllowNotifications *bool  `json:"allow_notifications,omitempty"`
	IsPrimary          *bool  `json:"is_primary,omitempty"`
}

func (m profileMessage) toProfile() registry.DeviceProfile {
	p := registry.NewDeviceProfile()
	p.DeviceID = m.DeviceID
	p.MACAddress = m.MAC
	p.Label = m.Label
	p.Description = m.Description
	p.TransportHint = m.TransportHint
	if m.AllowAudio != nil {
		p.AllowAudio = *m.AllowAudio
	}
	if m.AllowNotifications != nil {
		p.AllowNotifications = *m.AllowNotifications
	}
	if m.IsPrimary != nil {
		p.IsPrimary = *m.IsPrimary
	}
	return p
}

// profileState is the wire form of a profile in the retained profiles view.
type profileState struct {
	DeviceID           string `json:"device_id"`
	MAC                string `json:"mac"`
	Label              string `json:"label"`
	Description        string `json:"description"`
	TransportHint      string `json:"transport_hint"`
	AllowAudio         bool   `json:"allow_audio"`
	AllowNotifications bool   `json:"allow_notifications"`
	IsPrimary          bool   `json:"is_primary"`
}

func fromProfile(p registry.DeviceProfile) profileState {
	return profileState{
		DeviceID:           p.DeviceID,
		MAC:                p.MACAddress,
		Label:              p.Label,
		Description:        p.Description,
		TransportHint:      p.TransportHint,
		AllowAudio:         p.AllowAudio,
		AllowNotifications: p.AllowNotifications,
		IsPrimary:          p.IsPrimary,
	}
}

// PreferredSessionCommand is the payload of a preferred session command.
type PreferredSessionCommand struct {
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id"`
}

// profilesCommand adds, updates or removes a profile. For "remove", MAC
// takes precedence over DeviceID.
type profilesCommand struct {
	RequestID string          `json:"request_id,omitempty"`
	Action    string          `json:"action"`
	Profile   *profileMessage `json:"profile,omitempty"`
	MAC       string          `json:"mac,omitempty"`
	DeviceID  string          `json:"device_id,omitempty"`
}

// Ack answers a command on <prefix>/ack/<command>. RequestID echoes the
// command's request_id so callers can match replies.
type Ack struct {
	EventID   string `json:"event_id"`
	RequestID string `json:"request_id,omitempty"`
	Command   string `json:"command"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

type sessionsState struct {
	Sessions           []sessionMessage `json:"sessions"`
	PreferredSessionID string           `json:"preferred_session_id"`
	Timestamp          string           `json:"timestamp"`
}

type preferredState struct {
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
}

type profilesState struct {
	Profiles  []profileState `json:"profiles"`
	Timestamp string         `json:"timestamp"`
}

// changeEvent is published on <prefix>/core/event/<kind>.
type changeEvent struct {
	EventID            string `json:"event_id"`
	DeviceID           string `json:"device_id"`
	Kind               string `json:"kind"`
	PreferredSessionID string `json:"preferred_session_id,omitempty"`
	Timestamp          string `json:"timestamp"`
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
