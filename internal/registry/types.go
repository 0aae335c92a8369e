package registry

import "strings"

// DeviceProfile is the durable record of a paired remote device.
type DeviceProfile struct {
	// DeviceID is the logical identifier reported by the device. May be empty.
	DeviceID string

	// MACAddress is stored normalized (see NormalizeMAC) and is the primary
	// matching key when non-empty.
	MACAddress string

	Label         string
	Description   string
	TransportHint string

	AllowAudio         bool
	AllowNotifications bool
	IsPrimary          bool
}

// NewDeviceProfile returns a profile with the default permissions:
// audio and notifications allowed, not primary.
func NewDeviceProfile() DeviceProfile {
	return DeviceProfile{
		AllowAudio:         true,
		AllowNotifications: true,
	}
}

// SessionInfo describes a live or known transport session.
//
// IsPreferred is derived by the registry from the preferred session id;
// any value supplied by callers is overwritten.
type SessionInfo struct {
	SessionID string
	DeviceID  string
	Label     string
	Transport string

	SupportsUDP bool
	SupportsMCP bool
	IsActive    bool
	IsPreferred bool
}

// NormalizeMAC strips ':' and '-' separators and uppercases the result.
//
//	NormalizeMAC("aa:bb:cc:dd:ee:ff") == "AABBCCDDEEFF"
func NormalizeMAC(mac string) string {
	var b strings.Builder
	b.Grow(len(mac))
	for _, r := range mac {
		if r == ':' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// normalizeProfile normalizes the MAC and coerces the text fields to valid
// UTF-8, so the in-memory profile equals what a reload from storage yields.
func normalizeProfile(p DeviceProfile) DeviceProfile {
	p.MACAddress = NormalizeMAC(p.MACAddress)
	p.DeviceID = coerceUTF8(p.DeviceID)
	p.Label = coerceUTF8(p.Label)
	p.Description = coerceUTF8(p.Description)
	p.TransportHint = coerceUTF8(p.TransportHint)
	return p
}

// sameDevice reports whether two normalized profiles identify the same
// device. MAC wins when both sides carry one; device id is only consulted
// when a MAC is missing on either side.
func sameDevice(a, b DeviceProfile) bool {
	if a.MACAddress != "" && b.MACAddress != "" {
		return a.MACAddress == b.MACAddress
	}
	if a.DeviceID != "" && b.DeviceID != "" {
		return a.DeviceID == b.DeviceID
	}
	return false
}
