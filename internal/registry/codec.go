package registry

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// profileRecord is the persisted JSON shape of a DeviceProfile.
type profileRecord struct {
	DeviceID           string `json:"device_id"`
	MAC                string `json:"mac"`
	Label              string `json:"label"`
	Description        string `json:"description"`
	TransportHint      string `json:"transport_hint"`
	AllowAudio         bool   `json:"allow_audio"`
	AllowNotifications bool   `json:"allow_notifications"`
	IsPrimary          bool   `json:"is_primary"`
}

// encodeProfiles serializes profiles as a compact JSON array.
//
// JSON strings are UTF-8: the encoder replaces every invalid byte with
// U+FFFD. Profiles are passed through coerceUTF8 before they are stored, so
// the list held in memory already matches what decodeProfiles returns.
func encodeProfiles(profiles []DeviceProfile) (string, error) {
	records := make([]profileRecord, 0, len(profiles))
	for _, p := range profiles {
		records = append(records, profileRecord{
			DeviceID:           p.DeviceID,
			MAC:                p.MACAddress,
			Label:              p.Label,
			Description:        p.Description,
			TransportHint:      p.TransportHint,
			AllowAudio:         p.AllowAudio,
			AllowNotifications: p.AllowNotifications,
			IsPrimary:          p.IsPrimary,
		})
	}

	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encoding profiles: %w", err)
	}
	return string(data), nil
}

// decodeProfiles parses a stored profile array.
//
// An empty string decodes to no profiles. Invalid JSON or a non-array root
// returns an error and no profiles. Array elements that are not objects are
// skipped. Within an object, a missing field or a field of the wrong JSON
// type keeps the NewDeviceProfile default, so allow_audio and
// allow_notifications fall back to true rather than the zero value.
func decodeProfiles(data string) ([]DeviceProfile, error) {
	if data == "" {
		return nil, nil
	}
	if !json.Valid([]byte(data)) {
		return nil, ErrCorruptProfiles
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(data), &elements); err != nil {
		return nil, fmt.Errorf("%w: root is not an array", ErrCorruptProfiles)
	}

	profiles := make([]DeviceProfile, 0, len(elements))
	for _, raw := range elements {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			continue
		}
		profiles = append(profiles, decodeProfile(fields))
	}
	return profiles, nil
}

func decodeProfile(fields map[string]json.RawMessage) DeviceProfile {
	p := NewDeviceProfile()
	decodeField(fields, "device_id", &p.DeviceID)
	decodeField(fields, "mac", &p.MACAddress)
	decodeField(fields, "label", &p.Label)
	decodeField(fields, "description", &p.Description)
	decodeField(fields, "transport_hint", &p.TransportHint)
	decodeField(fields, "allow_audio", &p.AllowAudio)
	decodeField(fields, "allow_notifications", &p.AllowNotifications)
	decodeField(fields, "is_primary", &p.IsPrimary)
	return normalizeProfile(p)
}

// decodeField unmarshals fields[name] into dst, leaving dst untouched when
// the field is absent or has an incompatible type.
func decodeField[T string | bool](fields map[string]json.RawMessage, name string, dst *T) {
	raw, ok := fields[name]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return
	}
	if string(raw) == "null" {
		return
	}
	*dst = v
}

// coerceUTF8 replaces each byte of an invalid UTF-8 sequence with U+FFFD,
// the same substitution encoding/json applies when marshalling.
func coerceUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	for _, r := range s {
		b.WriteRune(r)
	}
	return b.String()
}
