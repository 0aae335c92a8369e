package registry

import (
	"errors"
	"testing"
)

func TestDecodeProfiles(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    []DeviceProfile
		wantErr bool
	}{
		{
			name: "empty string",
			data: "",
			want: nil,
		},
		{
			name:    "not json",
			data:    "not json",
			wantErr: true,
		},
		{
			name:    "object root",
			data:    `{"mac":"AABBCCDDEEFF"}`,
			wantErr: true,
		},
		{
			name: "empty array",
			data: `[]`,
			want: []DeviceProfile{},
		},
		{
			name: "full record",
			data: `[{"device_id":"phone","mac":"aa:bb:cc:dd:ee:ff","label":"Phone","description":"desc",` +
				`"transport_hint":"ble","allow_audio":false,"allow_notifications":false,"is_primary":true}]`,
			want: []DeviceProfile{{
				DeviceID:      "phone",
				MACAddress:    "AABBCCDDEEFF",
				Label:         "Phone",
				Description:   "desc",
				TransportHint: "ble",
				IsPrimary:     true,
			}},
		},
		{
			name: "missing fields keep defaults",
			data: `[{"device_id":"phone"}]`,
			want: []DeviceProfile{{DeviceID: "phone", AllowAudio: true, AllowNotifications: true}},
		},
		{
			name: "wrong field types keep defaults",
			data: `[{"device_id":42,"allow_audio":"no","is_primary":null}]`,
			want: []DeviceProfile{{AllowAudio: true, AllowNotifications: true}},
		},
		{
			name: "non-object elements skipped",
			data: `[1,"x",null,[],{"device_id":"phone"}]`,
			want: []DeviceProfile{{DeviceID: "phone", AllowAudio: true, AllowNotifications: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeProfiles(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeProfiles() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrCorruptProfiles) {
					t.Errorf("decodeProfiles() error = %v, want ErrCorruptProfiles", err)
				}
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("decodeProfiles() = %+v, want %+v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("profile[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEncodeProfiles(t *testing.T) {
	p := NewDeviceProfile()
	p.DeviceID = "phone"
	p.MACAddress = "AABBCCDDEEFF"

	got, err := encodeProfiles([]DeviceProfile{p})
	if err != nil {
		t.Fatalf("encodeProfiles() error = %v", err)
	}

	want := `[{"device_id":"phone","mac":"AABBCCDDEEFF","label":"","description":"","transport_hint":"",` +
		`"allow_audio":true,"allow_notifications":true,"is_primary":false}]`
	if got != want {
		t.Errorf("encodeProfiles() = %s, want %s", got, want)
	}
}

func TestEncodeProfiles_Empty(t *testing.T) {
	got, err := encodeProfiles(nil)
	if err != nil {
		t.Fatalf("encodeProfiles() error = %v", err)
	}
	if got != "[]" {
		t.Errorf("encodeProfiles(nil) = %q, want %q", got, "[]")
	}
}

func TestNormalizeMAC(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"aa:bb:cc:dd:ee:ff", "AABBCCDDEEFF"},
		{"AA-BB-CC-DD-EE-FF", "AABBCCDDEEFF"},
		{"aabb.ccdd.eeff", "AABB.CCDD.EEFF"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeMAC(tt.in); got != tt.want {
			t.Errorf("NormalizeMAC(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCoerceUTF8(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"valid ascii", "phone", "phone"},
		{"valid multibyte", "Küche", "Küche"},
		{"single invalid byte", "dev\xff", "dev\uFFFD"},
		{"each invalid byte replaced", "a\xfe\xffb", "a\uFFFD\uFFFDb"},
		{"truncated sequence", "x\xc3", "x\uFFFD"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := coerceUTF8(tt.in); got != tt.want {
				t.Errorf("coerceUTF8(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeProfiles_InvalidUTF8MatchesCoercion(t *testing.T) {
	raw := NewDeviceProfile()
	raw.DeviceID = "dev\xff"
	raw.Label = "lab\xfe"
	raw.Description = "d\xc3"
	raw.TransportHint = "ble"

	data, err := encodeProfiles([]DeviceProfile{raw})
	if err != nil {
		t.Fatalf("encodeProfiles() error = %v", err)
	}
	decoded, err := decodeProfiles(data)
	if err != nil {
		t.Fatalf("decodeProfiles() error = %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("decoded %d profiles, want 1", len(decoded))
	}

	if want := normalizeProfile(raw); decoded[0] != want {
		t.Errorf("decoded = %+v, want normalized %+v", decoded[0], want)
	}
}
