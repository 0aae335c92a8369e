package registry

// GetProfiles returns a copy of all profiles in storage order.
func (r *Registry) GetProfiles() []DeviceProfile {
	r.mu.Lock()
	defer r.mu.Unlock()

	profiles := make([]DeviceProfile, len(r.profiles))
	copy(profiles, r.profiles)
	return profiles
}

// AddOrUpdateProfile stores profile, replacing an existing entry for the
// same device or appending a new one, and persists the list.
//
// An existing entry matches when both carry the same non-empty normalized
// MAC, or, failing that, the same non-empty device id. It always returns
// true.
func (r *Registry) AddOrUpdateProfile(profile DeviceProfile) bool {
	normalized := normalizeProfile(profile)

	r.mu.Lock()
	replaced := false
	for i := range r.profiles {
		if sameDevice(normalized, r.profiles[i]) {
			r.profiles[i] = normalized
			replaced = true
			break
		}
	}
	if !replaced {
		r.profiles = append(r.profiles, normalized)
	}
	r.persistProfilesLocked()
	handler := r.onChange
	r.mu.Unlock()

	r.logger.Info("device profile saved",
		"mac", normalized.MACAddress,
		"device_id", normalized.DeviceID,
		"replaced", replaced,
	)
	notify(handler, Change{Kind: ChangeProfiles})
	return true
}

// RemoveProfileByMac removes every profile whose normalized MAC equals the
// normalized mac. It reports whether anything was removed; storage is only
// written on removal.
func (r *Registry) RemoveProfileByMac(mac string) bool {
	normalized := NormalizeMAC(mac)
	return r.removeProfiles(func(p DeviceProfile) bool {
		return p.MACAddress == normalized
	}, "mac", normalized)
}

// RemoveProfileByID removes every profile with the given device id. It
// reports whether anything was removed; storage is only written on removal.
func (r *Registry) RemoveProfileByID(deviceID string) bool {
	deviceID = coerceUTF8(deviceID)
	return r.removeProfiles(func(p DeviceProfile) bool {
		return p.DeviceID == deviceID
	}, "device_id", deviceID)
}

func (r *Registry) removeProfiles(match func(DeviceProfile) bool, logKey, logValue string) bool {
	r.mu.Lock()
	kept := r.profiles[:0]
	for _, p := range r.profiles {
		if !match(p) {
			kept = append(kept, p)
		}
	}
	removed := len(r.profiles) - len(kept)
	// Clear the tail so dropped profiles are not retained by the backing array.
	for i := len(kept); i < len(r.profiles); i++ {
		r.profiles[i] = DeviceProfile{}
	}
	r.profiles = kept

	if removed == 0 {
		r.mu.Unlock()
		return false
	}
	r.persistProfilesLocked()
	handler := r.onChange
	r.mu.Unlock()

	r.logger.Info("device profile removed", logKey, logValue, "count", removed)
	notify(handler, Change{Kind: ChangeProfiles})
	return true
}

// GetProfileByMac returns the first profile with the normalized mac.
func (r *Registry) GetProfileByMac(mac string) (DeviceProfile, bool) {
	normalized := NormalizeMAC(mac)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.profiles {
		if p.MACAddress == normalized {
			return p, true
		}
	}
	return DeviceProfile{}, false
}

// GetProfileByID returns the first profile with the device id.
func (r *Registry) GetProfileByID(deviceID string) (DeviceProfile, bool) {
	deviceID = coerceUTF8(deviceID)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.profiles {
		if p.DeviceID == deviceID {
			return p, true
		}
	}
	return DeviceProfile{}, false
}
