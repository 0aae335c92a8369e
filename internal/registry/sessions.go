package registry

import "sort"

// UpdateSessions replaces the session set with sessions and reconciles the
// preferred session id.
//
// Entries with an empty SessionID are dropped; for duplicate ids the last
// entry wins. A preferred id that no longer names a session is cleared.
// When no preference remains, the first active entry (input order) is
// chosen, or failing that the first entry of the input. IsPreferred is
// recomputed for every session.
func (r *Registry) UpdateSessions(sessions []SessionInfo) {
	r.mu.Lock()

	r.sessions = make(map[string]SessionInfo, len(sessions))
	r.order = r.order[:0]
	detectedActive := ""
	for _, s := range sessions {
		if s.SessionID == "" {
			continue
		}
		if _, seen := r.sessions[s.SessionID]; !seen {
			r.order = append(r.order, s.SessionID)
		}
		r.sessions[s.SessionID] = s
		if s.IsActive && detectedActive == "" {
			detectedActive = s.SessionID
		}
	}

	previous := r.preferredID

	validated := validatePreferred(r.preferredID, r.sessions)
	if validated != r.preferredID {
		r.logger.Info("preferred session no longer present", "session_id", r.preferredID)
		r.preferredID = validated
		r.persistPreferredLocked()
	}

	selected := selectPreferred(r.preferredID, detectedActive, sessions)
	if selected != r.preferredID {
		r.preferredID = selected
		if selected != "" {
			r.persistPreferredLocked()
		}
	}

	r.applyPreferredFlagsLocked()

	total := len(r.sessions)
	preferred := r.preferredID
	handler := r.onChange
	r.mu.Unlock()

	r.logger.Debug("sessions updated", "count", total, "preferred_session", preferred)

	changes := []Change{{Kind: ChangeSessions, PreferredSessionID: preferred}}
	if preferred != previous {
		changes = append(changes, Change{Kind: ChangePreferred, PreferredSessionID: preferred})
	}
	notify(handler, changes...)
}

// validatePreferred returns preferred if it names a session in sessions,
// and the empty string otherwise.
func validatePreferred(preferred string, sessions map[string]SessionInfo) string {
	if preferred == "" {
		return ""
	}
	if _, ok := sessions[preferred]; !ok {
		return ""
	}
	return preferred
}

// selectPreferred keeps a non-empty preferred id. Otherwise it picks the
// detected active session, then the id of the first input entry. The
// fallback uses the raw input, so an empty first id yields no selection.
func selectPreferred(preferred, detectedActive string, input []SessionInfo) string {
	if preferred != "" {
		return preferred
	}
	if detectedActive != "" {
		return detectedActive
	}
	if len(input) > 0 {
		return input[0].SessionID
	}
	return ""
}

func (r *Registry) applyPreferredFlagsLocked() {
	for id, s := range r.sessions {
		s.IsPreferred = id == r.preferredID
		r.sessions[id] = s
	}
}

// GetSessions returns a snapshot of all sessions ordered preferred first,
// then active, then by ascending session id.
func (r *Registry) GetSessions() []SessionInfo {
	r.mu.Lock()
	sessions := make([]SessionInfo, 0, len(r.sessions))
	for _, id := range r.order {
		sessions = append(sessions, r.sessions[id])
	}
	r.mu.Unlock()

	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if a.IsPreferred != b.IsPreferred {
			return a.IsPreferred
		}
		if a.IsActive != b.IsActive {
			return a.IsActive
		}
		return a.SessionID < b.SessionID
	})
	return sessions
}

// GetActiveSession returns the session audio should be routed to: the
// preferred session, else the first active session, else the first known
// session. Sessions are considered in the order they first appeared in the
// last update.
func (r *Registry) GetActiveSession() (SessionInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[r.preferredID]; ok && r.preferredID != "" {
		return s, true
	}
	for _, id := range r.order {
		if s := r.sessions[id]; s.IsActive {
			return s, true
		}
	}
	if len(r.order) > 0 {
		return r.sessions[r.order[0]], true
	}
	return SessionInfo{}, false
}

// FindSession returns the session with the given id.
func (r *Registry) FindSession(sessionID string) (SessionInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	return s, ok
}

// SetPreferredSession makes sessionID the preferred session and persists
// the choice. It returns false, leaving all state unchanged, when no
// session with that id is known.
func (r *Registry) SetPreferredSession(sessionID string) bool {
	r.mu.Lock()
	if _, ok := r.sessions[sessionID]; !ok {
		r.mu.Unlock()
		r.logger.Warn("preferred session not found", "session_id", sessionID)
		return false
	}

	changed := r.preferredID != sessionID
	r.preferredID = sessionID
	r.applyPreferredFlagsLocked()
	r.persistPreferredLocked()
	handler := r.onChange
	r.mu.Unlock()

	r.logger.Info("preferred session set", "session_id", sessionID)
	if changed {
		notify(handler, Change{Kind: ChangePreferred, PreferredSessionID: sessionID})
	}
	return true
}
