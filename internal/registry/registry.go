package registry

import (
	"sync"
)

// Persistence keys inside the registry's namespace.
const (
	profilesKey         = "profiles"
	preferredSessionKey = "preferred_session"
)

// Store is the key/value persistence the registry writes through to.
// settings.Namespace satisfies it.
type Store interface {
	GetString(key, defaultValue string) string
	SetString(key, value string)
	EraseKey(key string)
}

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ChangeKind identifies what a Change notification is about.
type ChangeKind int

const (
	// ChangeProfiles follows any profile add, update or removal.
	ChangeProfiles ChangeKind = iota + 1

	// ChangeSessions follows every UpdateSessions call.
	ChangeSessions

	// ChangePreferred follows a change of the preferred session id.
	ChangePreferred
)

// String returns the lowercase name used in logs and MQTT payloads.
func (k ChangeKind) String() string {
	switch k {
	case ChangeProfiles:
		return "profiles"
	case ChangeSessions:
		return "sessions"
	case ChangePreferred:
		return "preferred"
	default:
		return "unknown"
	}
}

// Change is delivered to the change handler after a mutation completes.
type Change struct {
	Kind               ChangeKind
	PreferredSessionID string
}

// Registry holds paired-device profiles and the current transport sessions.
//
// Profiles and the preferred session id are written through to the Store on
// every mutation; sessions live only in memory and are replaced wholesale by
// UpdateSessions.
//
// All public methods are thread-safe. A single mutex guards all state and
// is held for the whole of every operation, reads included.
type Registry struct {
	mu          sync.Mutex
	store       Store
	logger      Logger
	onChange    func(Change)
	profiles    []DeviceProfile
	sessions    map[string]SessionInfo
	order       []string // session ids in first-seen input order
	preferredID string
}

// New creates a registry and loads persisted profiles and the preferred
// session id from store. A nil logger discards log output.
func New(store Store, logger Logger) *Registry {
	if logger == nil {
		logger = noopLogger{}
	}
	r := &Registry{
		store:    store,
		logger:   logger,
		sessions: make(map[string]SessionInfo),
	}

	r.loadProfilesLocked()
	r.preferredID = store.GetString(preferredSessionKey, "")

	r.logger.Info("device registry loaded",
		"profiles", len(r.profiles),
		"preferred_session", r.preferredID,
	)
	return r
}

// SetChangeHandler registers fn to be called after each mutation.
// fn runs synchronously on the mutating goroutine, after the registry lock
// has been released, so it may call back into the registry.
func (r *Registry) SetChangeHandler(fn func(Change)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// notify delivers changes to the handler captured while the lock was held.
func notify(handler func(Change), changes ...Change) {
	if handler == nil {
		return
	}
	for _, c := range changes {
		handler(c)
	}
}

// Stats summarises registry contents for monitoring.
type Stats struct {
	Profiles           int
	Sessions           int
	ActiveSessions     int
	PreferredSessionID string
}

// Stats returns current registry statistics.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := Stats{
		Profiles:           len(r.profiles),
		Sessions:           len(r.sessions),
		PreferredSessionID: r.preferredID,
	}
	for _, s := range r.sessions {
		if s.IsActive {
			stats.ActiveSessions++
		}
	}
	return stats
}

// PreferredSessionID returns the current preferred session id, which may
// name a session that is not yet known when it was loaded from storage.
func (r *Registry) PreferredSessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.preferredID
}

// loadProfilesLocked replaces the profile list with the stored one.
func (r *Registry) loadProfilesLocked() {
	profiles, err := decodeProfiles(r.store.GetString(profilesKey, ""))
	if err != nil {
		r.logger.Warn("failed to parse stored profiles", "error", err)
		r.profiles = nil
		return
	}
	r.profiles = profiles
}

// persistProfilesLocked writes the full profile list. An encoding failure
// stores an empty string rather than aborting.
func (r *Registry) persistProfilesLocked() {
	data, err := encodeProfiles(r.profiles)
	if err != nil {
		r.logger.Error("failed to encode profiles", "error", err)
		data = ""
	}
	r.store.SetString(profilesKey, data)
}

// persistPreferredLocked writes the preferred session id, erasing the key
// when it is empty.
func (r *Registry) persistPreferredLocked() {
	if r.preferredID == "" {
		r.store.EraseKey(preferredSessionKey)
		return
	}
	r.store.SetString(preferredSessionKey, r.preferredID)
}
