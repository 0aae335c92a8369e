// Package registry keeps the paired-device profiles and live transport
// sessions of an AudioLink device.
//
// Profiles are durable: every mutation rewrites the full list, encoded as a
// JSON array, under the "profiles" key of the Store. Sessions are ephemeral
// and replaced wholesale by UpdateSessions, which also reconciles the
// preferred session id (the only session state that is persisted, under
// "preferred_session").
//
// A Registry is created once at startup with New and passed to whatever
// needs it. All methods are safe for concurrent use.
//
// Usage:
//
//	reg := registry.New(settings.NewNamespace(backend, "devices"), log)
//	reg.AddOrUpdateProfile(profile)
//	reg.UpdateSessions(sessions)
//	active, ok := reg.GetActiveSession()
package registry
