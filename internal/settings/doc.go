// Package settings provides the namespaced string key/value persistence
// used by the device registry.
//
// A Backend (SQLite, Redis or in-memory) stores values and reports errors.
// A Namespace binds a Backend to one namespace and exposes the Store
// contract the registry depends on: GetString, SetString and EraseKey,
// none of which fail from the caller's point of view.
//
// Usage:
//
//	backend, err := settings.Open(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer backend.Close()
//
//	store := settings.NewNamespace(backend, cfg.Storage.Namespace)
//	store.SetLogger(log)
//	reg := registry.New(store)
package settings
