package registry

import "errors"

// ErrCorruptProfiles is reported (via the logger) when the stored profile
// list cannot be parsed. The registry starts with no profiles in that case.
var ErrCorruptProfiles = errors.New("registry: stored profiles are corrupt")
