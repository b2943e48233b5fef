// Package storage holds failure kinds shared by every persistence adapter.
package storage

import "errors"

// ErrUnavailable marks infrastructure failures (lost connections, timeouts,
// unexpected driver errors). It must never be reported to callers as a
// client mistake.
var ErrUnavailable = errors.New("storage unavailable")
