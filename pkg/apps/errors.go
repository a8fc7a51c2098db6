package apps

import (
	"errors"
	"fmt"
)

var (
	// ErrEnumeration marks a total failure to list installed applications.
	ErrEnumeration = errors.New("apps: enumeration failed")
	// ErrIconExtraction marks a per-application icon failure.
	ErrIconExtraction = errors.New("apps: icon extraction failed")
	// ErrAccentQuery marks a failure to read the system accent color.
	ErrAccentQuery = errors.New("apps: accent color query failed")
	// ErrPlatform marks a failure in an OS integration (startup, launch).
	ErrPlatform = errors.New("apps: platform error")
	// ErrNotFound is returned by mutations addressing an unknown path.
	ErrNotFound = errors.New("apps: application not found")
)

// StorageError reports a failed write to the persistence medium. The caller's
// in-memory state is still applied when this is returned.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("apps: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
