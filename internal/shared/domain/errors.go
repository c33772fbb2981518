package domain

import "errors"

// ErrConcurrentModification is returned by repositories when the stored
// version no longer matches the version the aggregate was loaded with.
var ErrConcurrentModification = errors.New("aggregate was modified concurrently")
