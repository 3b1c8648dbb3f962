package cache

import "errors"

// ErrStoreRequired is returned when a blob store is not provided.
var ErrStoreRequired = errors.New("blob store required")
