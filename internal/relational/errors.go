package relational

import "errors"

// ErrNotFound is returned by repository lookups that match zero rows.
var ErrNotFound = errors.New("relational: record not found")
