package util

import (
	"github.com/oklog/ulid/v2"
)

// NewULID returns a new lexicographically sortable id.
// ulid.Make is safe for concurrent use and monotonic within a millisecond.
func NewULID() string {
	return ulid.Make().String()
}
