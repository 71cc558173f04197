// Package id provides unique ID generation utilities for campus-rag.
//
//	key := id.NewHex()  // e.g., "9f1c2b7e4d0a4e6f8b3c1d2e5f6a7b8c"
//	rid := id.NewULID() // e.g., "01ARZ3NDEKTSV4RRFFQ69G5FAV"
package id

import (
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewHex returns 32 random lowercase hex characters (a v4 UUID without dashes).
func NewHex() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// NewULID returns a lexicographically sortable ULID.
func NewULID() string {
	return ulid.Make().String()
}
