package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a time-ordered identifier (UUIDv7), so ids of bids issued
// later sort after earlier ones.
func GenerateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
