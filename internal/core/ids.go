package core

import "github.com/google/uuid"

// NewPointID returns a random identifier for appended or unnamed points.
func NewPointID() string {
	return uuid.NewString()
}
