package model

import "github.com/google/uuid"

// NewID returns a time-ordered unique id for lists and items.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
