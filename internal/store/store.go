// Package store holds the shopping lists of the running process and keeps
// them in step with the resilient storage facade.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("invalid input")
	ErrConflict   = errors.New("version conflict")
)

// DefaultNamespace prefixes the persisted keys.
const DefaultNamespace = "listkeeper"

// ListsKey is the key holding the JSON array of every list.
func ListsKey(namespace string) string {
	return namespace + ":shoppingLists"
}

// BackupsKey is the key holding remote backup history.
func BackupsKey(namespace string) string {
	return namespace + ":backups"
}

// SettingsKey is the key holding runtime settings.
func SettingsKey(namespace string) string {
	return namespace + ":settings"
}

// Entities and actions carried by Event.
const (
	EntityList = "list"
	EntityItem = "item"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionChecked = "checked"
	ActionCleared = "cleared"
)

// Event describes a committed change.
type Event struct {
	Entity string
	Action string
	ListID string
	ItemID string
	Extra  map[string]any
}

// Publisher is told about every committed change.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func validateAmount(field string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return validationError("%s must be a non-negative number", field)
	}
	return nil
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
