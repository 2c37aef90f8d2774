package store

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/dukerupert/listkeeper/internal/storage"
)

// CollapseKey is the key holding the collapsed sections of one list.
func CollapseKey(listID string) string {
	return "collapsedSections-list-" + listID
}

// CollapseStore remembers which category sections of a list are collapsed.
// The state is cosmetic, so it is written without a shadow copy.
type CollapseStore struct {
	facade           *storage.Facade
	logger           *slog.Logger
	defaultCollapsed bool
}

func NewCollapseStore(facade *storage.Facade, logger *slog.Logger, defaultCollapsed bool) *CollapseStore {
	return &CollapseStore{facade: facade, logger: logger, defaultCollapsed: defaultCollapsed}
}

// Get returns the state of every section, adding missing sections with the
// default and persisting them.
func (s *CollapseStore) Get(ctx context.Context, listID string, sections []string) (map[string]bool, error) {
	state := s.load(ctx, listID)
	added := false
	for _, sec := range sections {
		if _, ok := state[sec]; !ok {
			state[sec] = s.defaultCollapsed
			added = true
		}
	}
	if added {
		if err := s.save(ctx, listID, state); err != nil {
			return state, err
		}
	}
	return state, nil
}

func (s *CollapseStore) IsCollapsed(ctx context.Context, listID, section string) bool {
	v, ok := s.load(ctx, listID)[section]
	if !ok {
		return s.defaultCollapsed
	}
	return v
}

// Toggle flips one section and returns its new state.
func (s *CollapseStore) Toggle(ctx context.Context, listID, section string) (bool, error) {
	state := s.load(ctx, listID)
	cur, ok := state[section]
	if !ok {
		cur = s.defaultCollapsed
	}
	state[section] = !cur
	return !cur, s.save(ctx, listID, state)
}

// ToggleAll expands every section when more than half are collapsed and
// collapses them all otherwise.
func (s *CollapseStore) ToggleAll(ctx context.Context, listID string, sections []string) (map[string]bool, error) {
	state := s.load(ctx, listID)
	collapsed := 0
	for _, sec := range sections {
		v, ok := state[sec]
		if !ok {
			v = s.defaultCollapsed
		}
		if v {
			collapsed++
		}
	}
	return s.setAll(ctx, listID, sections, collapsed*2 <= len(sections))
}

func (s *CollapseStore) ExpandAll(ctx context.Context, listID string, sections []string) (map[string]bool, error) {
	return s.setAll(ctx, listID, sections, false)
}

func (s *CollapseStore) CollapseAll(ctx context.Context, listID string, sections []string) (map[string]bool, error) {
	return s.setAll(ctx, listID, sections, true)
}

// Clear forgets the state of a list.
func (s *CollapseStore) Clear(ctx context.Context, listID string) error {
	return s.facade.RemoveItem(ctx, CollapseKey(listID))
}

func (s *CollapseStore) setAll(ctx context.Context, listID string, sections []string, collapsed bool) (map[string]bool, error) {
	state := s.load(ctx, listID)
	for _, sec := range sections {
		state[sec] = collapsed
	}
	return state, s.save(ctx, listID, state)
}

func (s *CollapseStore) load(ctx context.Context, listID string) map[string]bool {
	state := storage.GetItem(ctx, s.facade, CollapseKey(listID), map[string]bool{}, storage.WithoutBackupFallback())
	if state == nil {
		return map[string]bool{}
	}
	return maps.Clone(state)
}

func (s *CollapseStore) save(ctx context.Context, listID string, state map[string]bool) error {
	if err := s.facade.SetItem(ctx, CollapseKey(listID), state, storage.WithoutBackup()); err != nil {
		s.logger.Warn("save collapse state", "list_id", listID, "error", err)
		return fmt.Errorf("save collapse state: %w", err)
	}
	return nil
}
