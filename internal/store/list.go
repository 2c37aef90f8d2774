package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	"github.com/dukerupert/listkeeper/internal/flags"
	"github.com/dukerupert/listkeeper/internal/grocery"
	"github.com/dukerupert/listkeeper/internal/logging"
	"github.com/dukerupert/listkeeper/internal/model"
	"github.com/dukerupert/listkeeper/internal/notify"
	"github.com/dukerupert/listkeeper/internal/storage"
)

const (
	defaultLookupAttempts = 3
	defaultLookupBackoff  = 500 * time.Millisecond
)

var (
	errAbsent    = errors.New("list absent from storage")
	errUnchanged = errors.New("unchanged")
)

// ListConfig tunes a ListStore.
type ListConfig struct {
	Namespace string
	// LookupAttempts bounds the storage read-through in GetListByID.
	LookupAttempts int
	LookupBackoff  time.Duration
	// StartupDelay is waited once before the initial Load.
	StartupDelay time.Duration
}

// ListStore owns the in-memory collection of shopping lists.
//
// Every mutation validates its input, builds a new collection from the
// current one, persists it and only then makes it current, so a failed
// write leaves memory untouched. Mutations are serialized; reads work on
// copies and never wait for storage.
type ListStore struct {
	facade    *storage.Facade
	cfg       ListConfig
	key       string
	logger    *slog.Logger
	notifier  notify.Notifier
	publisher Publisher
	recorder  logging.Recorder
	debug     *flags.Value[bool]
	now       func() time.Time

	writeMu sync.Mutex
	loaded  bool

	stateMu sync.RWMutex
	lists   []model.ShoppingList
	lastErr string

	lookups singleflight.Group
}

// Option configures a ListStore.
type Option func(*ListStore)

func WithLogger(l *slog.Logger) Option { return func(s *ListStore) { s.logger = l } }

func WithNotifier(n notify.Notifier) Option { return func(s *ListStore) { s.notifier = n } }

func WithPublisher(p Publisher) Option { return func(s *ListStore) { s.publisher = p } }

func WithRecorder(r logging.Recorder) Option { return func(s *ListStore) { s.recorder = r } }

// WithDebug enables state-change logging while v is true.
func WithDebug(v *flags.Value[bool]) Option { return func(s *ListStore) { s.debug = v } }

func WithClock(now func() time.Time) Option { return func(s *ListStore) { s.now = now } }

func NewListStore(facade *storage.Facade, cfg ListConfig, opts ...Option) *ListStore {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if cfg.LookupAttempts <= 0 {
		cfg.LookupAttempts = defaultLookupAttempts
	}
	if cfg.LookupBackoff <= 0 {
		cfg.LookupBackoff = defaultLookupBackoff
	}
	s := &ListStore{
		facade:    facade,
		cfg:       cfg,
		key:       ListsKey(cfg.Namespace),
		logger:    logging.Discard(),
		notifier:  notify.Multi{},
		publisher: nopPublisher{},
		recorder:  logging.Nop{},
		debug:     flags.New(false),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load waits the configured startup delay and reads the collection from
// storage, repairing it and writing the repaired copy back when needed.
func (s *ListStore) Load(ctx context.Context) error {
	if d := s.cfg.StartupDelay; d > 0 {
		t := time.NewTimer(d)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.reloadLocked(ctx)
}

// RefreshLists reloads the whole collection from storage.
func (s *ListStore) RefreshLists(ctx context.Context) error {
	start := time.Now()
	s.writeMu.Lock()
	err := s.reloadLocked(ctx)
	s.writeMu.Unlock()
	s.recorder.Record(ctx, "refresh_lists", time.Since(start), err)
	return err
}

func (s *ListStore) reloadLocked(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw := storage.GetItem(ctx, s.facade, s.key, []json.RawMessage{})
	res := grocery.DecodeLists(raw, s.now())
	for _, r := range res.Rejected {
		s.logger.Warn("dropped invalid list record", "index", r.Index, "id", r.ID, "reason", r.Reason)
	}

	lists, changed := grocery.ValidateAndRepair(res.Lists)
	if res.NeedsUpdate() || changed {
		if err := s.facade.SetItem(ctx, s.key, lists); err != nil {
			s.logger.Error("persist repaired lists", "error", err)
		} else {
			s.logger.Info("repaired stored lists", "lists", len(lists), "rejected", len(res.Rejected))
		}
	}

	s.swap("reload", s.current(), lists)
	s.loaded = true
	return nil
}

// Lists returns a copy of every list.
func (s *ListStore) Lists() []model.ShoppingList {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	out := make([]model.ShoppingList, len(s.lists))
	for i, l := range s.lists {
		out[i] = l.Clone()
	}
	return out
}

// Filter returns the lists selected and ordered by opts.
func (s *ListStore) Filter(opts grocery.FilterOptions) []model.ShoppingList {
	return grocery.FilterLists(s.Lists(), opts)
}

// LastError returns the message of the most recent failed mutation, or ""
// when the most recent mutation succeeded.
func (s *ListStore) LastError() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.lastErr
}

func (s *ListStore) CreateList(ctx context.Context, name string, budget *float64) (*model.ShoppingList, error) {
	var created model.ShoppingList
	err := s.run(ctx, "create_list", "List created", "Could not create list", func() error {
		name = strings.TrimSpace(name)
		if name == "" {
			return validationError("list name is required")
		}
		if err := validateAmount("budget", budget); err != nil {
			return err
		}
		return s.commit(ctx, "create_list", func(cur []model.ShoppingList, now time.Time) ([]model.ShoppingList, error) {
			created = model.ShoppingList{
				ID:        model.NewID(),
				Name:      name,
				Items:     []model.Item{},
				Budget:    cloneFloat(budget),
				Version:   1,
				CreatedAt: now,
				UpdatedAt: now,
			}
			return append(slices.Clone(cur), created), nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, Event{Entity: EntityList, Action: ActionCreated, ListID: created.ID})
	out := created.Clone()
	return &out, nil
}

func (s *ListStore) AddItem(ctx context.Context, listID string, in model.ItemInput) (*model.Item, error) {
	items, err := s.addItems(ctx, "add_item", "Item added", "Could not add item", listID, []model.ItemInput{in})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// AddVoiceItems appends every usable parsed speech record to the list in a
// single write.
func (s *ListStore) AddVoiceItems(ctx context.Context, listID string, records []model.VoiceItem) ([]model.Item, error) {
	inputs := grocery.ItemsFromVoice(records)
	msg := fmt.Sprintf("%d items added", len(inputs))
	return s.addItems(ctx, "add_voice_items", msg, "Could not add items", listID, inputs)
}

func (s *ListStore) addItems(ctx context.Context, op, okMsg, failMsg, listID string, inputs []model.ItemInput) ([]model.Item, error) {
	var added []model.Item
	err := s.run(ctx, op, okMsg, failMsg, func() error {
		if len(inputs) == 0 {
			return validationError("no items to add")
		}
		items := make([]model.Item, 0, len(inputs))
		for _, in := range inputs {
			it, err := newItem(in)
			if err != nil {
				return err
			}
			items = append(items, it)
		}

		_, err := s.editList(ctx, op, listID, func(l *model.ShoppingList, now time.Time) error {
			for i := range items {
				items[i].ID = model.NewID()
				items[i].CreatedAt = now
				items[i].UpdatedAt = now
				l.Items = append(l.Items, items[i].Clone())
			}
			return nil
		})
		added = items
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, it := range added {
		s.publisher.Publish(ctx, Event{Entity: EntityItem, Action: ActionCreated, ListID: listID, ItemID: it.ID})
	}
	return added, nil
}

func newItem(in model.ItemInput) (model.Item, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Item{}, validationError("item name is required")
	}
	qty := in.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 || qty > model.MaxQuantity {
		return model.Item{}, validationError("quantity must be between 1 and %d", model.MaxQuantity)
	}
	if err := validateAmount("price", in.Price); err != nil {
		return model.Item{}, err
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = model.DefaultUnit
	}
	it := model.Item{
		Name:     name,
		Quantity: qty,
		Unit:     unit,
		Price:    cloneFloat(in.Price),
		Category: grocery.ResolveCategory(in.Category, name),
	}
	if err := validateLineTotal(it); err != nil {
		return model.Item{}, err
	}
	return it, nil
}

func (s *ListStore) UpdateItem(ctx context.Context, listID, itemID string, patch model.ItemPatch) (*model.Item, error) {
	var updated model.Item
	err := s.run(ctx, "update_item", "Item updated", "Could not update item", func() error {
		if err := validateItemPatch(patch); err != nil {
			return err
		}
		l, err := s.editList(ctx, "update_item", listID, func(l *model.ShoppingList, now time.Time) error {
			i := l.ItemIndex(itemID)
			if i < 0 {
				return fmt.Errorf("item %q: %w", itemID, ErrNotFound)
			}
			applyItemPatch(&l.Items[i], patch)
			if err := validateLineTotal(l.Items[i]); err != nil {
				return err
			}
			l.Items[i].UpdatedAt = now
			return nil
		})
		if err != nil {
			return err
		}
		updated = l.Items[l.ItemIndex(itemID)]
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, Event{Entity: EntityItem, Action: ActionUpdated, ListID: listID, ItemID: itemID})
	return &updated, nil
}

// ToggleItem flips the checked state of an item.
func (s *ListStore) ToggleItem(ctx context.Context, listID, itemID string) (*model.Item, error) {
	var updated model.Item
	err := s.run(ctx, "toggle_item", "", "Could not update item", func() error {
		l, err := s.editList(ctx, "toggle_item", listID, func(l *model.ShoppingList, now time.Time) error {
			i := l.ItemIndex(itemID)
			if i < 0 {
				return fmt.Errorf("item %q: %w", itemID, ErrNotFound)
			}
			l.Items[i].Checked = !l.Items[i].Checked
			l.Items[i].UpdatedAt = now
			return nil
		})
		if err != nil {
			return err
		}
		updated = l.Items[l.ItemIndex(itemID)]
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, Event{
		Entity: EntityItem, Action: ActionChecked, ListID: listID, ItemID: itemID,
		Extra: map[string]any{"checked": updated.Checked},
	})
	return &updated, nil
}

func validateItemPatch(p model.ItemPatch) error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return validationError("item name is required")
	}
	if p.Quantity != nil && (*p.Quantity < 1 || *p.Quantity > model.MaxQuantity) {
		return validationError("quantity must be between 1 and %d", model.MaxQuantity)
	}
	if !p.ClearPrice {
		return validateAmount("price", p.Price)
	}
	return nil
}

func validateLineTotal(it model.Item) error {
	if it.Price == nil {
		return nil
	}
	if _, ok := grocery.LineTotal(it); !ok {
		return validationError("price × quantity is out of range")
	}
	return nil
}

func applyItemPatch(it *model.Item, p model.ItemPatch) {
	if p.Name != nil {
		it.Name = strings.TrimSpace(*p.Name)
	}
	if p.Quantity != nil {
		it.Quantity = *p.Quantity
	}
	if p.Unit != nil {
		if it.Unit = strings.TrimSpace(*p.Unit); it.Unit == "" {
			it.Unit = model.DefaultUnit
		}
	}
	switch {
	case p.ClearPrice:
		it.Price = nil
	case p.Price != nil:
		it.Price = cloneFloat(p.Price)
	}
	if p.Checked != nil {
		it.Checked = *p.Checked
	}
	if p.Category != nil {
		it.Category = grocery.ResolveCategory(*p.Category, it.Name)
	}
}

// RemoveItem deletes an item from a list. Removing an item that is not in
// the list succeeds without writing.
func (s *ListStore) RemoveItem(ctx context.Context, listID, itemID string) error {
	removed := false
	err := s.run(ctx, "remove_item", "", "Could not remove item", func() error {
		_, err := s.editList(ctx, "remove_item", listID, func(l *model.ShoppingList, _ time.Time) error {
			i := l.ItemIndex(itemID)
			if i < 0 {
				return errUnchanged
			}
			l.Items = slices.Delete(l.Items, i, i+1)
			removed = true
			return nil
		})
		return err
	})
	if err == nil && removed {
		s.notifier.Success(ctx, "Item removed")
		s.publisher.Publish(ctx, Event{Entity: EntityItem, Action: ActionDeleted, ListID: listID, ItemID: itemID})
	}
	return err
}

// ClearChecked removes every checked item and returns how many were removed.
func (s *ListStore) ClearChecked(ctx context.Context, listID string) (int, error) {
	n := 0
	err := s.run(ctx, "clear_checked", "Checked items removed", "Could not remove items", func() error {
		_, err := s.editList(ctx, "clear_checked", listID, func(l *model.ShoppingList, _ time.Time) error {
			kept := l.Items[:0]
			for _, it := range l.Items {
				if !it.Checked {
					kept = append(kept, it)
				}
			}
			n = len(l.Items) - len(kept)
			if n == 0 {
				return errUnchanged
			}
			l.Items = kept
			return nil
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.publisher.Publish(ctx, Event{Entity: EntityItem, Action: ActionCleared, ListID: listID, Extra: map[string]any{"count": n}})
	}
	return n, nil
}

// UpdateList merges patch into the list. Items and id are never changed.
// With patch.ExpectedVersion set, the update fails with ErrConflict unless
// the list is still at that version.
func (s *ListStore) UpdateList(ctx context.Context, listID string, patch model.ListPatch) (*model.ShoppingList, error) {
	var updated model.ShoppingList
	err := s.run(ctx, "update_list", "List updated", "Could not update list", func() error {
		if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
			return validationError("list name is required")
		}
		if !patch.ClearBudget {
			if err := validateAmount("budget", patch.Budget); err != nil {
				return err
			}
		}
		l, err := s.editList(ctx, "update_list", listID, func(l *model.ShoppingList, _ time.Time) error {
			if v := patch.ExpectedVersion; v != nil && *v != l.Version {
				return fmt.Errorf("list %q at version %d, expected %d: %w", listID, l.Version, *v, ErrConflict)
			}
			if patch.Name != nil {
				l.Name = strings.TrimSpace(*patch.Name)
			}
			switch {
			case patch.ClearBudget:
				l.Budget = nil
			case patch.Budget != nil:
				l.Budget = cloneFloat(patch.Budget)
			}
			if patch.Completed != nil {
				l.Completed = *patch.Completed
			}
			return nil
		})
		updated = l
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, Event{Entity: EntityList, Action: ActionUpdated, ListID: listID})
	return &updated, nil
}

// DeleteList removes a list and its collapse state. Deleting a list that
// does not exist succeeds.
func (s *ListStore) DeleteList(ctx context.Context, listID string) error {
	removed := false
	err := s.run(ctx, "delete_list", "List deleted", "Could not delete list", func() error {
		err := s.commit(ctx, "delete_list", func(cur []model.ShoppingList, _ time.Time) ([]model.ShoppingList, error) {
			i := indexOf(cur, listID)
			if i < 0 {
				return nil, nil
			}
			removed = true
			return slices.Delete(slices.Clone(cur), i, i+1), nil
		})
		if err != nil {
			return err
		}
		if err := s.facade.RemoveItem(ctx, CollapseKey(listID)); err != nil {
			s.logger.Warn("clear collapse state", "list_id", listID, "error", err)
		}
		return nil
	})
	if err == nil && removed {
		s.publisher.Publish(ctx, Event{Entity: EntityList, Action: ActionDeleted, ListID: listID})
	}
	return err
}

// GetListByID returns the list from memory, falling back to a read-through
// of storage when memory does not have it. A list whose stored total no
// longer matches its items is corrected and persisted. A list that cannot
// be found, even after retrying, yields nil and no error; only context
// cancellation is reported.
func (s *ListStore) GetListByID(ctx context.Context, listID string) (*model.ShoppingList, error) {
	start := time.Now()
	l, err := s.getListByID(ctx, listID)
	s.recorder.Record(ctx, "get_list", time.Since(start), err)
	return l, err
}

func (s *ListStore) getListByID(ctx context.Context, listID string) (*model.ShoppingList, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	if l, ok := s.cached(listID); ok {
		if total := grocery.CalculateTotal(l.Items); total != l.Total {
			s.logger.Info("fixing stale total", "list_id", listID, "stored", l.Total, "computed", total)
			fixed, err := s.editList(ctx, "fix_total", listID, func(*model.ShoppingList, time.Time) error { return nil })
			if err == nil {
				return &fixed, nil
			}
			s.logger.Warn("persist fixed total", "list_id", listID, "error", err)
			l.Total = total
		}
		return &l, nil
	}

	v, err, _ := s.lookups.Do(listID, func() (any, error) {
		return s.lookup(ctx, listID)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn("list lookup failed", "list_id", listID, "error", err)
		return nil, nil
	}
	if v == nil {
		return nil, nil
	}
	l := v.(model.ShoppingList).Clone()
	return &l, nil
}

// lookup reloads from storage until the list shows up or attempts run out.
func (s *ListStore) lookup(ctx context.Context, listID string) (any, error) {
	var found model.ShoppingList
	b := retry.WithMaxRetries(uint64(s.cfg.LookupAttempts-1), retry.NewExponential(s.cfg.LookupBackoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		s.writeMu.Lock()
		err := s.reloadLocked(ctx)
		s.writeMu.Unlock()
		if err != nil {
			return err
		}
		l, ok := s.cached(listID)
		if !ok {
			return retry.RetryableError(errAbsent)
		}
		found = l
		return nil
	})
	if errors.Is(err, errAbsent) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return found, nil
}

// run wraps a user action with telemetry, the last-error slot and notifications.
func (s *ListStore) run(ctx context.Context, op, okMsg, failMsg string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.recorder.Record(ctx, op, time.Since(start), err)

	if err != nil {
		msg := fmt.Sprintf("%s: %v", failMsg, err)
		s.setLastError(msg)
		s.notifier.Error(ctx, msg)
		return err
	}
	s.setLastError("")
	if okMsg != "" {
		s.notifier.Success(ctx, okMsg)
	}
	return nil
}

// commit performs one serialized read-modify-write of the collection.
// fn returns the next collection, or nil to skip the write.
func (s *ListStore) commit(ctx context.Context, op string, fn func(cur []model.ShoppingList, now time.Time) ([]model.ShoppingList, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !s.loaded {
		if err := s.reloadLocked(ctx); err != nil {
			return err
		}
	}

	cur := s.current()
	next, err := fn(cur, s.now())
	if err != nil || next == nil {
		return err
	}
	if err := s.facade.SetItem(ctx, s.key, next); err != nil {
		return fmt.Errorf("persist lists: %w", err)
	}
	s.swap(op, cur, next)
	return nil
}

// editList applies fn to a copy of one list, then recomputes its total,
// stamps it and bumps its version. fn may return errUnchanged to skip the write.
func (s *ListStore) editList(ctx context.Context, op, listID string, fn func(l *model.ShoppingList, now time.Time) error) (model.ShoppingList, error) {
	var out model.ShoppingList
	err := s.commit(ctx, op, func(cur []model.ShoppingList, now time.Time) ([]model.ShoppingList, error) {
		i := indexOf(cur, listID)
		if i < 0 {
			return nil, fmt.Errorf("list %q: %w", listID, ErrNotFound)
		}
		l := cur[i].Clone()
		if err := fn(&l, now); err != nil {
			if errors.Is(err, errUnchanged) {
				out = l
				return nil, nil
			}
			return nil, err
		}
		l.Total = grocery.CalculateTotal(l.Items)
		if now.After(l.CreatedAt) {
			l.UpdatedAt = now
		} else {
			l.UpdatedAt = l.CreatedAt
		}
		l.Version++
		out = l

		next := slices.Clone(cur)
		next[i] = l
		return next, nil
	})
	if err != nil {
		return model.ShoppingList{}, err
	}
	return out.Clone(), nil
}

func (s *ListStore) ensureLoaded(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.loaded {
		return nil
	}
	return s.reloadLocked(ctx)
}

func (s *ListStore) current() []model.ShoppingList {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return slices.Clone(s.lists)
}

func (s *ListStore) cached(listID string) (model.ShoppingList, bool) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if i := indexOf(s.lists, listID); i >= 0 {
		return s.lists[i].Clone(), true
	}
	return model.ShoppingList{}, false
}

func (s *ListStore) swap(op string, before, after []model.ShoppingList) {
	s.stateMu.Lock()
	s.lists = after
	s.stateMu.Unlock()

	if s.debug.Get() {
		logStateChange(s.logger, op, before, after)
	}
}

func (s *ListStore) setLastError(msg string) {
	s.stateMu.Lock()
	s.lastErr = msg
	s.stateMu.Unlock()
}

func indexOf(lists []model.ShoppingList, id string) int {
	for i := range lists {
		if lists[i].ID == id {
			return i
		}
	}
	return -1
}

func logStateChange(logger *slog.Logger, op string, before, after []model.ShoppingList) {
	prev := make(map[string]int64, len(before))
	for _, l := range before {
		prev[l.ID] = l.Version
	}
	var added, changed []string
	for _, l := range after {
		v, ok := prev[l.ID]
		switch {
		case !ok:
			added = append(added, l.ID)
		case v != l.Version:
			changed = append(changed, l.ID)
		}
		delete(prev, l.ID)
	}
	removed := make([]string, 0, len(prev))
	for id := range prev {
		removed = append(removed, id)
	}
	slices.Sort(removed)

	logger.Debug("state change",
		"op", op,
		"before", len(before),
		"after", len(after),
		"added", added,
		"changed", changed,
		"removed", removed,
	)
}
