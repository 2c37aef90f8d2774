package grocery

import (
	"strings"

	"github.com/dukerupert/listkeeper/internal/model"
)

// ValidateAndRepair drops lists without an id or a name and lists whose id
// was already seen, gives every kept list a non-nil item slice, drops items
// whose id repeats within a list, raises quantities below one to one,
// orders timestamps and recomputes totals. It returns fresh copies and
// reports whether anything changed. Running it on its own output changes
// nothing.
func ValidateAndRepair(lists []model.ShoppingList) ([]model.ShoppingList, bool) {
	out := make([]model.ShoppingList, 0, len(lists))
	seen := make(map[string]struct{}, len(lists))
	changed := false

	for _, l := range lists {
		if strings.TrimSpace(l.ID) == "" || strings.TrimSpace(l.Name) == "" {
			changed = true
			continue
		}
		if _, dup := seen[l.ID]; dup {
			changed = true
			continue
		}
		seen[l.ID] = struct{}{}

		fixed, listChanged := repairList(l)
		out = append(out, fixed)
		changed = changed || listChanged
	}
	return out, changed
}

func repairList(l model.ShoppingList) (model.ShoppingList, bool) {
	changed := false
	if l.Items == nil {
		changed = true
	}
	l = l.Clone()

	items := l.Items[:0]
	seen := make(map[string]struct{}, len(l.Items))
	for _, it := range l.Items {
		if _, dup := seen[it.ID]; dup {
			changed = true
			continue
		}
		seen[it.ID] = struct{}{}
		if it.Quantity < 1 {
			it.Quantity = 1
			changed = true
		}
		if it.UpdatedAt.Before(it.CreatedAt) {
			it.UpdatedAt = it.CreatedAt
			changed = true
		}
		items = append(items, it)
	}
	l.Items = items

	if l.UpdatedAt.Before(l.CreatedAt) {
		l.UpdatedAt = l.CreatedAt
		changed = true
	}

	if total := CalculateTotal(l.Items); total != l.Total {
		l.Total = total
		changed = true
	}
	return l, changed
}
