package grocery

import (
	"sort"
	"strings"
	"time"

	"github.com/dukerupert/listkeeper/internal/model"
)

// Section is the items of one category, as shown in a list view.
type Section struct {
	Category Category     `json:"category"`
	Items    []model.Item `json:"items"`
	Total    float64      `json:"total"`
}

// GroupByCategory buckets items by category in catalogue order. Unknown or
// empty categories go to Outros. Inside a section unchecked items come
// first and each group keeps insertion order. Empty sections are omitted.
func GroupByCategory(items []model.Item) []Section {
	buckets := make(map[string][]model.Item)
	for _, it := range items {
		id := it.Category
		if !IsCategory(id) {
			id = Outros
		}
		buckets[id] = append(buckets[id], it)
	}

	var out []Section
	for _, c := range catalogue {
		b := buckets[c.ID]
		if len(b) == 0 {
			continue
		}
		sort.SliceStable(b, func(i, j int) bool {
			return !b[i].Checked && b[j].Checked
		})
		out = append(out, Section{Category: c, Items: b, Total: CalculateTotal(b)})
	}
	return out
}

// Sort keys for FilterOptions.
const (
	SortByCreatedAt = "createdAt"
	SortByUpdatedAt = "updatedAt"
	SortByName      = "name"
	SortByTotal     = "total"
)

// FilterOptions selects and orders lists.
type FilterOptions struct {
	Completed *bool
	// Category keeps lists holding at least one item of this category.
	Category string
	From, To time.Time
	SortBy   string
	Desc     bool
}

// FilterLists returns the lists matching opts in the requested order.
// The input slice is not modified.
func FilterLists(lists []model.ShoppingList, opts FilterOptions) []model.ShoppingList {
	out := make([]model.ShoppingList, 0, len(lists))
	for _, l := range lists {
		if opts.Completed != nil && l.Completed != *opts.Completed {
			continue
		}
		if !opts.From.IsZero() && l.CreatedAt.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && l.CreatedAt.After(opts.To) {
			continue
		}
		if opts.Category != "" && !hasCategory(l, opts.Category) {
			continue
		}
		out = append(out, l)
	}

	less := lessFunc(opts.SortBy)
	sort.SliceStable(out, func(i, j int) bool {
		if opts.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func hasCategory(l model.ShoppingList, category string) bool {
	for _, it := range l.Items {
		if it.Category == category {
			return true
		}
	}
	return false
}

func lessFunc(sortBy string) func(a, b model.ShoppingList) bool {
	switch sortBy {
	case SortByUpdatedAt:
		return func(a, b model.ShoppingList) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case SortByName:
		return func(a, b model.ShoppingList) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case SortByTotal:
		return func(a, b model.ShoppingList) bool { return a.Total < b.Total }
	default:
		return func(a, b model.ShoppingList) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}
