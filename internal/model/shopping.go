package model

import "time"

// Unit values offered for new items.
var Units = []string{"un", "kg", "g", "L", "ml", "cx", "pct"}

const DefaultUnit = "un"

// MaxQuantity bounds item quantities so they fit any int.
const MaxQuantity = 1<<31 - 1

type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Unit      string    `json:"unit"`
	Price     *float64  `json:"price,omitempty"`
	Checked   bool      `json:"checked"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ShoppingList struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Items     []Item    `json:"items"`
	Total     float64   `json:"total"`
	Budget    *float64  `json:"budget,omitempty"`
	Completed bool      `json:"completed"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OverBudget reports whether the list has a budget and its total exceeds it.
func (l *ShoppingList) OverBudget() bool {
	return l.Budget != nil && l.Total > *l.Budget
}

// Remaining returns budget minus total, or nil when the list has no budget.
func (l *ShoppingList) Remaining() *float64 {
	if l.Budget == nil {
		return nil
	}
	r := *l.Budget - l.Total
	return &r
}

func (l *ShoppingList) CheckedCount() int {
	n := 0
	for _, it := range l.Items {
		if it.Checked {
			n++
		}
	}
	return n
}

// ItemIndex returns the position of the item with id, or -1.
func (l *ShoppingList) ItemIndex(id string) int {
	for i := range l.Items {
		if l.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy that shares no memory with l.
func (l ShoppingList) Clone() ShoppingList {
	out := l
	out.Budget = cloneFloat(l.Budget)
	out.Items = make([]Item, len(l.Items))
	for i, it := range l.Items {
		out.Items[i] = it.Clone()
	}
	return out
}

func (it Item) Clone() Item {
	it.Price = cloneFloat(it.Price)
	return it
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ItemInput is the data needed to add an item to a list.
type ItemInput struct {
	Name     string   `json:"name"`
	Quantity int      `json:"quantity"`
	Unit     string   `json:"unit"`
	Price    *float64 `json:"price,omitempty"`
	Category string   `json:"category,omitempty"`
}

// ItemPatch carries the item fields to change. Nil fields are left alone.
type ItemPatch struct {
	Name       *string  `json:"name,omitempty"`
	Quantity   *int     `json:"quantity,omitempty"`
	Unit       *string  `json:"unit,omitempty"`
	Price      *float64 `json:"price,omitempty"`
	ClearPrice bool     `json:"clearPrice,omitempty"`
	Checked    *bool    `json:"checked,omitempty"`
	Category   *string  `json:"category,omitempty"`
}

// ListPatch carries the list fields to change. Items and id are never patched.
// When ExpectedVersion is set the patch only applies to that version.
type ListPatch struct {
	Name            *string  `json:"name,omitempty"`
	Budget          *float64 `json:"budget,omitempty"`
	ClearBudget     bool     `json:"clearBudget,omitempty"`
	Completed       *bool    `json:"completed,omitempty"`
	ExpectedVersion *int64   `json:"expectedVersion,omitempty"`
}

// VoiceItem is one product record produced by speech parsing.
type VoiceItem struct {
	Produto    string  `json:"produto"`
	Quantidade float64 `json:"quantidade"`
	Unidade    string  `json:"unidade,omitempty"`
}
