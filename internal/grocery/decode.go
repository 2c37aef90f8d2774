package grocery

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/listkeeper/internal/model"
)

// Rejection describes a persisted list record that could not be used.
type Rejection struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// DecodeResult is the typed outcome of decoding persisted list records.
type DecodeResult struct {
	Lists    []model.ShoppingList
	Rejected []Rejection
	// Repaired is set when a kept record needed a field fixed or defaulted.
	Repaired bool
}

// NeedsUpdate reports whether the stored records differ from Lists.
func (r DecodeResult) NeedsUpdate() bool {
	return r.Repaired || len(r.Rejected) > 0
}

type listRecord struct {
	ID        json.RawMessage `json:"id"`
	Name      json.RawMessage `json:"name"`
	Items     json.RawMessage `json:"items"`
	Total     json.RawMessage `json:"total"`
	Budget    json.RawMessage `json:"budget"`
	Completed json.RawMessage `json:"completed"`
	Version   json.RawMessage `json:"version"`
	CreatedAt json.RawMessage `json:"createdAt"`
	UpdatedAt json.RawMessage `json:"updatedAt"`
}

type itemRecord struct {
	ID        json.RawMessage `json:"id"`
	Name      json.RawMessage `json:"name"`
	Quantity  json.RawMessage `json:"quantity"`
	Unit      json.RawMessage `json:"unit"`
	Price     json.RawMessage `json:"price"`
	Checked   json.RawMessage `json:"checked"`
	Category  json.RawMessage `json:"category"`
	CreatedAt json.RawMessage `json:"createdAt"`
	UpdatedAt json.RawMessage `json:"updatedAt"`
}

// DecodeLists turns persisted records into lists. Records that are not
// objects or lack an id or a name are rejected. Everything else is kept with
// lenient field parsing: numbers may arrive as strings, timestamps as RFC 3339
// or epoch milliseconds, and unusable values fall back to defaults.
// now stamps records that carry no timestamps.
func DecodeLists(raw []json.RawMessage, now time.Time) DecodeResult {
	var res DecodeResult
	res.Lists = make([]model.ShoppingList, 0, len(raw))

	for i, r := range raw {
		var rec listRecord
		if !isObject(r) || json.Unmarshal(r, &rec) != nil {
			res.Rejected = append(res.Rejected, Rejection{Index: i, Reason: "not an object"})
			continue
		}

		id, _ := decodeString(rec.ID)
		name, _ := decodeString(rec.Name)
		id, name = strings.TrimSpace(id), strings.TrimSpace(name)
		if id == "" {
			res.Rejected = append(res.Rejected, Rejection{Index: i, Reason: "missing id"})
			continue
		}
		if name == "" {
			res.Rejected = append(res.Rejected, Rejection{Index: i, ID: id, Reason: "missing name"})
			continue
		}

		l, repaired := decodeList(rec, id, name, now)
		res.Lists = append(res.Lists, l)
		res.Repaired = res.Repaired || repaired
	}
	return res
}

func decodeList(rec listRecord, id, name string, now time.Time) (model.ShoppingList, bool) {
	repaired := false
	l := model.ShoppingList{ID: id, Name: name, Items: []model.Item{}}

	l.Completed, _ = decodeBool(rec.Completed)
	if v, ok := decodeNumber(rec.Version); ok && v >= 0 {
		l.Version = int64(v)
	}
	if v, ok := decodeNumber(rec.Total); ok {
		l.Total = v
	}
	if v, ok := decodeNumber(rec.Budget); ok && v >= 0 {
		l.Budget = &v
	} else if present(rec.Budget) {
		repaired = true
	}

	var ok bool
	if l.CreatedAt, ok = decodeTime(rec.CreatedAt); !ok {
		l.CreatedAt = now
		repaired = true
	}
	if l.UpdatedAt, ok = decodeTime(rec.UpdatedAt); !ok {
		l.UpdatedAt = l.CreatedAt
		repaired = true
	}

	var items []json.RawMessage
	if !present(rec.Items) || json.Unmarshal(rec.Items, &items) != nil {
		return l, true
	}
	for _, raw := range items {
		it, itemRepaired, keep := decodeItem(raw, l.CreatedAt)
		if !keep {
			repaired = true
			continue
		}
		l.Items = append(l.Items, it)
		repaired = repaired || itemRepaired
	}
	return l, repaired
}

func decodeItem(raw json.RawMessage, fallback time.Time) (model.Item, bool, bool) {
	var rec itemRecord
	if !isObject(raw) || json.Unmarshal(raw, &rec) != nil {
		return model.Item{}, false, false
	}
	name, _ := decodeString(rec.Name)
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Item{}, false, false
	}

	repaired := false
	it := model.Item{Name: name}

	it.ID, _ = decodeString(rec.ID)
	if strings.TrimSpace(it.ID) == "" {
		it.ID = model.NewID()
		repaired = true
	}

	if q, ok := decodeNumber(rec.Quantity); ok && q >= 1 && q <= model.MaxQuantity {
		it.Quantity = int(q)
		if q != math.Trunc(q) {
			repaired = true
		}
	} else {
		it.Quantity = 1
		repaired = true
	}

	if p, ok := decodeNumber(rec.Price); ok && p >= 0 {
		it.Price = &p
	} else if present(rec.Price) {
		repaired = true
	}

	if it.Unit, _ = decodeString(rec.Unit); it.Unit == "" {
		it.Unit = model.DefaultUnit
		repaired = true
	}
	it.Category, _ = decodeString(rec.Category)
	it.Checked, _ = decodeBool(rec.Checked)

	var ok bool
	if it.CreatedAt, ok = decodeTime(rec.CreatedAt); !ok {
		it.CreatedAt = fallback
		repaired = true
	}
	if it.UpdatedAt, ok = decodeTime(rec.UpdatedAt); !ok {
		it.UpdatedAt = it.CreatedAt
		repaired = true
	}
	return it, repaired, true
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func decodeString(raw json.RawMessage) (string, bool) {
	if !present(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

func decodeNumber(raw json.RawMessage) (float64, bool) {
	if !present(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		f, err = strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
		if err != nil {
			return 0, false
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func decodeBool(raw json.RawMessage) (bool, bool) {
	if !present(raw) {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}

func decodeTime(raw json.RawMessage) (time.Time, bool) {
	if !present(raw) {
		return time.Time{}, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil && ms > 0 {
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}
