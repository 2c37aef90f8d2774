package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/listkeeper/internal/grocery"
	"github.com/dukerupert/listkeeper/internal/model"
	"github.com/dukerupert/listkeeper/internal/store"
)

type ListHandler struct {
	lists    *store.ListStore
	collapse *store.CollapseStore
	logger   *slog.Logger
}

func NewListHandler(ls *store.ListStore, cs *store.CollapseStore, logger *slog.Logger) *ListHandler {
	return &ListHandler{lists: ls, collapse: cs, logger: logger}
}

// listView is a list with its derived figures.
type listView struct {
	model.ShoppingList
	OverBudget   bool     `json:"overBudget"`
	Remaining    *float64 `json:"remaining,omitempty"`
	CheckedCount int      `json:"checkedCount"`
}

func newListView(l model.ShoppingList) listView {
	return listView{
		ShoppingList: l,
		OverBudget:   l.OverBudget(),
		Remaining:    l.Remaining(),
		CheckedCount: l.CheckedCount(),
	}
}

type createListRequest struct {
	Name   string   `json:"name"`
	Budget *float64 `json:"budget"`
}

type voiceRequest struct {
	Items []model.VoiceItem `json:"items"`
}

type sectionView struct {
	grocery.Section
	Collapsed bool `json:"collapsed"`
}

type sectionRequest struct {
	Collapsed *bool `json:"collapsed"`
}

func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	opts, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lists := h.lists.Filter(opts)
	out := make([]listView, 0, len(lists))
	for _, l := range lists {
		out = append(out, newListView(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func parseFilter(r *http.Request) (grocery.FilterOptions, error) {
	q := r.URL.Query()
	opts := grocery.FilterOptions{
		Category: q.Get("category"),
		SortBy:   q.Get("sort"),
		Desc:     q.Get("order") == "desc",
	}
	if v := q.Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errInvalidParam("completed")
		}
		opts.Completed = &b
	}
	for param, dst := range map[string]*time.Time{"from": &opts.From, "to": &opts.To} {
		v := q.Get(param)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return opts, errInvalidParam(param)
		}
		*dst = t
	}
	return opts, nil
}

type errInvalidParam string

func (e errInvalidParam) Error() string { return "invalid " + string(e) }

func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	l, err := h.lists.CreateList(r.Context(), req.Name, req.Budget)
	if err != nil {
		writeStoreError(w, h.logger, "failed to create list", err)
		return
	}
	writeJSON(w, http.StatusCreated, newListView(*l))
}

func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.lists.GetListByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, h.logger, "failed to get list", err)
		return
	}
	if l == nil {
		writeError(w, http.StatusNotFound, "list not found")
		return
	}
	writeJSON(w, http.StatusOK, newListView(*l))
}

func (h *ListHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.ListPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	l, err := h.lists.UpdateList(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeStoreError(w, h.logger, "failed to update list", err)
		return
	}
	writeJSON(w, http.StatusOK, newListView(*l))
}

func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.lists.DeleteList(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, h.logger, "failed to delete list", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ListHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var in model.ItemInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	item, err := h.lists.AddItem(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeStoreError(w, h.logger, "failed to create item", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *ListHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch model.ItemPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	item, err := h.lists.UpdateItem(r.Context(), r.PathValue("id"), r.PathValue("item_id"), patch)
	if err != nil {
		writeStoreError(w, h.logger, "failed to update item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ListHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.lists.RemoveItem(r.Context(), r.PathValue("id"), r.PathValue("item_id")); err != nil {
		writeStoreError(w, h.logger, "failed to delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ListHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.lists.ToggleItem(r.Context(), r.PathValue("id"), r.PathValue("item_id"))
	if err != nil {
		writeStoreError(w, h.logger, "failed to toggle item", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ListHandler) ClearChecked(w http.ResponseWriter, r *http.Request) {
	n, err := h.lists.ClearChecked(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, h.logger, "failed to clear checked items", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (h *ListHandler) Voice(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	items, err := h.lists.AddVoiceItems(r.Context(), r.PathValue("id"), req.Items)
	if err != nil {
		writeStoreError(w, h.logger, "failed to add items", err)
		return
	}
	writeJSON(w, http.StatusCreated, items)
}

// Sections returns the list's items grouped by category with collapse state.
func (h *ListHandler) Sections(w http.ResponseWriter, r *http.Request) {
	l, ok := h.loadList(w, r)
	if !ok {
		return
	}
	sections := grocery.GroupByCategory(l.Items)
	state, err := h.collapse.Get(r.Context(), l.ID, sectionIDs(sections))
	if err != nil {
		// collapse state is cosmetic; serve defaults
		h.logger.Warn("collapse state", "list_id", l.ID, "error", err)
	}
	out := make([]sectionView, 0, len(sections))
	for _, s := range sections {
		out = append(out, sectionView{Section: s, Collapsed: state[s.Category.ID]})
	}
	writeJSON(w, http.StatusOK, out)
}

// UpdateSection toggles one section. The section "all" applies the
// majority rule, or sets every section when the body names a state.
func (h *ListHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	var req sectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	l, ok := h.loadList(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	section := r.PathValue("section")
	if section != "all" {
		if !grocery.IsCategory(section) {
			writeError(w, http.StatusBadRequest, "unknown section")
			return
		}
		collapsed, err := h.collapse.Toggle(ctx, l.ID, section)
		if err != nil {
			writeStoreError(w, h.logger, "failed to update section", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{section: collapsed})
		return
	}

	ids := sectionIDs(grocery.GroupByCategory(l.Items))
	var (
		state map[string]bool
		err   error
	)
	switch {
	case req.Collapsed == nil:
		state, err = h.collapse.ToggleAll(ctx, l.ID, ids)
	case *req.Collapsed:
		state, err = h.collapse.CollapseAll(ctx, l.ID, ids)
	default:
		state, err = h.collapse.ExpandAll(ctx, l.ID, ids)
	}
	if err != nil {
		writeStoreError(w, h.logger, "failed to update sections", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *ListHandler) loadList(w http.ResponseWriter, r *http.Request) (*model.ShoppingList, bool) {
	l, err := h.lists.GetListByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, h.logger, "failed to get list", err)
		return nil, false
	}
	if l == nil {
		writeError(w, http.StatusNotFound, "list not found")
		return nil, false
	}
	return l, true
}

func sectionIDs(sections []grocery.Section) []string {
	ids := make([]string, len(sections))
	for i, s := range sections {
		ids[i] = s.Category.ID
	}
	return ids
}

// Categories returns the category catalogue.
func Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, grocery.Categories())
}
