package mockapi

import (
	"fmt"
	"maps"
	"net/http"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/stockroom/pkg/httpx"
)

var decimalRE = regexp.MustCompile(`^\d{1,8}(\.\d{1,2})?$`)

// fieldErrors is the API's 400 body: field name to messages.
type fieldErrors map[string][]string

func (fe fieldErrors) add(field, msg string) { fe[field] = append(fe[field], msg) }

// paginate slices results into the page requested by ?page=N.
func paginate[T any](r *http.Request, all []T) (pageJSON[T], bool) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return pageJSON[T]{}, false
		}
		page = n
	}

	start := (page - 1) * PageSize
	if start > len(all) || (start == len(all) && page > 1) {
		return pageJSON[T]{}, false
	}
	end := min(start+PageSize, len(all))

	out := pageJSON[T]{Count: len(all), Results: all[start:end]}
	if out.Results == nil {
		out.Results = []T{}
	}
	if end < len(all) {
		next := fmt.Sprintf("%s?page=%d", r.URL.Path, page+1)
		out.Next = &next
	}
	if page > 1 {
		prev := fmt.Sprintf("%s?page=%d", r.URL.Path, page-1)
		out.Previous = &prev
	}
	return out, true
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	s.itemReads.Add(1)

	s.mu.Lock()
	ids := slices.Sorted(maps.Keys(s.items))
	all := make([]itemJSON, 0, len(ids))
	for _, id := range ids {
		all = append(all, s.itemView(s.items[id]))
	}
	s.mu.Unlock()

	page, ok := paginate(r, all)
	if !ok {
		httpx.WriteDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	s.mu.Lock()
	it, found := s.items[id]
	var view itemJSON
	if found {
		view = s.itemView(it)
	}
	s.mu.Unlock()

	if !ok || !found {
		httpx.WriteDetail(w, http.StatusNotFound, "No Item matches the given query.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

type itemWriteRequest struct {
	Name              *string `json:"name"`
	Price             *string `json:"price"`
	LowStockThreshold *int    `json:"low_stock_threshold"`
	CategoryID        *int64  `json:"category_id"`
}

// validate checks the body and returns field errors. Callers hold s.mu.
func (s *Server) validateItemWrite(req itemWriteRequest) fieldErrors {
	errs := fieldErrors{}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		errs.add("name", "This field is required.")
	} else if len(*req.Name) > 200 {
		errs.add("name", "Ensure this field has no more than 200 characters.")
	}
	switch {
	case req.Price == nil:
		errs.add("price", "This field is required.")
	case strings.HasPrefix(*req.Price, "-"):
		errs.add("price", "Price cannot be negative.")
	case !decimalRE.MatchString(*req.Price):
		errs.add("price", "A valid number is required.")
	}
	if req.LowStockThreshold != nil && *req.LowStockThreshold < 0 {
		errs.add("low_stock_threshold", "Ensure this value is greater than or equal to 0.")
	}
	if req.CategoryID == nil {
		errs.add("category_id", "This field is required.")
	} else if _, ok := s.categories[*req.CategoryID]; !ok {
		errs.add("category_id", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *req.CategoryID))
	}
	return errs
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemWriteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if errs := s.validateItemWrite(req); len(errs) > 0 {
		httpx.WriteJSON(w, http.StatusBadRequest, errs)
		return
	}

	it := &itemRecord{
		id:         s.id(),
		name:       strings.TrimSpace(*req.Name),
		price:      *req.Price,
		categoryID: *req.CategoryID,
	}
	if req.LowStockThreshold != nil {
		it.lowStockThreshold = *req.LowStockThreshold
	}
	s.items[it.id] = it
	httpx.WriteJSON(w, http.StatusCreated, s.itemView(it))
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	var req itemWriteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	it, found := s.items[id]
	if !ok || !found {
		httpx.WriteDetail(w, http.StatusNotFound, "No Item matches the given query.")
		return
	}
	if errs := s.validateItemWrite(req); len(errs) > 0 {
		httpx.WriteJSON(w, http.StatusBadRequest, errs)
		return
	}

	it.name = strings.TrimSpace(*req.Name)
	it.price = *req.Price
	it.categoryID = *req.CategoryID
	if req.LowStockThreshold != nil {
		it.lowStockThreshold = *req.LowStockThreshold
	}
	httpx.WriteJSON(w, http.StatusOK, s.itemView(it))
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)

	s.mu.Lock()
	_, found := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()

	if !ok || !found {
		httpx.WriteDetail(w, http.StatusNotFound, "No Item matches the given query.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adjustmentRequest struct {
	Item   *int64 `json:"item"`
	Delta  *int   `json:"delta"`
	Note   string `json:"note"`
	Reason string `json:"reason"`
}

// checkAdjustment validates one adjustment against current stock (plus any
// pending deltas already accepted in the same batch). Callers hold s.mu.
func (s *Server) checkAdjustment(itemID int64, delta *int, pending map[int64]int) fieldErrors {
	errs := fieldErrors{}
	it, ok := s.items[itemID]
	if !ok {
		errs.add("item", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", itemID))
	}
	if delta == nil {
		errs.add("delta", "This field is required.")
	}
	if len(errs) > 0 {
		return errs
	}
	available := it.quantity + pending[itemID]
	if available+*delta < 0 {
		errs.add("delta", fmt.Sprintf("Cannot reduce stock by %d. Only %d available.", -*delta, available))
	}
	return errs
}

// apply records a stock movement. Callers hold s.mu.
func (s *Server) apply(itemID int64, delta int, reason string, actor userRecord) transactionJSON {
	it := s.items[itemID]
	it.quantity += delta
	tx := transactionJSON{
		ID:                  s.id(),
		Item:                itemID,
		ItemName:            it.name,
		Delta:               delta,
		Reason:              reason,
		PerformedBy:         actor.id,
		PerformedByUsername: actor.username,
		CreatedAt:           time.Now().UTC(),
	}
	s.txs = append(s.txs, tx)
	return tx
}

func (s *Server) handleAdjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	actor, _ := s.currentUser(r)

	var req adjustmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return
	}
	if req.Reason == "" {
		req.Reason = "manual"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.items[id]; !ok || !found {
		httpx.WriteDetail(w, http.StatusNotFound, "No Item matches the given query.")
		return
	}
	if errs := s.checkAdjustment(id, req.Delta, nil); len(errs) > 0 {
		httpx.WriteJSON(w, http.StatusBadRequest, errs)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, s.apply(id, *req.Delta, req.Reason, actor))
}

type bulkRequest struct {
	Adjustments []adjustmentRequest `json:"adjustments"`
	Reason      string              `json:"reason"`
}

// handleBulkAdjust validates the whole batch first and applies it only when
// every entry is valid, answering with the created transactions.
func (s *Server) handleBulkAdjust(w http.ResponseWriter, r *http.Request) {
	actor, _ := s.currentUser(r)

	var req bulkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return
	}
	if req.Reason == "" {
		req.Reason = "csv"
	}
	if len(req.Adjustments) == 0 {
		httpx.WriteJSON(w, http.StatusBadRequest, fieldErrors{"adjustments": {"This list may not be empty."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	perEntry := make([]fieldErrors, len(req.Adjustments))
	pending := make(map[int64]int)
	failed := false
	for i, adj := range req.Adjustments {
		if adj.Item == nil {
			perEntry[i] = fieldErrors{"item": {"This field is required."}}
			failed = true
			continue
		}
		perEntry[i] = s.checkAdjustment(*adj.Item, adj.Delta, pending)
		if len(perEntry[i]) > 0 {
			failed = true
			continue
		}
		pending[*adj.Item] += *adj.Delta
	}
	if failed {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]any{"adjustments": perEntry})
		return
	}

	txs := make([]transactionJSON, 0, len(req.Adjustments))
	for _, adj := range req.Adjustments {
		txs = append(txs, s.apply(*adj.Item, *adj.Delta, req.Reason, actor))
	}
	httpx.WriteJSON(w, http.StatusCreated, txs)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ids := slices.Sorted(maps.Keys(s.categories))
	all := make([]categoryJSON, 0, len(ids))
	for _, id := range ids {
		c := s.categories[id]
		all = append(all, categoryJSON{ID: c.id, Name: c.name, CreatedAt: c.createdAt, ModifiedAt: c.modifiedAt})
	}
	s.mu.Unlock()

	page, ok := paginate(r, all)
	if !ok {
		httpx.WriteDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}
