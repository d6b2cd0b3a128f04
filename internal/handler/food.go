package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sakif/pantry/internal/apperror"
	"github.com/sakif/pantry/internal/model"
	"github.com/sakif/pantry/internal/service"
)

// FoodHandler serves the food item and filter endpoints.
type FoodHandler struct {
	svc    *service.FoodService
	logger *slog.Logger
}

// NewFoodHandler creates a new FoodHandler.
func NewFoodHandler(svc *service.FoodService, logger *slog.Logger) *FoodHandler {
	return &FoodHandler{svc: svc, logger: logger}
}

// ItemResponse is a food item plus the fields derived from its expiration date.
type ItemResponse struct {
	model.FoodItem
	Status         model.Status `json:"status"`
	DaysRemaining  *int         `json:"daysRemaining"`
	ExpirationText string       `json:"expirationText"`
}

func toItemResponse(item model.FoodItem, now time.Time) ItemResponse {
	resp := ItemResponse{
		FoodItem:       item,
		Status:         item.Status(now),
		ExpirationText: model.ExpirationText(item.ExpirationDate, now),
	}
	if days, ok := model.DaysUntilExpiration(item.ExpirationDate, now); ok {
		resp.DaysRemaining = &days
	}
	return resp
}

func toItemResponses(items []model.FoodItem, now time.Time) []ItemResponse {
	out := make([]ItemResponse, len(items))
	for i, item := range items {
		out[i] = toItemResponse(item, now)
	}
	return out
}

// FeedResponse is the list view.
type FeedResponse struct {
	service.Feed
	Items []ItemResponse `json:"items"`
}

// MessageResponse pairs a result with a user-facing message.
type MessageResponse struct {
	Item    *ItemResponse `json:"item,omitempty"`
	Outcome string        `json:"outcome,omitempty"`
	Message string        `json:"message"`
}

type filtersRequest struct {
	Category *string `json:"category"`
	Search   *string `json:"search"`
}

func (h *FoodHandler) writeFeed(w http.ResponseWriter, r *http.Request) {
	feed := h.svc.Feed(r.Context())
	writeJSON(w, http.StatusOK, FeedResponse{
		Feed:  feed,
		Items: toItemResponses(feed.Items, h.svc.Now()),
	})
}

// HandleList returns the filtered displayed items and the loading state.
//
// HTTP: GET /api/food-items
func (h *FoodHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.writeFeed(w, r)
}

// HandleCreate adds a new item at the front of the list.
//
// HTTP: POST /api/food-items
// REQUEST BODY: {"name":"Gạo","quantity":2,"unit":"kg","category":"Đồ khô","expirationDate":"2026-04-01","imageUrl":null}
func (h *FoodHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	item, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := toItemResponse(item, h.svc.Now())
	writeJSON(w, http.StatusCreated, MessageResponse{Item: &resp, Message: model.MsgCreated})
}

// HandleExpiring lists displayed items that are expiring soon or expired.
//
// HTTP: GET /api/food-items/expiring?days=7
func (h *FoodHandler) HandleExpiring(w http.ResponseWriter, r *http.Request) {
	days := model.ExpirationThresholdDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, apperror.ValidationFailed("days", "days must be a non-negative integer"))
			return
		}
		days = n
	}
	items := h.svc.Expiring(r.Context(), days)
	writeJSON(w, http.StatusOK, toItemResponses(items, h.svc.Now()))
}

// HandleNextPage loads one more page, then returns the list view.
//
// HTTP: POST /api/food-items/next-page
func (h *FoodHandler) HandleNextPage(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.FetchNextPage(r.Context()); err != nil {
		h.logger.Error("failed to load next page", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	h.writeFeed(w, r)
}

// HandleRefetch reloads the first page.
//
// HTTP: POST /api/food-items/refetch
func (h *FoodHandler) HandleRefetch(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Refetch(r.Context()); err != nil {
		h.logger.Error("failed to refetch", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	h.writeFeed(w, r)
}

// HandleGet returns one displayed item.
//
// HTTP: GET /api/food-items/{id}
func (h *FoodHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(item, h.svc.Now()))
}

// HandleUpdate applies a partial edit. A key set to null clears
// expirationDate or imageUrl; an absent key leaves it alone.
//
// HTTP: PATCH /api/food-items/{id}
func (h *FoodHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	item, err := h.svc.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := toItemResponse(item, h.svc.Now())
	writeJSON(w, http.StatusOK, MessageResponse{Item: &resp, Message: model.MsgUpdated})
}

// HandleDelete runs the delete flow. The client has already asked the user,
// so confirm defaults to true; ?confirm=false records a cancellation.
//
// HTTP: DELETE /api/food-items/{id}?confirm=false
func (h *FoodHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	confirmed := true
	if raw := r.URL.Query().Get("confirm"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, apperror.ValidationFailed("confirm", "confirm must be true or false"))
			return
		}
		confirmed = v
	}

	confirmer := service.ConfirmFunc(func(_ context.Context, _ string, _ model.FoodItem) (bool, error) {
		return confirmed, nil
	})

	outcome, err := h.svc.Delete(r.Context(), r.PathValue("id"), confirmer)
	if err != nil {
		writeError(w, err)
		return
	}
	if outcome == service.DeleteCancelled {
		writeJSON(w, http.StatusOK, MessageResponse{Outcome: string(outcome)})
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Outcome: string(outcome), Message: model.MsgDeleted})
}

// HandleSetFilters replaces both filters and reloads the first page.
//
// HTTP: PUT /api/filters
// REQUEST BODY: {"category":"Rau củ","search":null}
func (h *FoodHandler) HandleSetFilters(w http.ResponseWriter, r *http.Request) {
	var req filtersRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.ApplyFilters(r.Context(), req.Category, req.Search); err != nil {
		writeError(w, err)
		return
	}
	h.writeFeed(w, r)
}

// HandleClearFilters removes both filters and reloads the first page.
//
// HTTP: DELETE /api/filters
func (h *FoodHandler) HandleClearFilters(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ResetFilters(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.writeFeed(w, r)
}
