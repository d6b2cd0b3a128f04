// Package handler contains the HTTP handlers of the pantry API.
//
// Handlers parse the request, call the service layer and write the response.
// They hold no business rules; those live in internal/service.
package handler

import (
	"net/http"

	"github.com/sakif/pantry/internal/model"
)

// MetaResponse carries the static values a client needs to render forms
// and labels.
type MetaResponse struct {
	Categories        []string                `json:"categories"`
	Units             []string                `json:"units"`
	StatusLabels      map[model.Status]string `json:"statusLabels"`
	ThresholdDays     int                     `json:"expirationThresholdDays"`
	DefaultFormValues model.FormValues        `json:"defaultFormValues"`
	PageSize          int                     `json:"pageSize"`
	MaxImageSizeBytes int                     `json:"maxImageSizeBytes"`
	EmptyState        emptyState              `json:"emptyState"`
}

type emptyState struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HandleMeta returns categories, units, status labels and form defaults.
//
// HTTP: GET /api/meta
func (h *FoodHandler) HandleMeta(w http.ResponseWriter, r *http.Request) {
	feed := h.svc.Feed(r.Context())
	writeJSON(w, http.StatusOK, MetaResponse{
		Categories:        model.Categories,
		Units:             model.Units,
		StatusLabels:      model.StatusLabels,
		ThresholdDays:     model.ExpirationThresholdDays,
		DefaultFormValues: model.DefaultFormValues(h.svc.Now()),
		PageSize:          feed.PageSize,
		MaxImageSizeBytes: model.MaxImageSizeBytes,
		EmptyState: emptyState{
			Title:       model.MsgEmptyInventoryTitle,
			Description: model.MsgEmptyInventoryDescribe,
		},
	})
}

// HandleHealth is a liveness probe.
//
// HTTP: GET /healthz
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
