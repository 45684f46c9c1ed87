package http

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fjod/plantshop/internal/cart"
	"github.com/fjod/plantshop/internal/catalog"
	"github.com/fjod/plantshop/internal/logging"
)

type Catalog interface {
	All() []catalog.Plant
	Get(id int64) (catalog.Plant, error)
	Categories() []string
	ByCategory(category string) []catalog.Plant
	LineFor(id int64) (cart.AddItem, error)
}

type CatalogHandler struct {
	catalog Catalog
	logger  *zap.Logger
}

func NewCatalogHandler(c Catalog, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: c, logger: logging.OrNop(logger)}
}

type PlantsResponse struct {
	Plants   []catalog.Plant `json:"plants"`
	Category string          `json:"category,omitempty"`
}

// GET /api/v1/plants
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if !slices.Contains(h.catalog.Categories(), category) {
		// unknown categories fall back to everything
		category = ""
	}
	plants := h.catalog.ByCategory(category)
	respondJSON(w, h.logger, http.StatusOK, PlantsResponse{Plants: plants, Category: category})
}

// GET /api/v1/plants/{id}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, h.logger, r, "id")
	if !ok {
		return
	}
	plant, err := h.catalog.Get(id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, plant)
}

// GET /api/v1/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, map[string][]string{"categories": h.catalog.Categories()})
}

func pathID(w http.ResponseWriter, logger *zap.Logger, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, logger, http.StatusBadRequest, "invalid_"+param, param+" must be a positive integer")
		return 0, false
	}
	return id, true
}
