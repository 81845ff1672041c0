package http

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/siriwatk/bookstore-backend/internal/catalog"
)

type CatalogHandler struct {
	service catalog.Service
}

func NewCatalogHandler(service catalog.Service) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// HandleListBooks serves the public catalog, filtered by optional search and
// category query parameters.
func (h *CatalogHandler) HandleListBooks(w http.ResponseWriter, r *http.Request) {
	filter := catalog.ListFilter{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
	}

	books, err := h.service.ListBooks(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list books")
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch books")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"books": books})
}
