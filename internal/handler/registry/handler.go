package registry

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docsmithhq/backend/internal/model/document"
	"github.com/docsmithhq/backend/pkg/utils"
)

// Handler exposes the document category registry over HTTP.
type Handler struct{}

// New creates a registry handler.
func New() *Handler {
	return &Handler{}
}

// RegisterRoutes registers registry routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.handleListCategories)
	r.Get("/categories/{category}/fields", h.handleCategoryFields)
}

type categoryInfo struct {
	Category document.Category `json:"category"`
	Keywords []string          `json:"keywords"`
	Fields   []string          `json:"fields"`
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories := document.Categories()

	infos := make([]categoryInfo, 0, len(categories))
	for _, c := range categories {
		infos = append(infos, categoryInfo{
			Category: c,
			Keywords: document.Keywords(c),
			Fields:   document.FieldsFor(c),
		})
	}

	utils.RespondJSON(w, http.StatusOK, infos)
}

func (h *Handler) handleCategoryFields(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "category")
	category := document.Category(name)

	found := false
	for _, c := range document.Categories() {
		if c == category {
			found = true
			break
		}
	}
	if !found {
		utils.RespondError(w, http.StatusNotFound, "unknown category")
		return
	}

	utils.RespondJSON(w, http.StatusOK, categoryInfo{
		Category: category,
		Keywords: document.Keywords(category),
		Fields:   document.FieldsFor(category),
	})
}
