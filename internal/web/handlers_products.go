package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"inventario/internal/core"
	"inventario/internal/logging"
	webmw "inventario/internal/web/middleware"
)

// listResponse is the envelope for paginated collections.
type listResponse struct {
	Total int64 `json:"total"`
	Skip  int   `json:"skip"`
	Limit int   `json:"limit"`
	Items any   `json:"items"`
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.BadRequest("ID inválido: %s", raw)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter, falling back to
// def when absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func queryFloatPtr(r *http.Request, name string) *float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func queryIntPtr(r *http.Request, name string) *int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &v
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	filter := core.ProductFilter{
		Categoria: r.URL.Query().Get("categoria"),
		Nombre:    r.URL.Query().Get("nombre"),
		PrecioMin: queryFloatPtr(r, "precio_min"),
		PrecioMax: queryFloatPtr(r, "precio_max"),
		StockMin:  queryIntPtr(r, "stock_min"),
	}
	filter.Skip, filter.Limit = s.service.PageBounds(queryInt(r, "skip", 0), queryInt(r, "limit", 0))

	items, total, err := s.service.ListProducts(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse{
		Total: total,
		Skip:  filter.Skip,
		Limit: filter.Limit,
		Items: items,
	})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	p, err := s.service.GetProduct(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var in core.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.respondError(w, r, core.BadRequest("cuerpo JSON inválido"))
		return
	}

	p, err := s.service.CreateProduct(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("product created",
		"product_id", p.ID,
		"user", webmw.CurrentUser(r.Context()),
	)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var u core.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		s.respondError(w, r, core.BadRequest("cuerpo JSON inválido"))
		return
	}

	p, err := s.service.UpdateProduct(r.Context(), id, u)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.service.DeleteProduct(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("product deleted",
		"product_id", id,
		"user", webmw.CurrentUser(r.Context()),
	)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Producto eliminado exitosamente",
	})
}
