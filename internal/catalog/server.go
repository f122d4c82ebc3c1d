package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// NewServer exposes a Catalog with the json-server routes HTTPClient reads.
func NewServer(c Catalog, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Get("/stock/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		stock, err := c.Stock(r.Context(), id)
		writeLookup(w, logger, stock, err)
	})
	r.Get("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		product, err := c.Product(r.Context(), id)
		writeLookup(w, logger, product, err)
	})
	return r
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, `{}`, http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func writeLookup(w http.ResponseWriter, logger *slog.Logger, v any, err error) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case errors.Is(err, ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{}`))
		return
	case err != nil:
		logger.Error("catalog lookup failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{}`))
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
