package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/deelab/costcalc/internal/export"
	"github.com/deelab/costcalc/internal/model"
	"github.com/deelab/costcalc/internal/store"
)

// --- Annotation types ---

func (s *Server) handleListAllTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.catalog.All(r.Context())
	if err != nil {
		zap.L().Error("list all annotation types", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if types == nil {
		types = []model.AnnotationType{}
	}
	writeJSON(w, http.StatusOK, types)
}

func validateType(t model.AnnotationType) string {
	switch {
	case strings.TrimSpace(t.ID) == "":
		return "id is required"
	case strings.TrimSpace(t.Name) == "":
		return "name is required"
	case t.Rate <= 0:
		return "rate must be positive"
	case strings.TrimSpace(t.Unit) == "":
		return "unit is required"
	case t.AltRate != nil && *t.AltRate <= 0:
		return "alt_rate must be positive when set"
	case t.AltRate != nil && strings.TrimSpace(t.AltUnit) == "":
		return "alt_unit is required when alt_rate is set"
	}
	return ""
}

func (s *Server) handleCreateType(w http.ResponseWriter, r *http.Request) {
	var t model.AnnotationType
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateType(t); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := s.store.UpsertAnnotationType(r.Context(), t); err != nil {
		zap.L().Error("create annotation type", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateType(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// The row must exist; updates never create.
	existing, err := s.store.GetAnnotationType(r.Context(), id)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "annotation type not found")
			return
		}
		zap.L().Error("get annotation type", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var t model.AnnotationType
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t.ID = id
	t.CreatedAt = existing.CreatedAt
	if msg := validateType(t); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := s.store.UpsertAnnotationType(r.Context(), t); err != nil {
		zap.L().Error("update annotation type", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleToggleType(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	active, err := s.store.ToggleAnnotationType(r.Context(), id)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "annotation type not found")
			return
		}
		zap.L().Error("toggle annotation type", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_active": active})
}

func (s *Server) handleDeleteType(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteAnnotationType(r.Context(), id); err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "annotation type not found")
			return
		}
		zap.L().Error("delete annotation type", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- FAQ ---

func (s *Server) handleListAllFAQ(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListFAQItems(r.Context(), false)
	if err != nil {
		zap.L().Error("list all faq items", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if items == nil {
		items = []model.FAQItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) upsertFAQ(w http.ResponseWriter, r *http.Request, id string) {
	var item model.FAQItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if id != "" {
		item.ID = id
	}
	if strings.TrimSpace(item.Question) == "" || strings.TrimSpace(item.Answer) == "" {
		writeError(w, http.StatusBadRequest, "question and answer are required")
		return
	}
	if err := s.store.UpsertFAQItem(r.Context(), item); err != nil {
		zap.L().Error("upsert faq item", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, item)
}

func (s *Server) handleCreateFAQ(w http.ResponseWriter, r *http.Request) {
	s.upsertFAQ(w, r, "")
}

func (s *Server) handleUpdateFAQ(w http.ResponseWriter, r *http.Request) {
	s.upsertFAQ(w, r, chi.URLParam(r, "id"))
}

func (s *Server) handleToggleFAQ(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	active, err := s.store.ToggleFAQItem(r.Context(), id)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "faq item not found")
			return
		}
		zap.L().Error("toggle faq item", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_active": active})
}

func (s *Server) handleDeleteFAQ(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteFAQItem(r.Context(), id); err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "faq item not found")
			return
		}
		zap.L().Error("delete faq item", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleReorderFAQ(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids are required")
		return
	}
	if err := s.store.ReorderFAQItems(r.Context(), req.IDs); err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown faq item in ids")
			return
		}
		zap.L().Error("reorder faq items", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- Settings ---

func (s *Server) handlePutSetting(key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(http.MaxBytesReader(w, r.Body, 1<<20)); err != nil {
			writeError(w, http.StatusBadRequest, "cannot read body")
			return
		}
		if !json.Valid(buf.Bytes()) {
			writeError(w, http.StatusBadRequest, "body must be valid JSON")
			return
		}
		if err := s.store.SetSetting(r.Context(), key, buf.Bytes()); err != nil {
			zap.L().Error("set setting", zap.String("key", key), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// --- Quotes ---

func parseQuoteFilter(r *http.Request) store.QuoteFilter {
	q := r.URL.Query()
	filter := store.QuoteFilter{Search: q.Get("q")}
	if since := q.Get("since"); since != "" {
		if t, err := time.Parse(time.RFC3339, since); err == nil {
			filter.Since = t
		}
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil {
		filter.Offset = offset
	}
	return filter
}

func (s *Server) handleListQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.store.ListQuotes(r.Context(), parseQuoteFilter(r))
	if err != nil {
		zap.L().Error("list quotes", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if quotes == nil {
		quotes = []model.QuoteRequest{}
	}
	writeJSON(w, http.StatusOK, quotes)
}

func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := s.store.GetQuote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "quote request not found")
			return
		}
		zap.L().Error("get quote", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleDeleteQuote(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteQuote(r.Context(), chi.URLParam(r, "id")); err != nil {
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "quote request not found")
			return
		}
		zap.L().Error("delete quote", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleExportQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.store.ListQuotes(r.Context(), parseQuoteFilter(r))
	if err != nil {
		zap.L().Error("export quotes", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename=%q`, export.Filename("csv")))
		if err := export.WriteCSV(w, quotes); err != nil {
			zap.L().Error("write csv export", zap.Error(err))
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename=%q`, export.Filename("xlsx")))
		if err := export.WriteXLSX(w, quotes); err != nil {
			zap.L().Error("write xlsx export", zap.Error(err))
		}
	default:
		writeError(w, http.StatusBadRequest, "format must be csv or xlsx")
	}
}
