package server

import (
	"encoding/json"
	"math"
	"net/http"
	"net/mail"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/deelab/costcalc/internal/model"
	"github.com/deelab/costcalc/internal/pricing"
)

// round2 is presentation rounding; the engine itself stays at full
// float64 precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *Server) handleListActiveTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.catalog.Active(r.Context())
	if err != nil {
		zap.L().Error("list annotation types", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if types == nil {
		types = []model.AnnotationType{}
	}

	// Admin edits must show up immediately on the calculator page.
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	writeJSON(w, http.StatusOK, types)
}

func (s *Server) handleListActiveFAQ(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListFAQItems(r.Context(), true)
	if err != nil {
		zap.L().Error("list faq items", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if items == nil {
		items = []model.FAQItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetSetting(key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value, err := s.store.GetSetting(r.Context(), key)
		if err != nil {
			zap.L().Error("get setting", zap.String("key", key), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if value == nil {
			value = []byte(settingDefaults[key])
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(value) //nolint:errcheck
	}
}

type estimateRequest struct {
	Selections []pricing.SelectionInput `json:"selections"`
}

type estimateItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	AltQuantity float64 `json:"alt_quantity,omitempty"`
	Cost        float64 `json:"cost"`
	Calculation string  `json:"calculation"`
}

type estimateResponse struct {
	Items []estimateItem `json:"items"`
	Total float64        `json:"total"`
}

// computeEstimate replays the wire selections against the active
// catalog and prices them.
func (s *Server) computeEstimate(r *http.Request, selections []pricing.SelectionInput) (*estimateResponse, []pricing.LineItem, error) {
	types, err := s.catalog.Active(r.Context())
	if err != nil {
		return nil, nil, err
	}

	state := pricing.BuildSelection(types, selections)
	items, err := pricing.ComputeBreakdown(types, state)
	if err != nil {
		return nil, nil, err
	}

	resp := &estimateResponse{Items: make([]estimateItem, 0, len(items))}
	var total float64
	for _, item := range items {
		total += item.Cost
		resp.Items = append(resp.Items, estimateItem{
			ID:          item.Type.ID,
			Name:        item.Type.Name,
			Quantity:    item.EffectiveQuantity,
			AltQuantity: item.AltQuantity,
			Cost:        round2(item.Cost),
			Calculation: item.CalculationLabel,
		})
	}
	resp.Total = round2(total)
	return resp, items, nil
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, _, err := s.computeEstimate(r, req.Selections)
	if err != nil {
		var integrity *pricing.CatalogIntegrityError
		if eris.As(err, &integrity) {
			writeError(w, http.StatusUnprocessableEntity, integrity.Error())
			return
		}
		zap.L().Error("compute estimate", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type quoteRequestBody struct {
	Name       string                   `json:"name"`
	Email      string                   `json:"email"`
	Company    string                   `json:"company"`
	Message    string                   `json:"message"`
	Selections []pricing.SelectionInput `json:"selections"`
}

func (s *Server) handleQuoteRequest(w http.ResponseWriter, r *http.Request) {
	if !s.quotes.Allow(r.RemoteAddr) {
		writeError(w, http.StatusTooManyRequests, "too many quote requests, try again later")
		return
	}

	var req quoteRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Selections) == 0 {
		writeError(w, http.StatusBadRequest, "at least one selected type is required")
		return
	}

	// The snapshot and total are recomputed here; any client-side
	// numbers in the request body are ignored.
	_, items, err := s.computeEstimate(r, req.Selections)
	if err != nil {
		var integrity *pricing.CatalogIntegrityError
		if eris.As(err, &integrity) {
			writeError(w, http.StatusUnprocessableEntity, integrity.Error())
			return
		}
		zap.L().Error("compute quote", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(items) == 0 {
		writeError(w, http.StatusBadRequest, "no selected type matches the current catalog")
		return
	}

	quote := model.QuoteRequest{
		Name:    req.Name,
		Email:   req.Email,
		Company: strings.TrimSpace(req.Company),
		Message: strings.TrimSpace(req.Message),
	}
	for _, item := range items {
		quote.TotalCost += item.Cost
		quote.SelectedTypes = append(quote.SelectedTypes, model.SelectedTypeSnapshot{
			ID:       item.Type.ID,
			Name:     item.Type.Name,
			Quantity: item.EffectiveQuantity,
			Cost:     item.Cost,
		})
	}

	created, err := s.store.CreateQuote(r.Context(), quote)
	if err != nil {
		zap.L().Error("create quote", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	zap.L().Info("quote request received",
		zap.String("id", created.ID),
		zap.String("email", created.Email),
		zap.Float64("total", round2(created.TotalCost)),
	)
	writeJSON(w, http.StatusCreated, map[string]string{"id": created.ID})
}
