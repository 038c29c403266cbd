package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bobmcallan/cnstock/internal/common"
	"github.com/bobmcallan/cnstock/internal/interfaces"
	"github.com/bobmcallan/cnstock/internal/models"
	"github.com/bobmcallan/cnstock/internal/services/market"
)

// handleGetStockData handles GET /get_stock_data.
// Validation failures are 400; everything else is 500.
func (s *Server) handleGetStockData(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	req := interfaces.StockDataRequest{
		Symbol:     strings.TrimSpace(q.Get("symbol")),
		StartDate:  q.Get("start_date"),
		EndDate:    q.Get("end_date"),
		SortColumn: q.Get("sort_column"),
		SortOrder:  q.Get("sort_order"),
	}

	if req.Symbol == "" {
		WriteKindError(w, http.StatusBadRequest, common.ValidationError("symbol", "symbol is required"))
		return
	}
	for _, p := range [][2]string{{"start_date", req.StartDate}, {"end_date", req.EndDate}} {
		if _, err := market.ParseDate(p[0], p[1]); err != nil {
			WriteKindError(w, http.StatusBadRequest, err)
			return
		}
	}
	if _, _, err := market.NormalizeSort(req.SortColumn, req.SortOrder); err != nil {
		WriteKindError(w, http.StatusBadRequest, err)
		return
	}

	report, err := s.app.MarketService.GetStockData(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if common.IsKind(err, common.KindValidation) {
			status = http.StatusBadRequest
		}
		WriteKindError(w, status, err)
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// handleGetFinancialReport handles GET /get_financial_report.
// Every failure, a missing symbol or an unreadable file included, is 404.
func (s *Server) handleGetFinancialReport(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
	report, err := s.app.FundamentalsService.GetFinancialReport(r.Context(), symbol)
	if err != nil {
		WriteKindError(w, http.StatusNotFound, err)
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// screenParams are the required /get_filtered_stocks body keys.
var screenParams = []string{"roe", "gross_margin", "net_profit"}

// handleGetFilteredStocks handles POST /get_filtered_stocks.
// Missing or non-numeric parameters are 400; every other failure is 500.
func (s *Server) handleGetFilteredStocks(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var body map[string]json.RawMessage
	if !DecodeJSON(w, r, &body) {
		return
	}

	criteria, err := parseScreenCriteria(body)
	if err != nil {
		WriteKindError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.app.FundamentalsService.FilterStocks(r.Context(), criteria)
	if err != nil {
		status := http.StatusInternalServerError
		if common.IsKind(err, common.KindValidation) {
			status = http.StatusBadRequest
		}
		WriteKindError(w, status, err)
		return
	}

	WriteJSONUTF8(w, http.StatusOK, result)
}

// parseScreenCriteria reads the three thresholds. Each may be a JSON number or a numeric string.
func parseScreenCriteria(body map[string]json.RawMessage) (models.ScreenCriteria, error) {
	var vals [3]float64
	for i, key := range screenParams {
		raw, ok := body[key]
		if !ok {
			return models.ScreenCriteria{}, common.ValidationError(key, "missing required parameter: %s", key)
		}
		v, err := parseNumber(raw)
		if err != nil {
			return models.ScreenCriteria{}, common.ValidationError(key, "invalid parameter format: %s must be a number", key)
		}
		vals[i] = v
	}
	return models.ScreenCriteria{MinROE: vals[0], MinGrossMargin: vals[1], MinNetProfit: vals[2]}, nil
}

func parseNumber(raw json.RawMessage) (float64, error) {
	if strings.TrimSpace(string(raw)) == "null" {
		return 0, fmt.Errorf("null is not a number")
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
