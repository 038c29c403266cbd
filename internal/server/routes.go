package server

import (
	"net/http"
	"os"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/cnstock/internal/common"
)

// registerRoutes sets up all routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Data
	mux.HandleFunc("/get_stock_data", s.handleGetStockData)
	mux.HandleFunc("/get_financial_report", s.handleGetFinancialReport)
	mux.HandleFunc("/get_filtered_stocks", s.handleGetFilteredStocks)

	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// MCP (streamable HTTP, stateless)
	if s.app.MCPServer != nil {
		mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(s.app.MCPServer, mcpserver.WithStateLess(true)))
	}

	// Front end
	if dir := s.app.Config.Server.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			mux.Handle("/", http.FileServer(http.Dir(dir)))
			return
		}
		s.logger.Warn().Str("path", dir).Msg("Static directory not found, front end disabled")
	}
	mux.HandleFunc("/", s.handleNotFound)
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"symbols": s.symbolCount(),
		"uptime":  time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, "Not found")
}

func (s *Server) symbolCount() int {
	if s.app.Symbols == nil {
		return 0
	}
	return s.app.Symbols.Len()
}
