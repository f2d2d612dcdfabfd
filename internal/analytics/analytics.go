package analytics

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tradefolio/journal-api/internal/auth"
	"github.com/tradefolio/journal-api/internal/matching"
	"github.com/tradefolio/journal-api/pkg/response"
	"gorm.io/gorm"
)

// Service computes on-demand performance reports over a client's stored
// matched trades.
type Service struct {
	trades *matching.Database
}

// NewService creates a new analytics service with the given database connection.
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		trades: matching.NewDatabase(gormDB),
	}
}

// Summary builds the aggregate performance report. Trades come back from
// the store in chronological exit order, which the drawdown walk needs.
func (s *Service) Summary(clientID string) (*PerformanceReport, error) {
	trades, err := s.trades.ListMatchedTrades(clientID)
	if err != nil {
		return nil, err
	}

	report := Summarize(trades)
	log.Debug().
		Str("client_id", clientID).
		Int("total_trades", report.TotalTrades).
		Float64("net_profit", report.NetProfit).
		Msg("computed performance summary")

	return report, nil
}

// Symbols builds the per-symbol reports.
func (s *Service) Symbols(clientID string) ([]SymbolReport, error) {
	trades, err := s.trades.ListMatchedTrades(clientID)
	if err != nil {
		return nil, err
	}
	return BySymbol(trades), nil
}

// GinHandlers contains HTTP handlers for analytics endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for analytics endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// SummaryHandler handles GET requests for the aggregate performance report.
func (h *GinHandlers) SummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := clientIDFromContext(c)
		if clientID == "" {
			response.Unauthorized(c, "Invalid client ID in token")
			return
		}

		report, err := h.service.Summary(clientID)
		response.Handle(c, report, err)
	}
}

// SymbolsHandler handles GET requests for per-symbol reports.
func (h *GinHandlers) SymbolsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := clientIDFromContext(c)
		if clientID == "" {
			response.Unauthorized(c, "Invalid client ID in token")
			return
		}

		reports, err := h.service.Symbols(clientID)
		response.Handle(c, reports, err)
	}
}

func clientIDFromContext(c *gin.Context) string {
	claims, exists := c.Get("claims")
	if !exists {
		return ""
	}
	return auth.GetClientID(claims)
}
