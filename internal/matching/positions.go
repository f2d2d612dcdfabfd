package matching

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tradefolio/journal-api/internal/auth"
	"github.com/tradefolio/journal-api/internal/types"
	"github.com/tradefolio/journal-api/pkg/response"
	"gorm.io/gorm"
)

var (
	ErrPositionNotFound = errors.New("position not found")
	ErrPositionOpen     = errors.New("position must be manually closed before deletion")
)

// Service handles matched trade queries and open position lifecycle.
type Service struct {
	db *Database
}

// NewService creates a new matching service with the given database connection.
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

func (s *Service) ListTrades(clientID string) ([]types.MatchedTrade, error) {
	return s.db.ListMatchedTrades(clientID)
}

func (s *Service) ListPositions(clientID string) ([]types.OpenPosition, error) {
	return s.db.ListOpenPositions(clientID)
}

// ClosePosition flags a position as manually closed. No quantity
// resolution happens; the lot simply stops counting as open.
func (s *Service) ClosePosition(clientID, positionID string) (*types.OpenPosition, error) {
	return s.setClosed(clientID, positionID, true)
}

// ReopenPosition clears the manual-close flag.
func (s *Service) ReopenPosition(clientID, positionID string) (*types.OpenPosition, error) {
	return s.setClosed(clientID, positionID, false)
}

func (s *Service) setClosed(clientID, positionID string, closed bool) (*types.OpenPosition, error) {
	position, err := s.db.GetPositionByIDAndClientID(positionID, clientID)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, ErrPositionNotFound
	}

	position.ManuallyClosed = closed
	position.UpdatedAt = time.Now()
	if err := s.db.UpdatePosition(position); err != nil {
		return nil, err
	}

	log.Info().
		Str("position_id", position.PositionID).
		Bool("manually_closed", closed).
		Msg("position close flag updated")

	return position, nil
}

// PositionUpdate carries the caller-mutable annotation fields.
type PositionUpdate struct {
	Notes        *string `json:"notes"`
	IsInvestment *bool   `json:"is_investment"`
}

// AnnotatePosition updates notes and the investment flag. Nil fields are
// left untouched.
func (s *Service) AnnotatePosition(clientID, positionID string, update PositionUpdate) (*types.OpenPosition, error) {
	position, err := s.db.GetPositionByIDAndClientID(positionID, clientID)
	if err != nil {
		return nil, err
	}
	if position == nil {
		return nil, ErrPositionNotFound
	}

	if update.Notes != nil {
		position.Notes = *update.Notes
	}
	if update.IsInvestment != nil {
		position.IsInvestment = *update.IsInvestment
	}
	position.UpdatedAt = time.Now()

	if err := s.db.UpdatePosition(position); err != nil {
		return nil, err
	}
	return position, nil
}

// DeletePosition removes a position. Only manually closed positions may be
// deleted.
func (s *Service) DeletePosition(clientID, positionID string) error {
	position, err := s.db.GetPositionByIDAndClientID(positionID, clientID)
	if err != nil {
		return err
	}
	if position == nil {
		return ErrPositionNotFound
	}
	if !position.ManuallyClosed {
		return ErrPositionOpen
	}
	return s.db.DeletePosition(position)
}

// GinHandlers contains HTTP handlers for trade and position endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for trade and position endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// ListTradesHandler handles GET requests for the client's matched trades.
func (h *GinHandlers) ListTradesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := clientIDFromContext(c)
		if clientID == "" {
			response.Unauthorized(c, "Invalid client ID in token")
			return
		}

		trades, err := h.service.ListTrades(clientID)
		response.Handle(c, trades, err)
	}
}

// ListPositionsHandler handles GET requests for the client's open positions.
func (h *GinHandlers) ListPositionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := clientIDFromContext(c)
		if clientID == "" {
			response.Unauthorized(c, "Invalid client ID in token")
			return
		}

		positions, err := h.service.ListPositions(clientID)
		response.Handle(c, positions, err)
	}
}

// ClosePositionHandler handles POST requests to flag a position closed.
func (h *GinHandlers) ClosePositionHandler() gin.HandlerFunc {
	return h.closeHandler(true)
}

// ReopenPositionHandler handles POST requests to clear the close flag.
func (h *GinHandlers) ReopenPositionHandler() gin.HandlerFunc {
	return h.closeHandler(false)
}

func (h *GinHandlers) closeHandler(closed bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := clientIDFromContext(c)
		if clientID == "" {
			response.Unauthorized(c, "Invalid client ID in token")
			return
		}

		positionID := c.Param("position_id")
		var position *types.OpenPosition
		var err error
		if closed {
			position, err = h.service.ClosePosition(clientID, positionID)
		} else {
			position, err = h.service.ReopenPosition(clientID, positionID)
		}
		if errors.Is(err, ErrPositionNotFound) {
			response.NotFound(c, "Position not found")
			return
		}
		response.Handle(c, position, err)
	}
}

// AnnotatePositionHandler handles PATCH requests for notes and the
// investment flag.
func (h *GinHandlers) AnnotatePositionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := clientIDFromContext(c)
		if clientID == "" {
			response.Unauthorized(c, "Invalid client ID in token")
			return
		}

		var update PositionUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		position, err := h.service.AnnotatePosition(clientID, c.Param("position_id"), update)
		if errors.Is(err, ErrPositionNotFound) {
			response.NotFound(c, "Position not found")
			return
		}
		response.Handle(c, position, err)
	}
}

// DeletePositionHandler handles DELETE requests. Open positions are
// rejected until manually closed.
func (h *GinHandlers) DeletePositionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := clientIDFromContext(c)
		if clientID == "" {
			response.Unauthorized(c, "Invalid client ID in token")
			return
		}

		err := h.service.DeletePosition(clientID, c.Param("position_id"))
		switch {
		case errors.Is(err, ErrPositionNotFound):
			response.NotFound(c, "Position not found")
		case errors.Is(err, ErrPositionOpen):
			response.BadRequest(c, err.Error())
		default:
			response.Handle(c, gin.H{"deleted": err == nil}, err)
		}
	}
}

func clientIDFromContext(c *gin.Context) string {
	claims, exists := c.Get("claims")
	if !exists {
		return ""
	}
	return auth.GetClientID(claims)
}
