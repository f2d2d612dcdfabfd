package matching

import (
	"errors"

	"github.com/tradefolio/journal-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// ListMatchedTrades returns the client's matched trades in chronological
// exit order. Analytics relies on this ordering for drawdown.
func (d *Database) ListMatchedTrades(clientID string) ([]types.MatchedTrade, error) {
	var trades []types.MatchedTrade
	if err := d.db.Where("client_id = ?", clientID).Order("sell_time asc, id asc").Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

func (d *Database) ListOpenPositions(clientID string) ([]types.OpenPosition, error) {
	var positions []types.OpenPosition
	if err := d.db.Where("client_id = ?", clientID).Order("opened_at asc, id asc").Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

func (d *Database) GetPositionByIDAndClientID(positionID, clientID string) (*types.OpenPosition, error) {
	var position types.OpenPosition
	if err := d.db.Where("position_id = ? AND client_id = ?", positionID, clientID).First(&position).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &position, nil
}

func (d *Database) UpdatePosition(position *types.OpenPosition) error {
	return d.db.Save(position).Error
}

func (d *Database) DeletePosition(position *types.OpenPosition) error {
	return d.db.Delete(position).Error
}
