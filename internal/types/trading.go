package types

import (
	"time"

	"gorm.io/gorm"
)

const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// TradeRow is a normalized trade event produced by the importer. It is a
// plain value, immutable once parsed, and the unit of input for the matcher.
type TradeRow struct {
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"` // BUY or SELL
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	Amount    float64   `json:"amount"` // defaults to Quantity*Price when absent from source
	Timestamp time.Time `json:"timestamp"`
}

// TradeRecord is the persisted form of a TradeRow, scoped to a client and
// the upload it came from. RowIndex preserves original file order so the
// matcher's tie-break stays reproducible.
type TradeRecord struct {
	gorm.Model `json:"-"`
	RecordID   string    `gorm:"uniqueIndex" json:"record_id"`
	UploadID   string    `json:"upload_id"`
	ClientID   string    `json:"client_id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	Amount     float64   `json:"amount"`
	RowIndex   int       `json:"row_index"`
	ExecutedAt time.Time `json:"executed_at"`
}

// MatchedTrade is a closed round trip produced by pairing a BUY lot against
// a SELL lot for the same symbol. Append-only once persisted.
type MatchedTrade struct {
	gorm.Model  `json:"-"`
	TradeID     string    `gorm:"uniqueIndex" json:"trade_id"`
	UploadID    string    `json:"upload_id"`
	ClientID    string    `json:"client_id"`
	Symbol      string    `json:"symbol"`
	Quantity    float64   `json:"quantity"`
	BuyPrice    float64   `json:"buy_price"`
	SellPrice   float64   `json:"sell_price"`
	BuyTime     time.Time `json:"buy_time"`
	SellTime    time.Time `json:"sell_time"`
	PnL         float64   `json:"pnl"`
	PnLPct      float64   `json:"pnl_pct"`
	HoldSeconds int64     `json:"hold_seconds"`
}

// OpenPosition is the unmatched remainder of a lot after a matching pass.
type OpenPosition struct {
	gorm.Model        `json:"-"`
	PositionID        string    `gorm:"uniqueIndex" json:"position_id"`
	UploadID          string    `json:"upload_id"`
	ClientID          string    `json:"client_id"`
	Symbol            string    `json:"symbol"`
	Side              string    `json:"side"`
	RemainingQuantity float64   `json:"remaining_quantity"`
	Price             float64   `json:"price"`
	OpenedAt          time.Time `json:"opened_at"`
	ManuallyClosed    bool      `json:"manually_closed"`
	IsInvestment      bool      `json:"is_investment"`
	Notes             string    `json:"notes"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
