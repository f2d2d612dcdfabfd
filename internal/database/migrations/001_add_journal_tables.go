package migrations

import (
	"github.com/tradefolio/journal-api/internal/types"
	"gorm.io/gorm"
)

// AddJournalTables creates the trade journal tables and required indexes
func AddJournalTables(db *gorm.DB) error {
	if err := db.AutoMigrate(&types.TradeRecord{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&types.MatchedTrade{}); err != nil {
		return err
	}

	if err := db.AutoMigrate(&types.OpenPosition{}); err != nil {
		return err
	}

	// Add indexes for better query performance
	// Using raw SQL for index creation to have more control over index types
	indexes := []string{
		// Trade records are always read back per upload in file order
		`CREATE INDEX IF NOT EXISTS idx_trade_records_upload
		 ON trade_records(upload_id, row_index)`,

		// Matched trades are listed per client in exit-time order
		`CREATE INDEX IF NOT EXISTS idx_matched_trades_client_sell_time
		 ON matched_trades(client_id, sell_time)`,

		// Per-symbol analytics queries
		`CREATE INDEX IF NOT EXISTS idx_matched_trades_client_symbol
		 ON matched_trades(client_id, symbol)`,

		// Open position listings per client
		`CREATE INDEX IF NOT EXISTS idx_open_positions_client
		 ON open_positions(client_id, opened_at)`,
	}

	// Execute each index creation
	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
