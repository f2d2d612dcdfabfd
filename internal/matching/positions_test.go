package matching

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tradefolio/journal-api/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := db.AutoMigrate(&types.MatchedTrade{}, &types.OpenPosition{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedPosition(t *testing.T, db *gorm.DB, positionID, clientID string) {
	t.Helper()
	position := &types.OpenPosition{
		PositionID:        positionID,
		ClientID:          clientID,
		Symbol:            "AAPL",
		Side:              types.SideBuy,
		RemainingQuantity: 40,
		Price:             10,
		OpenedAt:          time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
	}
	if err := db.Create(position).Error; err != nil {
		t.Fatalf("seed position: %v", err)
	}
}

func TestPositionCloseReopen(t *testing.T) {
	db := testDB(t)
	service := NewService(db)
	seedPosition(t, db, "pos-1", "client-1")

	position, err := service.ClosePosition("client-1", "pos-1")
	if err != nil {
		t.Fatalf("ClosePosition: %v", err)
	}
	if !position.ManuallyClosed {
		t.Fatal("expected position to be flagged closed")
	}

	position, err = service.ReopenPosition("client-1", "pos-1")
	if err != nil {
		t.Fatalf("ReopenPosition: %v", err)
	}
	if position.ManuallyClosed {
		t.Fatal("expected close flag cleared")
	}
}

func TestPositionDeleteRequiresManualClose(t *testing.T) {
	db := testDB(t)
	service := NewService(db)
	seedPosition(t, db, "pos-1", "client-1")

	if err := service.DeletePosition("client-1", "pos-1"); !errors.Is(err, ErrPositionOpen) {
		t.Fatalf("expected ErrPositionOpen, got %v", err)
	}

	if _, err := service.ClosePosition("client-1", "pos-1"); err != nil {
		t.Fatalf("ClosePosition: %v", err)
	}
	if err := service.DeletePosition("client-1", "pos-1"); err != nil {
		t.Fatalf("DeletePosition after close: %v", err)
	}

	positions, err := service.ListPositions("client-1")
	if err != nil {
		t.Fatalf("ListPositions: %v", err)
	}
	if len(positions) != 0 {
		t.Fatalf("expected no positions after delete, got %+v", positions)
	}
}

func TestPositionAnnotate(t *testing.T) {
	db := testDB(t)
	service := NewService(db)
	seedPosition(t, db, "pos-1", "client-1")

	notes := "long-term holding"
	invest := true
	position, err := service.AnnotatePosition("client-1", "pos-1", PositionUpdate{
		Notes:        &notes,
		IsInvestment: &invest,
	})
	if err != nil {
		t.Fatalf("AnnotatePosition: %v", err)
	}
	if position.Notes != notes || !position.IsInvestment {
		t.Fatalf("annotation not applied: %+v", position)
	}

	// Nil fields leave existing values untouched
	position, err = service.AnnotatePosition("client-1", "pos-1", PositionUpdate{})
	if err != nil {
		t.Fatalf("AnnotatePosition: %v", err)
	}
	if position.Notes != notes || !position.IsInvestment {
		t.Fatalf("annotation lost on empty update: %+v", position)
	}
}

func TestPositionScopedToClient(t *testing.T) {
	db := testDB(t)
	service := NewService(db)
	seedPosition(t, db, "pos-1", "client-1")

	if _, err := service.ClosePosition("client-2", "pos-1"); !errors.Is(err, ErrPositionNotFound) {
		t.Fatalf("expected ErrPositionNotFound for foreign client, got %v", err)
	}
	if err := service.DeletePosition("client-2", "pos-1"); !errors.Is(err, ErrPositionNotFound) {
		t.Fatalf("expected ErrPositionNotFound for foreign client, got %v", err)
	}
}
