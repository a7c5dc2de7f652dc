package stock

import (
	"errors"
	"testing"

	"github.com/rentkit/rental-service/core"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name      string
		level     StockLevel
		movement  StockMovement
		backorder bool
		want      StockLevel
		wantErr   error
	}{
		{
			name:     "purchase adds on hand",
			level:    StockLevel{OnHand: 5},
			movement: StockMovement{Type: Purchase, Quantity: 10},
			want:     StockLevel{OnHand: 15},
		},
		{
			name:     "purchase must be positive",
			level:    StockLevel{},
			movement: StockMovement{Type: Purchase, Quantity: -1},
			wantErr:  core.ErrInvalidArgument,
		},
		{
			name:     "sale removes on hand",
			level:    StockLevel{OnHand: 5},
			movement: StockMovement{Type: Sale, Quantity: -3},
			want:     StockLevel{OnHand: 2},
		},
		{
			name:     "sale cannot take reserved units",
			level:    StockLevel{OnHand: 5, Reserved: 4},
			movement: StockMovement{Type: Sale, Quantity: -3},
			wantErr:  core.ErrInsufficientStock,
		},
		{
			name:      "backorder permits oversell",
			level:     StockLevel{OnHand: 1},
			movement:  StockMovement{Type: Sale, Quantity: -3},
			backorder: true,
			want:      StockLevel{OnHand: -2},
		},
		{
			name:     "rental out moves reserved to on rent",
			level:    StockLevel{OnHand: 5, Reserved: 2},
			movement: StockMovement{Type: RentalOut, Quantity: -2},
			want:     StockLevel{OnHand: 3, Reserved: 0, OnRent: 2},
		},
		{
			name:     "rental out requires a reservation",
			level:    StockLevel{OnHand: 5, Reserved: 1},
			movement: StockMovement{Type: RentalOut, Quantity: -2},
			wantErr:  core.ErrInsufficientStock,
		},
		{
			name:     "return to stock",
			level:    StockLevel{OnHand: 3, OnRent: 2},
			movement: StockMovement{Type: RentalReturn, Quantity: 2},
			want:     StockLevel{OnHand: 5, OnRent: 0},
		},
		{
			name:     "return to repair goes to damaged not on hand",
			level:    StockLevel{OnHand: 3, OnRent: 2},
			movement: StockMovement{Type: RentalReturn, Quantity: 1, Disposition: DispositionToRepair},
			want:     StockLevel{OnHand: 3, OnRent: 1, Damaged: 1},
		},
		{
			name:     "cannot return more than on rent",
			level:    StockLevel{OnRent: 1},
			movement: StockMovement{Type: RentalReturn, Quantity: 2},
			wantErr:  core.ErrInsufficientStock,
		},
		{
			name:     "write off on rent",
			level:    StockLevel{OnRent: 2},
			movement: StockMovement{Type: WriteOff, Quantity: -1},
			want:     StockLevel{OnRent: 1},
		},
		{
			name:     "write off scrapped takes from damaged",
			level:    StockLevel{Damaged: 2},
			movement: StockMovement{Type: WriteOff, Quantity: -1, Disposition: DispositionScrapped},
			want:     StockLevel{Damaged: 1},
		},
		{
			name:     "adjustment repaired moves damaged to on hand",
			level:    StockLevel{OnHand: 1, Damaged: 2},
			movement: StockMovement{Type: Adjustment, Quantity: 2, Disposition: DispositionRepaired},
			want:     StockLevel{OnHand: 3, Damaged: 0},
		},
		{
			name:     "adjustment cannot take on hand negative",
			level:    StockLevel{OnHand: 1},
			movement: StockMovement{Type: Adjustment, Quantity: -2},
			wantErr:  core.ErrInsufficientStock,
		},
		{
			name:     "transfer out cannot take reserved units",
			level:    StockLevel{OnHand: 3, Reserved: 2},
			movement: StockMovement{Type: Transfer, Quantity: -2},
			wantErr:  core.ErrInsufficientStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level := tt.level
			err := level.apply(tt.movement, tt.backorder)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("got err=%v want=%v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if level != tt.want {
				t.Errorf("got level=%+v want=%+v", level, tt.want)
			}
		})
	}
}

// Folding OnHandDelta over a ledger must reproduce the aggregate's on_hand.
func TestOnHandDeltaFoldsToAggregate(t *testing.T) {
	movements := []StockMovement{
		{Type: Purchase, Quantity: 10},
		{Type: Sale, Quantity: -2},
		{Type: RentalOut, Quantity: -3},
		{Type: RentalReturn, Quantity: 1},
		{Type: RentalReturn, Quantity: 1, Disposition: DispositionToRepair},
		{Type: WriteOff, Quantity: -1},
		{Type: Adjustment, Quantity: 1, Disposition: DispositionRepaired},
	}

	level := StockLevel{Reserved: 3}
	var fold int64
	for _, m := range movements {
		if err := level.apply(m, false); err != nil {
			t.Fatalf("apply %s: %v", m.Type, err)
		}
		fold += m.OnHandDelta()
	}

	if level.OnHand != fold {
		t.Errorf("aggregate on hand=%d but ledger fold=%d", level.OnHand, fold)
	}
}
