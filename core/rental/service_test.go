package rental_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rentkit/rental-service/core"
	"github.com/rentkit/rental-service/core/inspection"
	"github.com/rentkit/rental-service/core/pricing"
	"github.com/rentkit/rental-service/core/rental"
	"github.com/rentkit/rental-service/core/stock"
	"github.com/rentkit/rental-service/db/rentalrepo"
	"github.com/rentkit/rental-service/queue"
	"github.com/rentkit/rental-service/test"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	test.ConfigLogging()
	m.Run()
}

type fixture struct {
	repo        *rentalrepo.MockRepo
	stock       *stock.MockService
	pricing     *pricing.MockService
	inspections *inspection.MockService
	queue       *queue.MockRentalQueue
	rules       rental.Rules
}

func newFixture() *fixture {
	stockMock := stock.NewMockService()
	pricingMock := pricing.NewMockService()
	inspectionMock := inspection.NewMockService()
	return &fixture{
		repo:        rentalrepo.NewMockRepo(),
		stock:       &stockMock,
		pricing:     &pricingMock,
		inspections: &inspectionMock,
		queue:       queue.NewMockRentalQueue(),
		rules: rental.Rules{
			GraceDays:      0,
			LateMultiplier: decimal.NewFromFloat(1.5),
			MaxAttempts:    3,
			Now:            func() time.Time { return testNow },
		},
	}
}

func (f *fixture) service() rental.Service {
	return rental.NewService(f.repo, f.stock, f.pricing, f.inspections, f.queue, f.rules)
}

func bookingRequest() rental.BookingRequest {
	return rental.BookingRequest{
		RequestID:       "book1",
		Renter:          "alice",
		Sku:             "kayak",
		LocationID:      1,
		Quantity:        2,
		ScheduledPickup: time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC),
		ScheduledReturn: time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
	}
}

func activeRental() rental.Rental {
	return rental.Rental{
		ID:              1,
		RequestID:       "book1",
		Renter:          "alice",
		Sku:             "kayak",
		LocationID:      1,
		Quantity:        2,
		State:           rental.Active,
		ScheduledPickup: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		ScheduledReturn: time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC),
		DailyRate:       decimal.NewFromInt(50),
		Deposit:         decimal.NewFromInt(100),
	}
}

func TestBookValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(br *rental.BookingRequest)
	}{
		{name: "missing request id", mutate: func(br *rental.BookingRequest) { br.RequestID = "" }},
		{name: "missing renter", mutate: func(br *rental.BookingRequest) { br.Renter = "" }},
		{name: "missing sku", mutate: func(br *rental.BookingRequest) { br.Sku = "" }},
		{name: "zero quantity", mutate: func(br *rental.BookingRequest) { br.Quantity = 0 }},
		{name: "return before pickup", mutate: func(br *rental.BookingRequest) {
			br.ScheduledReturn = br.ScheduledPickup.Add(-time.Hour)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			br := bookingRequest()
			tt.mutate(&br)

			_, err := f.service().Book(context.Background(), br)
			if !errors.Is(err, core.ErrInvalidArgument) {
				t.Errorf("got err=%v want=%v", err, core.ErrInvalidArgument)
			}
			f.repo.VerifyCount("SaveRental", 0, t)
		})
	}
}

func TestBookIdempotent(t *testing.T) {
	f := newFixture()
	existing := rental.Rental{ID: 7, RequestID: "book1", State: rental.PendingPickup}
	f.repo.GetRentalByRequestIDFunc = func(ctx context.Context, requestID string, options ...core.QueryOptions) (rental.Rental, error) {
		return existing, nil
	}

	got, err := f.service().Book(context.Background(), bookingRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != existing.ID {
		t.Errorf("got rental id=%d want=%d", got.ID, existing.ID)
	}
	f.repo.VerifyCount("SaveRental", 0, t)
	f.queue.VerifyCount("PublishRental", 0, t)
}

func TestBookFreezesTermsAndReserves(t *testing.T) {
	f := newFixture()
	f.stock.GetItemFunc = func(ctx context.Context, sku string) (stock.Item, error) {
		return stock.Item{
			Sku:           sku,
			Name:          "Kayak",
			BaseDailyRate: decimal.NewFromInt(50),
			Deposit:       decimal.NewFromInt(100),
		}, nil
	}
	var quotedDays int
	f.pricing.ResolveFunc = func(ctx context.Context, item stock.Item, rentalDays int, asOf time.Time) (pricing.Quote, error) {
		quotedDays = rentalDays
		return pricing.Quote{Sku: item.Sku, RentalDays: rentalDays, TotalCost: decimal.NewFromInt(225)}, nil
	}
	var reserved int64
	f.stock.ReserveFunc = func(ctx context.Context, sku string, locationID uint64, quantity int64, options ...core.UpdateOptions) error {
		reserved = quantity
		if len(options) == 0 || options[0].Tx == nil {
			t.Error("expected reservation inside the booking transaction")
		}
		return nil
	}

	got, err := f.service().Book(context.Background(), bookingRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quotedDays != 5 {
		t.Errorf("got quoted days=%d want=5", quotedDays)
	}
	if reserved != 2 {
		t.Errorf("got reserved=%d want=2", reserved)
	}
	if got.State != rental.PendingPickup {
		t.Errorf("got state=%s want=%s", got.State, rental.PendingPickup)
	}
	if !got.DailyRate.Equal(decimal.NewFromInt(50)) || !got.Deposit.Equal(decimal.NewFromInt(100)) {
		t.Errorf("got rate=%s deposit=%s want 50,100", got.DailyRate, got.Deposit)
	}
	if !got.TotalCost.Equal(decimal.NewFromInt(450)) {
		t.Errorf("got total=%s want=450", got.TotalCost)
	}
	f.repo.VerifyCount("SaveRental", 1, t)
	f.queue.VerifyCount("PublishRental", 1, t)
}

func TestBookInsufficientStock(t *testing.T) {
	f := newFixture()
	f.stock.ReserveFunc = func(ctx context.Context, sku string, locationID uint64, quantity int64, options ...core.UpdateOptions) error {
		return core.ErrInsufficientStock
	}

	_, err := f.service().Book(context.Background(), bookingRequest())
	if !errors.Is(err, core.ErrInsufficientStock) {
		t.Errorf("got err=%v want=%v", err, core.ErrInsufficientStock)
	}
	f.repo.VerifyCount("SaveRental", 0, t)
}

func TestBookRetriesExhausted(t *testing.T) {
	f := newFixture()
	f.stock.ReserveFunc = func(ctx context.Context, sku string, locationID uint64, quantity int64, options ...core.UpdateOptions) error {
		return stock.ErrVersionConflict
	}

	_, err := f.service().Book(context.Background(), bookingRequest())
	if !errors.Is(err, core.ErrConcurrencyConflict) {
		t.Errorf("got err=%v want=%v", err, core.ErrConcurrencyConflict)
	}
	f.repo.VerifyCount("BeginTransaction", 3, t)
	f.queue.VerifyCount("PublishRental", 0, t)
}

func TestCancelReleasesReservation(t *testing.T) {
	f := newFixture()
	pending := activeRental()
	pending.State = rental.PendingPickup
	f.repo.GetRentalFunc = func(ctx context.Context, ID uint64, options ...core.QueryOptions) (rental.Rental, error) {
		return pending, nil
	}
	var released int64
	f.stock.ReleaseReservationFunc = func(ctx context.Context, sku string, locationID uint64, quantity int64, options ...core.UpdateOptions) error {
		released = quantity
		return nil
	}

	got, err := f.service().Cancel(context.Background(), 1, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.State != rental.Cancelled {
		t.Errorf("got state=%s want=%s", got.State, rental.Cancelled)
	}
	if released != 2 {
		t.Errorf("got released=%d want=2", released)
	}
	f.repo.VerifyCount("UpdateRental", 1, t)
	f.queue.VerifyCount("PublishRental", 1, t)
}

func TestCancelAfterPickupRejected(t *testing.T) {
	f := newFixture()
	f.repo.GetRentalFunc = func(ctx context.Context, ID uint64, options ...core.QueryOptions) (rental.Rental, error) {
		return activeRental(), nil
	}

	_, err := f.service().Cancel(context.Background(), 1, "alice")
	if !errors.Is(err, core.ErrInvalidStateTransition) {
		t.Errorf("got err=%v want=%v", err, core.ErrInvalidStateTransition)
	}
	f.repo.VerifyCount("UpdateRental", 0, t)
}

func TestPickupRecordsRentalOut(t *testing.T) {
	f := newFixture()
	pending := activeRental()
	pending.State = rental.PendingPickup
	f.repo.GetRentalFunc = func(ctx context.Context, ID uint64, options ...core.QueryOptions) (rental.Rental, error) {
		return pending, nil
	}
	var recorded stock.MovementRequest
	f.stock.RecordMovementFunc = func(ctx context.Context, mr stock.MovementRequest, options ...core.UpdateOptions) (stock.StockMovement, error) {
		recorded = mr
		return stock.StockMovement{}, nil
	}

	got, err := f.service().Pickup(context.Background(), 1, "clerk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.State != rental.Active {
		t.Errorf("got state=%s want=%s", got.State, rental.Active)
	}
	if !got.ActualPickup.Equal(testNow) {
		t.Errorf("got actual pickup=%s want=%s", got.ActualPickup, testNow)
	}
	if recorded.Type != stock.RentalOut || recorded.Quantity != -2 {
		t.Errorf("got movement type=%s qty=%d want %s,-2", recorded.Type, recorded.Quantity, stock.RentalOut)
	}
	if recorded.RequestID != "rental:1:pickup" {
		t.Errorf("got movement request id=%s want=rental:1:pickup", recorded.RequestID)
	}
}

func TestPickupTwiceRejected(t *testing.T) {
	f := newFixture()
	f.repo.GetRentalFunc = func(ctx context.Context, ID uint64, options ...core.QueryOptions) (rental.Rental, error) {
		return activeRental(), nil
	}

	_, err := f.service().Pickup(context.Background(), 1, "clerk")
	if !errors.Is(err, core.ErrInvalidStateTransition) {
		t.Errorf("got err=%v want=%v", err, core.ErrInvalidStateTransition)
	}
}

func TestExtendRepricesWholeDuration(t *testing.T) {
	f := newFixture()
	f.repo.GetRentalFunc = func(ctx context.Context, ID uint64, options ...core.QueryOptions) (rental.Rental, error) {
		return activeRental(), nil
	}
	var quotedDays int
	f.pricing.ResolveFunc = func(ctx context.Context, item stock.Item, rentalDays int, asOf time.Time) (pricing.Quote, error) {
		quotedDays = rentalDays
		return pricing.Quote{TotalCost: decimal.NewFromInt(280)}, nil
	}

	newReturn := time.Date(2024, 6, 8, 9, 0, 0, 0, time.UTC)
	got, err := f.service().Extend(context.Background(), 1, newReturn, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quotedDays != 7 {
		t.Errorf("got quoted days=%d want=7", quotedDays)
	}
	if got.State != rental.Extended || got.Extensions != 1 {
		t.Errorf("got state=%s extensions=%d want EXTENDED,1", got.State, got.Extensions)
	}
	if !got.ScheduledReturn.Equal(newReturn) {
		t.Errorf("got scheduled return=%s want=%s", got.ScheduledReturn, newReturn)
	}
	if !got.TotalCost.Equal(decimal.NewFromInt(560)) {
		t.Errorf("got total=%s want=560", got.TotalCost)
	}
}

func TestExtendOverdueRejected(t *testing.T) {
	f := newFixture()
	overdue := activeRental()
	overdue.ScheduledReturn = testNow.Add(-time.Hour)
	f.repo.GetRentalFunc = func(ctx context.Context, ID uint64, options ...core.QueryOptions) (rental.Rental, error) {
		return overdue, nil
	}

	_, err := f.service().Extend(context.Background(), 1, testNow.AddDate(0, 0, 5), "alice")
	if !errors.Is(err, core.ErrInvalidStateTransition) {
		t.Errorf("got err=%v want=%v", err, core.ErrInvalidStateTransition)
	}
	f.repo.VerifyCount("UpdateRental", 0, t)
}

func TestExtendMustPushReturnOut(t *testing.T) {
	f := newFixture()
	f.repo.GetRentalFunc = func(ctx context.Context, ID uint64, options ...core.QueryOptions) (rental.Rental, error) {
		return activeRental(), nil
	}

	_, err := f.service().Extend(context.Background(), 1, time.Date(2024, 6, 4, 9, 0, 0, 0, time.UTC), "alice")
	if !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("got err=%v want=%v", err, core.ErrInvalidArgument)
	}
}

func adjudicateFromAssessment() func(ctx context.Context, a inspection.Assessment, dep, rep decimal.Decimal, options ...core.UpdateOptions) (inspection.Inspection, error) {
	return func(ctx context.Context, a inspection.Assessment, dep, rep decimal.Decimal, options ...core.UpdateOptions) (inspection.Inspection, error) {
		disposition, charge, err := inspection.Decide(a.Rating, a.AssessedRepairCost, dep, rep)
		if err != nil {
			return inspection.Inspection{}, err
		}
		return inspection.Inspection{
			RentalID:      a.RentalID,
			LineRef:       a.LineRef,
			Rating:        a.Rating,
			Quantity:      a.Quantity,
			Disposition:   disposition,
			DepositCharge: charge,
			Actor:         a.Actor,
		}, nil
	}
}

func TestReturnPartial(t *testing.T) {
	f := newFixture()
	open := activeRental()
	open.Quantity = 3
	f.repo.GetRentalFunc = func(ctx context.Context, ID uint64, options ...core.QueryOptions) (rental.Rental, error) {
		return open, nil
	}
	f.stock.GetItemFunc = func(ctx context.Context, sku string) (stock.Item, error) {
		return stock.Item{Sku: sku, ReplacementValue: decimal.NewFromInt(500)}, nil
	}
	f.inspections.AdjudicateFunc = adjudicateFromAssessment()
	var movements []stock.MovementRequest
	f.stock.RecordMovementFunc = func(ctx context.Context, mr stock.MovementRequest, options ...core.UpdateOptions) (stock.StockMovement, error) {
		movements = append(movements, mr)
		return stock.StockMovement{}, nil
	}

	got, settlement, err := f.service().Return(context.Background(), rental.ReturnRequest{
		RequestID: "ret1",
		RentalID:  1,
		Actor:     "clerk",
		Lines:     []rental.ReturnLine{{Quantity: 2, Rating: inspection.RatingA}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.State != rental.PartialReturn || got.ReturnedQuantity != 2 {
		t.Errorf("got state=%s returned=%d want PARTIAL_RETURN,2", got.State, got.ReturnedQuantity)
	}
	if !got.ActualReturn.IsZero() {
		t.Errorf("partial return must not set actual return, got %s", got.ActualReturn)
	}
	if len(movements) != 1 || movements[0].Type != stock.RentalReturn || movements[0].Quantity != 2 {
		t.Errorf("got movements=%+v want one RENTAL_RETURN of 2", movements)
	}
	if !settlement.RefundDue.Equal(decimal.NewFromInt(100)) {
		t.Errorf("got refund=%s want=100", settlement.RefundDue)
	}
}

func TestReturnCompletesAndWritesOff(t *testing.T) {
	f := newFixture()
	open := activeRental()
	open.ScheduledReturn = testNow.Add(time.Hour) // on time
	f.repo.GetRentalFunc = func(ctx context.Context, ID uint64, options ...core.QueryOptions) (rental.Rental, error) {
		return open, nil
	}
	f.stock.GetItemFunc = func(ctx context.Context, sku string) (stock.Item, error) {
		return stock.Item{Sku: sku, ReplacementValue: decimal.NewFromInt(500)}, nil
	}
	f.inspections.AdjudicateFunc = adjudicateFromAssessment()
	var movements []stock.MovementRequest
	f.stock.RecordMovementFunc = func(ctx context.Context, mr stock.MovementRequest, options ...core.UpdateOptions) (stock.StockMovement, error) {
		movements = append(movements, mr)
		return stock.StockMovement{}, nil
	}

	got, settlement, err := f.service().Return(context.Background(), rental.ReturnRequest{
		RequestID: "ret1",
		RentalID:  1,
		Actor:     "clerk",
		Lines: []rental.ReturnLine{
			{Quantity: 1, Rating: inspection.RatingA},
			{Quantity: 1, Rating: inspection.RatingD},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.State != rental.Completed {
		t.Errorf("got state=%s want=%s", got.State, rental.Completed)
	}
	if !got.ActualReturn.Equal(testNow) {
		t.Errorf("got actual return=%s want=%s", got.ActualReturn, testNow)
	}
	if len(movements) != 2 {
		t.Fatalf("got %d movements want 2", len(movements))
	}
	if movements[0].Type != stock.RentalReturn || movements[0].Quantity != 1 {
		t.Errorf("got first movement=%+v want RENTAL_RETURN of 1", movements[0])
	}
	if movements[1].Type != stock.WriteOff || movements[1].Quantity != -1 {
		t.Errorf("got second movement=%+v want WRITE_OFF of -1", movements[1])
	}

	// Rating D charges the full deposit, so nothing comes back.
	if !settlement.DepositCharges.Equal(decimal.NewFromInt(100)) {
		t.Errorf("got charges=%s want=100", settlement.DepositCharges)
	}
	if !settlement.RefundDue.Equal(decimal.Zero) {
		t.Errorf("got refund=%s want=0", settlement.RefundDue)
	}
}

func TestReturnLateFeeCappedAtDeposit(t *testing.T) {
	f := newFixture()
	open := activeRental()
	open.ScheduledReturn = testNow.AddDate(0, 0, -10)
	f.repo.GetRentalFunc = func(ctx context.Context, ID uint64, options ...core.QueryOptions) (rental.Rental, error) {
		return open, nil
	}
	f.inspections.AdjudicateFunc = adjudicateFromAssessment()

	_, settlement, err := f.service().Return(context.Background(), rental.ReturnRequest{
		RequestID: "ret1",
		RentalID:  1,
		Actor:     "clerk",
		Lines:     []rental.ReturnLine{{Quantity: 2, Rating: inspection.RatingA}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !settlement.LateFee.Equal(decimal.NewFromInt(100)) {
		t.Errorf("got late fee=%s want=100", settlement.LateFee)
	}
	if !settlement.RefundDue.Equal(decimal.Zero) {
		t.Errorf("got refund=%s want=0", settlement.RefundDue)
	}
}

func TestReturnMoreThanOutstandingRejected(t *testing.T) {
	f := newFixture()
	f.repo.GetRentalFunc = func(ctx context.Context, ID uint64, options ...core.QueryOptions) (rental.Rental, error) {
		return activeRental(), nil
	}

	_, _, err := f.service().Return(context.Background(), rental.ReturnRequest{
		RequestID: "ret1",
		RentalID:  1,
		Actor:     "clerk",
		Lines:     []rental.ReturnLine{{Quantity: 5, Rating: inspection.RatingA}},
	})
	if !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("got err=%v want=%v", err, core.ErrInvalidArgument)
	}
	f.repo.VerifyCount("UpdateRental", 0, t)
}

func TestReturnReplayRebuildsSettlement(t *testing.T) {
	f := newFixture()
	done := activeRental()
	done.State = rental.Completed
	done.ReturnedQuantity = 2
	done.ActualReturn = testNow
	f.repo.GetRentalFunc = func(ctx context.Context, ID uint64, options ...core.QueryOptions) (rental.Rental, error) {
		return done, nil
	}
	f.inspections.GetInspectionByLineRefFunc = func(ctx context.Context, lineRef string) (inspection.Inspection, error) {
		return inspection.Inspection{LineRef: "ret1:0"}, nil
	}
	f.inspections.GetInspectionsByRentalFunc = func(ctx context.Context, rentalID uint64) ([]inspection.Inspection, error) {
		return []inspection.Inspection{
			{LineRef: "ret1:0", DepositCharge: decimal.NewFromInt(10)},
			{LineRef: "other:0", DepositCharge: decimal.NewFromInt(99)},
		}, nil
	}
	moved := false
	f.stock.RecordMovementFunc = func(ctx context.Context, mr stock.MovementRequest, options ...core.UpdateOptions) (stock.StockMovement, error) {
		moved = true
		return stock.StockMovement{}, nil
	}

	_, settlement, err := f.service().Return(context.Background(), rental.ReturnRequest{
		RequestID: "ret1",
		RentalID:  1,
		Actor:     "clerk",
		Lines:     []rental.ReturnLine{{Quantity: 2, Rating: inspection.RatingA}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if moved {
		t.Error("replayed return must not move stock again")
	}
	// Only this request's lines count toward the rebuilt settlement.
	if !settlement.DepositCharges.Equal(decimal.NewFromInt(10)) {
		t.Errorf("got charges=%s want=10", settlement.DepositCharges)
	}
	f.repo.VerifyCount("BeginTransaction", 0, t)
	f.repo.VerifyCount("UpdateRental", 0, t)
}

func TestGetSettlement(t *testing.T) {
	f := newFixture()
	done := activeRental()
	done.State = rental.Completed
	done.ReturnedQuantity = 2
	done.ActualReturn = done.ScheduledReturn.AddDate(0, 0, 1)
	f.repo.GetRentalFunc = func(ctx context.Context, ID uint64, options ...core.QueryOptions) (rental.Rental, error) {
		return done, nil
	}
	f.inspections.GetInspectionsByRentalFunc = func(ctx context.Context, rentalID uint64) ([]inspection.Inspection, error) {
		return []inspection.Inspection{
			{LineRef: "ret1:0", DepositCharge: decimal.NewFromInt(10)},
			{LineRef: "ret2:0", DepositCharge: decimal.NewFromInt(5)},
		}, nil
	}

	settlement, err := f.service().GetSettlement(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !settlement.DepositCharges.Equal(decimal.NewFromInt(15)) {
		t.Errorf("got charges=%s want=15", settlement.DepositCharges)
	}
	// One day late at 50 * 1.5.
	if !settlement.LateFee.Equal(decimal.NewFromInt(75)) {
		t.Errorf("got late fee=%s want=75", settlement.LateFee)
	}
	if !settlement.RefundDue.Equal(decimal.NewFromInt(10)) {
		t.Errorf("got refund=%s want=10", settlement.RefundDue)
	}
}
