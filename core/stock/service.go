package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rentkit/rental-service/core"
	"github.com/rs/zerolog/log"
)

func NewService(repo Repository, q Queue, maxAttempts int) *service {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &service{
		repo:        repo,
		queue:       q,
		maxAttempts: maxAttempts,
		levelSubs:   make(map[LevelSubscriptionID]chan<- StockLevel),
	}
}

type Service interface {
	CreateItem(ctx context.Context, item Item) error
	GetItem(ctx context.Context, sku string) (Item, error)
	GetAllItems(ctx context.Context, limit, offset int) ([]Item, error)
	CreateLocation(ctx context.Context, location *Location) error

	GetStockLevel(ctx context.Context, sku string, locationID uint64) (StockLevel, error)
	GetAllStockLevels(ctx context.Context, limit, offset int) ([]StockLevel, error)
	GetMovements(ctx context.Context, sku string, locationID uint64, limit, offset int) ([]StockMovement, error)

	RecordMovement(ctx context.Context, mr MovementRequest, options ...core.UpdateOptions) (StockMovement, error)
	Transfer(ctx context.Context, tr TransferRequest) ([]StockMovement, error)

	Reserve(ctx context.Context, sku string, locationID uint64, quantity int64, options ...core.UpdateOptions) error
	ReleaseReservation(ctx context.Context, sku string, locationID uint64, quantity int64, options ...core.UpdateOptions) error

	PublishLevel(ctx context.Context, sku string, locationID uint64) error

	SubscribeStockLevels(ch chan<- StockLevel) (id LevelSubscriptionID)
	UnsubscribeStockLevels(id LevelSubscriptionID)
}

type LevelSubscriptionID string

// TransferRequest is a value object. Moves quantity between two locations
// of the same item, recording a ledger entry on each side.
type TransferRequest struct {
	RequestID      string `json:"requestId"`
	Sku            string `json:"sku"`
	FromLocationID uint64 `json:"fromLocationId"`
	ToLocationID   uint64 `json:"toLocationId"`
	Quantity       int64  `json:"quantity"`
	Actor          string `json:"actor"`
}

type service struct {
	repo        Repository
	queue       Queue
	maxAttempts int
	levelSubs   map[LevelSubscriptionID]chan<- StockLevel
}

func (s *service) CreateItem(ctx context.Context, item Item) error {
	const funcName = "CreateItem"

	if item.Sku == "" || item.Name == "" {
		return errors.WithStack(core.ErrInvalidArgument)
	}
	if item.BaseDailyRate.IsNegative() || item.ReplacementValue.IsNegative() || item.Deposit.IsNegative() {
		return errors.WithStack(core.ErrDataIntegrity)
	}

	dbItem, err := s.repo.GetItem(ctx, item.Sku)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return errors.WithStack(err)
	}

	if dbItem.Sku != "" {
		log.Debug().
			Str("func", funcName).
			Str("sku", dbItem.Sku).
			Msg("item already exists")
		return nil
	}

	log.Info().
		Str("func", funcName).
		Str("sku", item.Sku).
		Msg("creating item")

	if err = s.repo.SaveItem(ctx, item); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (s *service) GetItem(ctx context.Context, sku string) (Item, error) {
	item, err := s.repo.GetItem(ctx, sku)
	if err != nil {
		return item, errors.WithStack(err)
	}
	return item, nil
}

func (s *service) GetAllItems(ctx context.Context, limit, offset int) ([]Item, error) {
	return s.repo.GetAllItems(ctx, limit, offset)
}

func (s *service) CreateLocation(ctx context.Context, location *Location) error {
	if location.Name == "" {
		return errors.WithStack(core.ErrInvalidArgument)
	}
	return errors.WithStack(s.repo.SaveLocation(ctx, location))
}

func (s *service) GetStockLevel(ctx context.Context, sku string, locationID uint64) (StockLevel, error) {
	level, err := s.repo.GetStockLevel(ctx, sku, locationID)
	if err != nil {
		return level, errors.WithStack(err)
	}
	return level, nil
}

func (s *service) GetAllStockLevels(ctx context.Context, limit, offset int) ([]StockLevel, error) {
	return s.repo.GetAllStockLevels(ctx, limit, offset)
}

func (s *service) GetMovements(ctx context.Context, sku string, locationID uint64, limit, offset int) ([]StockMovement, error) {
	return s.repo.GetMovements(ctx, sku, locationID, limit, offset)
}

// RecordMovement appends one ledger entry and applies it to the stock level
// atomically. When the caller supplies a transaction the write is a single
// attempt inside it and a lost version race surfaces as ErrVersionConflict;
// otherwise the service runs its own bounded retry loop and publishes the
// updated level after commit.
func (s *service) RecordMovement(ctx context.Context, mr MovementRequest, options ...core.UpdateOptions) (StockMovement, error) {
	const funcName = "RecordMovement"

	log.Info().
		Str("func", funcName).
		Str("requestId", mr.RequestID).
		Str("sku", mr.Sku).
		Uint64("locationId", mr.LocationID).
		Str("type", string(mr.Type)).
		Int64("quantity", mr.Quantity).
		Str("actor", mr.Actor).
		Msg("recording stock movement")

	if err := validateMovementRequest(mr); err != nil {
		return StockMovement{}, err
	}

	existing, err := s.repo.GetMovementByRequestID(ctx, mr.RequestID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return StockMovement{}, errors.WithStack(err)
	}
	if existing.RequestID != "" {
		log.Debug().Str("func", funcName).Str("requestId", mr.RequestID).Msg("movement already recorded, returning it")
		return existing, nil
	}

	if len(options) > 0 && options[0].Tx != nil {
		movement, _, err := s.applyMovement(ctx, options[0].Tx, mr)
		return movement, err
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		movement, level, err := s.recordMovementOnce(ctx, mr)
		if errors.Is(err, ErrVersionConflict) {
			log.Debug().
				Str("func", funcName).
				Str("sku", mr.Sku).
				Int("attempt", attempt+1).
				Msg("stock level moved underneath us, retrying")
			continue
		}
		if err != nil {
			return StockMovement{}, err
		}

		if err = s.publishLevel(ctx, level); err != nil {
			return movement, errors.WithMessage(err, "failed to publish stock level")
		}
		if err = s.queue.PublishMovement(ctx, movement); err != nil {
			return movement, errors.WithMessage(err, "failed to publish stock movement")
		}
		return movement, nil
	}

	return StockMovement{}, errors.WithStack(core.ErrConcurrencyConflict)
}

func (s *service) recordMovementOnce(ctx context.Context, mr MovementRequest) (movement StockMovement, level StockLevel, err error) {
	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return StockMovement{}, StockLevel{}, errors.WithStack(err)
	}

	defer func() {
		if err != nil {
			rollback(ctx, tx, err)
		}
	}()

	movement, level, err = s.applyMovement(ctx, tx, mr)
	if err != nil {
		return StockMovement{}, StockLevel{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return StockMovement{}, StockLevel{}, errors.WithStack(err)
	}

	return movement, level, nil
}

// applyMovement performs one ledger insert plus aggregate write inside tx.
// Both succeed or the caller rolls the transaction back; there is no state
// where the ledger row exists without the aggregate update.
func (s *service) applyMovement(ctx context.Context, tx core.Transaction, mr MovementRequest) (StockMovement, StockLevel, error) {
	item, err := s.repo.GetItem(ctx, mr.Sku, core.QueryOptions{Tx: tx})
	if err != nil {
		return StockMovement{}, StockLevel{}, errors.WithStack(err)
	}

	level, err := s.repo.GetStockLevel(ctx, mr.Sku, mr.LocationID, core.QueryOptions{Tx: tx})
	if errors.Is(err, core.ErrNotFound) {
		// You cannot sell or rent what was never received.
		if mr.Type != Purchase {
			return StockMovement{}, StockLevel{}, errors.WithStack(core.ErrNotFound)
		}
		level = StockLevel{Sku: mr.Sku, LocationID: mr.LocationID}
		if err = s.repo.CreateStockLevel(ctx, &level, core.UpdateOptions{Tx: tx}); err != nil {
			return StockMovement{}, StockLevel{}, errors.WithStack(err)
		}
	} else if err != nil {
		return StockMovement{}, StockLevel{}, errors.WithStack(err)
	}

	movement := StockMovement{
		RequestID:    mr.RequestID,
		Sku:          mr.Sku,
		LocationID:   mr.LocationID,
		Type:         mr.Type,
		Disposition:  mr.Disposition,
		Quantity:     mr.Quantity,
		BeforeOnHand: level.OnHand,
		ReferenceID:  mr.ReferenceID,
		Actor:        mr.Actor,
		Created:      time.Now(),
	}

	if err = level.apply(movement, item.BackorderAllowed); err != nil {
		return StockMovement{}, StockLevel{}, err
	}
	movement.AfterOnHand = level.OnHand

	if err = s.repo.SaveMovement(ctx, &movement, core.UpdateOptions{Tx: tx}); err != nil {
		return StockMovement{}, StockLevel{}, errors.WithMessage(err, "failed to save stock movement")
	}
	if err = s.repo.UpdateStockLevel(ctx, &level, core.UpdateOptions{Tx: tx}); err != nil {
		return StockMovement{}, StockLevel{}, errors.WithMessage(err, "failed to update stock level")
	}

	return movement, level, nil
}

// Transfer records the outbound and inbound halves in one transaction so a
// unit is never in flight on only one side of the ledger.
func (s *service) Transfer(ctx context.Context, tr TransferRequest) ([]StockMovement, error) {
	const funcName = "Transfer"

	log.Info().
		Str("func", funcName).
		Str("requestId", tr.RequestID).
		Str("sku", tr.Sku).
		Uint64("from", tr.FromLocationID).
		Uint64("to", tr.ToLocationID).
		Int64("quantity", tr.Quantity).
		Msg("transferring stock")

	if tr.Quantity < 1 || tr.RequestID == "" || tr.FromLocationID == tr.ToLocationID {
		return nil, errors.WithStack(core.ErrInvalidArgument)
	}

	out := MovementRequest{
		RequestID:  tr.RequestID + ":out",
		Sku:        tr.Sku,
		LocationID: tr.FromLocationID,
		Type:       Transfer,
		Quantity:   -tr.Quantity,
		Actor:      tr.Actor,
	}
	in := MovementRequest{
		RequestID:  tr.RequestID + ":in",
		Sku:        tr.Sku,
		LocationID: tr.ToLocationID,
		Type:       Transfer,
		Quantity:   tr.Quantity,
		Actor:      tr.Actor,
	}

	var outMove, inMove StockMovement
	var outLevel, inLevel StockLevel

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		err := func() (err error) {
			tx, err := s.repo.BeginTransaction(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			defer func() {
				if err != nil {
					rollback(ctx, tx, err)
				}
			}()

			if outMove, outLevel, err = s.applyMovement(ctx, tx, out); err != nil {
				return err
			}
			if inMove, inLevel, err = s.applyMovement(ctx, tx, in); err != nil {
				return err
			}
			return errors.WithStack(tx.Commit(ctx))
		}()
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		for _, level := range []StockLevel{outLevel, inLevel} {
			if err := s.publishLevel(ctx, level); err != nil {
				return nil, errors.WithMessage(err, "failed to publish stock level")
			}
		}
		return []StockMovement{outMove, inMove}, nil
	}

	return nil, errors.WithStack(core.ErrConcurrencyConflict)
}

// Reserve holds quantity of available stock for a pending pickup. It is a
// split of the reserved bucket, not a ledger entry; the ledger records the
// rental at pickup time.
func (s *service) Reserve(ctx context.Context, sku string, locationID uint64, quantity int64, options ...core.UpdateOptions) error {
	return s.adjustReservation(ctx, "Reserve", sku, locationID, quantity, options...)
}

// ReleaseReservation undoes a hold, for bookings cancelled before pickup.
func (s *service) ReleaseReservation(ctx context.Context, sku string, locationID uint64, quantity int64, options ...core.UpdateOptions) error {
	return s.adjustReservation(ctx, "ReleaseReservation", sku, locationID, quantity*-1, options...)
}

func (s *service) adjustReservation(ctx context.Context, funcName, sku string, locationID uint64, delta int64, options ...core.UpdateOptions) error {
	log.Info().
		Str("func", funcName).
		Str("sku", sku).
		Uint64("locationId", locationID).
		Int64("delta", delta).
		Msg("adjusting reservation")

	if delta == 0 {
		return errors.WithStack(core.ErrInvalidArgument)
	}

	if len(options) > 0 && options[0].Tx != nil {
		_, err := s.applyReservation(ctx, options[0].Tx, sku, locationID, delta)
		return err
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		level, err := s.adjustReservationOnce(ctx, sku, locationID, delta)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			return err
		}
		return s.publishLevel(ctx, level)
	}

	return errors.WithStack(core.ErrConcurrencyConflict)
}

func (s *service) adjustReservationOnce(ctx context.Context, sku string, locationID uint64, delta int64) (level StockLevel, err error) {
	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return StockLevel{}, errors.WithStack(err)
	}

	defer func() {
		if err != nil {
			rollback(ctx, tx, err)
		}
	}()

	level, err = s.applyReservation(ctx, tx, sku, locationID, delta)
	if err != nil {
		return StockLevel{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return StockLevel{}, errors.WithStack(err)
	}
	return level, nil
}

func (s *service) applyReservation(ctx context.Context, tx core.Transaction, sku string, locationID uint64, delta int64) (StockLevel, error) {
	item, err := s.repo.GetItem(ctx, sku, core.QueryOptions{Tx: tx})
	if err != nil {
		return StockLevel{}, errors.WithStack(err)
	}

	level, err := s.repo.GetStockLevel(ctx, sku, locationID, core.QueryOptions{Tx: tx})
	if err != nil {
		return StockLevel{}, errors.WithStack(err)
	}

	if delta > 0 && level.Available() < delta && !item.BackorderAllowed {
		return StockLevel{}, errors.WithStack(core.ErrInsufficientStock)
	}
	if delta < 0 && level.Reserved+delta < 0 {
		return StockLevel{}, errors.WithStack(core.ErrInvalidArgument)
	}

	level.Reserved += delta
	if err = s.repo.UpdateStockLevel(ctx, &level, core.UpdateOptions{Tx: tx}); err != nil {
		return StockLevel{}, errors.WithMessage(err, "failed to update stock level")
	}
	return level, nil
}

// PublishLevel re-reads the current level and pushes it to the queue and to
// websocket subscribers. Used by callers that committed stock writes inside
// their own transaction.
func (s *service) PublishLevel(ctx context.Context, sku string, locationID uint64) error {
	level, err := s.repo.GetStockLevel(ctx, sku, locationID)
	if err != nil {
		return errors.WithStack(err)
	}
	return s.publishLevel(ctx, level)
}

func (s *service) publishLevel(ctx context.Context, level StockLevel) error {
	err := s.queue.PublishStockLevel(ctx, level)
	if err != nil {
		return errors.WithMessage(err, "failed to publish stock level to queue")
	}
	go s.notifyLevelSubscribers(level)
	return nil
}

func (s *service) SubscribeStockLevels(ch chan<- StockLevel) (id LevelSubscriptionID) {
	id = LevelSubscriptionID(uuid.NewString())
	s.levelSubs[id] = ch
	log.Debug().Interface("clientId", id).Msg("subscribing to stock levels")
	return id
}

func (s *service) UnsubscribeStockLevels(id LevelSubscriptionID) {
	log.Debug().Interface("clientId", id).Msg("unsubscribing from stock levels")
	close(s.levelSubs[id])
	delete(s.levelSubs, id)
}

func (s *service) notifyLevelSubscribers(level StockLevel) {
	for id, ch := range s.levelSubs {
		log.Debug().Interface("clientId", id).Interface("stockLevel", level).Msg("notifying subscriber of stock level update")
		ch <- level
	}
}

func validateMovementRequest(mr MovementRequest) error {
	if mr.RequestID == "" || mr.Sku == "" || mr.Actor == "" {
		return errors.WithStack(core.ErrInvalidArgument)
	}
	if mr.Quantity == 0 {
		return errors.WithStack(core.ErrInvalidArgument)
	}
	if _, err := ParseMovementType(string(mr.Type)); err != nil {
		return errors.WithStack(core.ErrInvalidArgument)
	}
	return nil
}
