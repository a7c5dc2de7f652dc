// Package queue publishes stock and rental updates to RabbitMQ and consumes
// catalog item updates from the upstream catalog system.
package queue

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rentkit/rental-service/core/rental"
	"github.com/rentkit/rental-service/core/stock"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/bunnyq"
	"github.com/streadway/amqp"
)

type stockQueue struct {
	queue            *bunnyq.BunnyQ
	levelExchange    string
	movementExchange string
}

func NewStockQueue(bq *bunnyq.BunnyQ, levelExchange, movementExchange string) stock.Queue {
	return &stockQueue{queue: bq, levelExchange: levelExchange, movementExchange: movementExchange}
}

func (s *stockQueue) PublishStockLevel(ctx context.Context, level stock.StockLevel) error {
	body, err := json.Marshal(level)
	if err != nil {
		return errors.WithMessage(err, "failed to serialize stock level for queue")
	}
	if err = s.queue.Publish(ctx, s.levelExchange, body); err != nil {
		return errors.WithMessage(err, "failed to send stock level update to queue")
	}
	return nil
}

func (s *stockQueue) PublishMovement(ctx context.Context, movement stock.StockMovement) error {
	body, err := json.Marshal(movement)
	if err != nil {
		return errors.WithMessage(err, "failed to serialize stock movement for queue")
	}
	if err = s.queue.Publish(ctx, s.movementExchange, body); err != nil {
		return errors.WithMessage(err, "failed to send stock movement to queue")
	}
	return nil
}

type rentalQueue struct {
	queue    *bunnyq.BunnyQ
	exchange string
}

func NewRentalQueue(bq *bunnyq.BunnyQ, exchange string) rental.Queue {
	return &rentalQueue{queue: bq, exchange: exchange}
}

func (r *rentalQueue) PublishRental(ctx context.Context, rr rental.Rental) error {
	body, err := json.Marshal(rr)
	if err != nil {
		return errors.WithMessage(err, "failed to serialize rental for queue")
	}
	if err = r.queue.Publish(ctx, r.exchange, body); err != nil {
		return errors.WithMessage(err, "failed to send rental update to queue")
	}
	return nil
}

type CatalogQueue struct {
	queue           *bunnyq.BunnyQ
	itemQueue       string
	itemDltExchange string
}

func NewCatalogQueue(bq *bunnyq.BunnyQ, itemQueue, itemDltExchange string) *CatalogQueue {
	return &CatalogQueue{queue: bq, itemQueue: itemQueue, itemDltExchange: itemDltExchange}
}

type ItemHandler interface {
	CreateItem(ctx context.Context, item stock.Item) error
}

// ConsumeItems streams catalog updates into the item handler. Messages that
// fail to parse or persist go to the dead letter topic rather than blocking
// the stream.
func (c *CatalogQueue) ConsumeItems(ctx context.Context, handler ItemHandler) {
	c.queue.Stream(ctx, c.itemQueue, func(delivery amqp.Delivery) {
		item := stock.Item{}
		err := json.Unmarshal(delivery.Body, &item)
		if err != nil {
			log.Error().Err(err).Msg("error unmarshalling item, writing to dlt")
			c.sendToDlt(ctx, delivery.Body)
			return
		}

		err = handler.CreateItem(ctx, item)
		if err != nil {
			log.Error().Err(err).Msg("error handling item, writing to dlt")
			c.sendToDlt(ctx, delivery.Body)
		}
	}, bunnyq.StreamOpAutoAck)
}

func (c *CatalogQueue) sendToDlt(ctx context.Context, data []byte) {
	err := c.queue.Publish(ctx, c.itemDltExchange, data)
	if err != nil {
		log.Error().Err(err).Msg("error writing to dlt")
	}
}
