package api

import (
	"errors"
	"net/http"

	"github.com/rentkit/rental-service/core/stock"
)

var (
	errMissingSku      = errors.New("sku is required")
	errMissingName     = errors.New("name is required")
	errInvalidLocation = errors.New("invalid location id")
)

type ItemRequestDto struct {
	*stock.Item
}

func (d *ItemRequestDto) Bind(_ *http.Request) error {
	if d.Item == nil || d.Sku == "" {
		return errMissingSku
	}
	if d.Name == "" {
		return errMissingName
	}
	return nil
}

type ItemResponse struct {
	stock.Item
}

func NewItemResponse(item stock.Item) *ItemResponse {
	return &ItemResponse{Item: item}
}

func (d *ItemResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

type LocationRequestDto struct {
	*stock.Location
}

func (d *LocationRequestDto) Bind(_ *http.Request) error {
	if d.Location == nil || d.Name == "" {
		return errMissingName
	}
	return nil
}

type LocationResponse struct {
	stock.Location
}

func NewLocationResponse(location stock.Location) *LocationResponse {
	return &LocationResponse{Location: location}
}

func (d *LocationResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

type StockLevelResponse struct {
	stock.StockLevel
	Available int64 `json:"available"`
}

func NewStockLevelResponse(level stock.StockLevel) *StockLevelResponse {
	return &StockLevelResponse{StockLevel: level, Available: level.Available()}
}

func (d *StockLevelResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

type MovementRequestDto struct {
	*stock.MovementRequest
}

func (d *MovementRequestDto) Bind(_ *http.Request) error {
	if d.MovementRequest == nil {
		return errors.New("missing required movement fields")
	}
	if d.RequestID == "" {
		return errors.New("requestId is required")
	}
	if d.Actor == "" {
		return errors.New("actor is required")
	}
	if _, err := stock.ParseMovementType(string(d.Type)); err != nil {
		return err
	}
	return nil
}

type MovementResponse struct {
	stock.StockMovement
}

func NewMovementResponse(m stock.StockMovement) *MovementResponse {
	return &MovementResponse{StockMovement: m}
}

func (d *MovementResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

type TransferRequestDto struct {
	*stock.TransferRequest
}

func (d *TransferRequestDto) Bind(_ *http.Request) error {
	if d.TransferRequest == nil {
		return errors.New("missing required transfer fields")
	}
	if d.RequestID == "" {
		return errors.New("requestId is required")
	}
	if d.Quantity < 1 {
		return errors.New("quantity must be positive")
	}
	if d.FromLocationID == d.ToLocationID {
		return errors.New("from and to locations must differ")
	}
	return nil
}
