package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/rentkit/rental-service/core"
	"github.com/rentkit/rental-service/core/stock"
	"github.com/rs/zerolog/log"
)

// StockService is the slice of the stock service the handlers need.
type StockService interface {
	CreateItem(ctx context.Context, item stock.Item) error
	GetItem(ctx context.Context, sku string) (stock.Item, error)
	GetAllItems(ctx context.Context, limit, offset int) ([]stock.Item, error)
	CreateLocation(ctx context.Context, location *stock.Location) error

	GetStockLevel(ctx context.Context, sku string, locationID uint64) (stock.StockLevel, error)
	GetAllStockLevels(ctx context.Context, limit, offset int) ([]stock.StockLevel, error)
	GetMovements(ctx context.Context, sku string, locationID uint64, limit, offset int) ([]stock.StockMovement, error)

	RecordMovement(ctx context.Context, mr stock.MovementRequest, options ...core.UpdateOptions) (stock.StockMovement, error)
	Transfer(ctx context.Context, tr stock.TransferRequest) ([]stock.StockMovement, error)

	SubscribeStockLevels(ch chan<- stock.StockLevel) stock.LevelSubscriptionID
	UnsubscribeStockLevels(id stock.LevelSubscriptionID)
}

type StockApi struct {
	service StockService
}

func NewStockApi(service StockService) *StockApi {
	return &StockApi{service: service}
}

func (a *StockApi) ConfigureRouter(r chi.Router) {
	r.HandleFunc("/subscribe", a.Subscribe)
	r.With(Paginate).Get("/", a.ListItems)
	r.Put("/", a.CreateItem)
	r.Put("/location", a.CreateLocation)
	r.With(Paginate).Get("/level", a.ListStockLevels)

	r.Route("/{sku}", func(r chi.Router) {
		r.Use(a.ItemCtx)
		r.Get("/", a.GetItem)
		r.Put("/movement", a.RecordMovement)
		r.Put("/transfer", a.Transfer)
		r.Route("/{locationId}", func(r chi.Router) {
			r.Get("/level", a.GetStockLevel)
			r.With(Paginate).Get("/movement", a.ListMovements)
		})
	})
}

// ItemCtx loads the item for the sku url parameter into the request context.
func (a *StockApi) ItemCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sku := chi.URLParam(r, "sku")
		if sku == "" {
			Render(w, r, ErrInvalidRequest(errMissingSku))
			return
		}

		item, err := a.service.GetItem(r.Context(), sku)
		if err != nil {
			RenderErr(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), CtxKeyItem, item)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *StockApi) CreateItem(w http.ResponseWriter, r *http.Request) {
	data := &ItemRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	if err := a.service.CreateItem(r.Context(), *data.Item); err != nil {
		RenderErr(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, NewItemResponse(*data.Item))
}

func (a *StockApi) GetItem(w http.ResponseWriter, r *http.Request) {
	item := r.Context().Value(CtxKeyItem).(stock.Item)
	Render(w, r, NewItemResponse(item))
}

func (a *StockApi) ListItems(w http.ResponseWriter, r *http.Request) {
	limit := r.Context().Value(CtxKeyLimit).(int)
	offset := r.Context().Value(CtxKeyOffset).(int)

	items, err := a.service.GetAllItems(r.Context(), limit, offset)
	if err != nil {
		RenderErr(w, r, err)
		return
	}

	list := make([]render.Renderer, 0, len(items))
	for _, item := range items {
		list = append(list, NewItemResponse(item))
	}
	RenderList(w, r, list)
}

func (a *StockApi) CreateLocation(w http.ResponseWriter, r *http.Request) {
	data := &LocationRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	if err := a.service.CreateLocation(r.Context(), data.Location); err != nil {
		RenderErr(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, NewLocationResponse(*data.Location))
}

func (a *StockApi) GetStockLevel(w http.ResponseWriter, r *http.Request) {
	item := r.Context().Value(CtxKeyItem).(stock.Item)
	locationID, err := strconv.ParseUint(chi.URLParam(r, "locationId"), 10, 64)
	if err != nil {
		Render(w, r, ErrInvalidRequest(errInvalidLocation))
		return
	}

	level, err := a.service.GetStockLevel(r.Context(), item.Sku, locationID)
	if err != nil {
		RenderErr(w, r, err)
		return
	}
	Render(w, r, NewStockLevelResponse(level))
}

func (a *StockApi) ListStockLevels(w http.ResponseWriter, r *http.Request) {
	limit := r.Context().Value(CtxKeyLimit).(int)
	offset := r.Context().Value(CtxKeyOffset).(int)

	levels, err := a.service.GetAllStockLevels(r.Context(), limit, offset)
	if err != nil {
		RenderErr(w, r, err)
		return
	}

	list := make([]render.Renderer, 0, len(levels))
	for _, level := range levels {
		list = append(list, NewStockLevelResponse(level))
	}
	RenderList(w, r, list)
}

func (a *StockApi) ListMovements(w http.ResponseWriter, r *http.Request) {
	item := r.Context().Value(CtxKeyItem).(stock.Item)
	locationID, err := strconv.ParseUint(chi.URLParam(r, "locationId"), 10, 64)
	if err != nil {
		Render(w, r, ErrInvalidRequest(errInvalidLocation))
		return
	}
	limit := r.Context().Value(CtxKeyLimit).(int)
	offset := r.Context().Value(CtxKeyOffset).(int)

	movements, err := a.service.GetMovements(r.Context(), item.Sku, locationID, limit, offset)
	if err != nil {
		RenderErr(w, r, err)
		return
	}

	list := make([]render.Renderer, 0, len(movements))
	for _, m := range movements {
		list = append(list, NewMovementResponse(m))
	}
	RenderList(w, r, list)
}

func (a *StockApi) RecordMovement(w http.ResponseWriter, r *http.Request) {
	item := r.Context().Value(CtxKeyItem).(stock.Item)

	data := &MovementRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}
	data.Sku = item.Sku

	movement, err := a.service.RecordMovement(r.Context(), *data.MovementRequest)
	if err != nil {
		RenderErr(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, NewMovementResponse(movement))
}

func (a *StockApi) Transfer(w http.ResponseWriter, r *http.Request) {
	item := r.Context().Value(CtxKeyItem).(stock.Item)

	data := &TransferRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}
	data.Sku = item.Sku

	movements, err := a.service.Transfer(r.Context(), *data.TransferRequest)
	if err != nil {
		RenderErr(w, r, err)
		return
	}

	list := make([]render.Renderer, 0, len(movements))
	for _, m := range movements {
		list = append(list, NewMovementResponse(m))
	}
	render.Status(r, http.StatusCreated)
	RenderList(w, r, list)
}

// Subscribe upgrades the connection to a websocket and streams stock level
// updates until the client goes away.
func (a *StockApi) Subscribe(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		log.Err(err).Msg("failed to establish stock level subscription")
		Render(w, r, ErrInternalServer)
		return
	}

	ch := make(chan stock.StockLevel, 1)
	id := a.service.SubscribeStockLevels(ch)

	go func() {
		defer func() {
			a.service.UnsubscribeStockLevels(id)
			if err := conn.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close subscriber connection")
			}
		}()

		for level := range ch {
			body, err := json.Marshal(level)
			if err != nil {
				log.Err(err).Msg("failed to marshal stock level for subscriber")
				continue
			}
			if err = wsutil.WriteServerText(conn, body); err != nil {
				log.Debug().Err(err).Msg("subscriber went away")
				return
			}
		}
	}()
}
