package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/rentkit/rental-service/core/pricing"
	"github.com/rentkit/rental-service/core/stock"
)

// PricingService is the slice of the pricing service the handlers need.
type PricingService interface {
	Resolve(ctx context.Context, item stock.Item, rentalDays int, asOf time.Time) (pricing.Quote, error)

	CreateTier(ctx context.Context, tier *pricing.Tier) error
	GetTier(ctx context.Context, ID uint64) (pricing.Tier, error)
	GetTiersBySku(ctx context.Context, sku string) ([]pricing.Tier, error)
	DeleteTier(ctx context.Context, ID uint64) error
}

type PricingApi struct {
	service PricingService
	stock   StockService
}

func NewPricingApi(service PricingService, stockSvc StockService) *PricingApi {
	return &PricingApi{service: service, stock: stockSvc}
}

func (a *PricingApi) ConfigureRouter(r chi.Router) {
	r.Put("/tier", a.CreateTier)
	r.Get("/tier/{tierId}", a.GetTier)
	r.Delete("/tier/{tierId}", a.DeleteTier)
	r.Get("/{sku}/tiers", a.ListTiers)
	r.Get("/{sku}/quote", a.Quote)
}

func (a *PricingApi) CreateTier(w http.ResponseWriter, r *http.Request) {
	data := &TierRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	if err := a.service.CreateTier(r.Context(), data.Tier); err != nil {
		RenderErr(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, NewTierResponse(*data.Tier))
}

func (a *PricingApi) GetTier(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "tierId"), 10, 64)
	if err != nil {
		Render(w, r, ErrInvalidRequest(errInvalidTierID))
		return
	}

	tier, err := a.service.GetTier(r.Context(), id)
	if err != nil {
		RenderErr(w, r, err)
		return
	}
	Render(w, r, NewTierResponse(tier))
}

func (a *PricingApi) DeleteTier(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "tierId"), 10, 64)
	if err != nil {
		Render(w, r, ErrInvalidRequest(errInvalidTierID))
		return
	}

	if err = a.service.DeleteTier(r.Context(), id); err != nil {
		RenderErr(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func (a *PricingApi) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := a.service.GetTiersBySku(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		RenderErr(w, r, err)
		return
	}

	list := make([]render.Renderer, 0, len(tiers))
	for _, tier := range tiers {
		list = append(list, NewTierResponse(tier))
	}
	RenderList(w, r, list)
}

// Quote prices a prospective rental without creating anything. days is
// required; asOf defaults to today.
func (a *PricingApi) Quote(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days < 1 {
		Render(w, r, ErrInvalidRequest(errInvalidDays))
		return
	}

	asOf := time.Now()
	if asOfParam := r.URL.Query().Get("asOf"); asOfParam != "" {
		asOf, err = time.Parse("2006-01-02", asOfParam)
		if err != nil {
			Render(w, r, ErrInvalidRequest(err))
			return
		}
	}

	item, err := a.stock.GetItem(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		RenderErr(w, r, err)
		return
	}

	quote, err := a.service.Resolve(r.Context(), item, days, asOf)
	if err != nil {
		RenderErr(w, r, err)
		return
	}
	Render(w, r, NewQuoteResponse(quote))
}
