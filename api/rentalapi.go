package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/rentkit/rental-service/core/rental"
)

// RentalService is the slice of the rental service the handlers need.
type RentalService interface {
	Book(ctx context.Context, br rental.BookingRequest) (rental.Rental, error)
	Cancel(ctx context.Context, rentalID uint64, actor string) (rental.Rental, error)
	Pickup(ctx context.Context, rentalID uint64, actor string) (rental.Rental, error)
	Extend(ctx context.Context, rentalID uint64, newReturn time.Time, actor string) (rental.Rental, error)
	Return(ctx context.Context, rr rental.ReturnRequest) (rental.Rental, rental.Settlement, error)
	GetRental(ctx context.Context, ID uint64) (rental.Rental, error)
	GetRentals(ctx context.Context, filter rental.GetRentalsOptions, limit, offset int) ([]rental.Rental, error)
	GetSettlement(ctx context.Context, rentalID uint64) (rental.Settlement, error)
}

type RentalApi struct {
	service RentalService
}

func NewRentalApi(service RentalService) *RentalApi {
	return &RentalApi{service: service}
}

func (a *RentalApi) ConfigureRouter(r chi.Router) {
	r.With(Paginate).Get("/", a.List)
	r.Put("/", a.Book)

	r.Route("/{rentalId}", func(r chi.Router) {
		r.Use(a.RentalCtx)
		r.Get("/", a.Get)
		r.Put("/cancel", a.Cancel)
		r.Put("/pickup", a.Pickup)
		r.Put("/extend", a.Extend)
		r.Put("/return", a.Return)
		r.Get("/settlement", a.GetSettlement)
	})
}

// RentalCtx loads the rental for the rentalId url parameter into the request
// context.
func (a *RentalApi) RentalCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(chi.URLParam(r, "rentalId"), 10, 64)
		if err != nil {
			Render(w, r, ErrInvalidRequest(errInvalidRentalID))
			return
		}

		rr, err := a.service.GetRental(r.Context(), id)
		if err != nil {
			RenderErr(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), CtxKeyRental, rr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *RentalApi) Book(w http.ResponseWriter, r *http.Request) {
	data := &BookingRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	booked, err := a.service.Book(r.Context(), *data.BookingRequest)
	if err != nil {
		RenderErr(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, NewRentalResponse(booked, time.Now()))
}

func (a *RentalApi) Get(w http.ResponseWriter, r *http.Request) {
	rr := r.Context().Value(CtxKeyRental).(rental.Rental)
	Render(w, r, NewRentalResponse(rr, time.Now()))
}

func (a *RentalApi) List(w http.ResponseWriter, r *http.Request) {
	limit := r.Context().Value(CtxKeyLimit).(int)
	offset := r.Context().Value(CtxKeyOffset).(int)

	state, err := rental.ParseState(r.URL.Query().Get("state"))
	if err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}
	filter := rental.GetRentalsOptions{
		Renter:      r.URL.Query().Get("renter"),
		Sku:         r.URL.Query().Get("sku"),
		State:       state,
		OverdueOnly: r.URL.Query().Get("overdue") == "true",
	}

	rentals, err := a.service.GetRentals(r.Context(), filter, limit, offset)
	if err != nil {
		RenderErr(w, r, err)
		return
	}

	now := time.Now()
	list := make([]render.Renderer, 0, len(rentals))
	for _, rr := range rentals {
		list = append(list, NewRentalResponse(rr, now))
	}
	RenderList(w, r, list)
}

func (a *RentalApi) Cancel(w http.ResponseWriter, r *http.Request) {
	rr := r.Context().Value(CtxKeyRental).(rental.Rental)

	data := &ActorDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	cancelled, err := a.service.Cancel(r.Context(), rr.ID, data.Actor)
	if err != nil {
		RenderErr(w, r, err)
		return
	}
	Render(w, r, NewRentalResponse(cancelled, time.Now()))
}

func (a *RentalApi) Pickup(w http.ResponseWriter, r *http.Request) {
	rr := r.Context().Value(CtxKeyRental).(rental.Rental)

	data := &ActorDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	picked, err := a.service.Pickup(r.Context(), rr.ID, data.Actor)
	if err != nil {
		RenderErr(w, r, err)
		return
	}
	Render(w, r, NewRentalResponse(picked, time.Now()))
}

func (a *RentalApi) Extend(w http.ResponseWriter, r *http.Request) {
	rr := r.Context().Value(CtxKeyRental).(rental.Rental)

	data := &ExtendRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	extended, err := a.service.Extend(r.Context(), rr.ID, data.NewReturn, data.Actor)
	if err != nil {
		RenderErr(w, r, err)
		return
	}
	Render(w, r, NewRentalResponse(extended, time.Now()))
}

func (a *RentalApi) Return(w http.ResponseWriter, r *http.Request) {
	rr := r.Context().Value(CtxKeyRental).(rental.Rental)

	data := &ReturnRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}
	data.RentalID = rr.ID

	returned, settlement, err := a.service.Return(r.Context(), *data.ReturnRequest)
	if err != nil {
		RenderErr(w, r, err)
		return
	}
	Render(w, r, NewReturnResponse(returned, settlement, time.Now()))
}

func (a *RentalApi) GetSettlement(w http.ResponseWriter, r *http.Request) {
	rr := r.Context().Value(CtxKeyRental).(rental.Rental)

	settlement, err := a.service.GetSettlement(r.Context(), rr.ID)
	if err != nil {
		RenderErr(w, r, err)
		return
	}
	Render(w, r, NewSettlementResponse(settlement))
}
