package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/rentkit/rental-service/api"
	"github.com/rentkit/rental-service/core"
	"github.com/rentkit/rental-service/core/pricing"
	"github.com/rentkit/rental-service/core/stock"
	"github.com/rentkit/rental-service/testutil"
	"github.com/shopspring/decimal"
)

func setupPricingTestServer() (*httptest.Server, *pricing.MockService, *stock.MockService) {
	mockSvc := pricing.NewMockService()
	mockStock := stock.NewMockService()
	pricingApi := api.NewPricingApi(&mockSvc, &mockStock)
	r := chi.NewRouter()
	pricingApi.ConfigureRouter(r)
	ts := httptest.NewServer(r)

	return ts, &mockSvc, &mockStock
}

func TestPricingCreateTier(t *testing.T) {
	ts, mockSvc, _ := setupPricingTestServer()
	defer ts.Close()

	tests := []struct {
		request        pricing.Tier
		serviceErr     error
		wantStatusCode int
	}{
		{
			request:        pricing.Tier{Sku: "kayak", PeriodType: pricing.Weekly, PeriodDays: 7, RatePerPeriod: decimal.NewFromInt(300)},
			serviceErr:     nil,
			wantStatusCode: http.StatusCreated,
		},
		{
			request:        pricing.Tier{PeriodType: pricing.Weekly, PeriodDays: 7},
			serviceErr:     nil,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			request:        pricing.Tier{Sku: "kayak", PeriodType: "BOGUS", PeriodDays: 7},
			serviceErr:     nil,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			request:        pricing.Tier{Sku: "kayak", PeriodType: pricing.Weekly, PeriodDays: 7},
			serviceErr:     core.ErrDataIntegrity,
			wantStatusCode: http.StatusUnprocessableEntity,
		},
	}

	for _, test := range tests {
		mockSvc.CreateTierFunc = func(ctx context.Context, tier *pricing.Tier) error {
			return test.serviceErr
		}

		res := testutil.Put(ts.URL+"/tier", test.request, t)

		if res.StatusCode != test.wantStatusCode {
			t.Errorf("status code got=%d want=%d", res.StatusCode, test.wantStatusCode)
		}
	}
}

func TestPricingQuote(t *testing.T) {
	ts, mockSvc, mockStock := setupPricingTestServer()
	defer ts.Close()

	mockStock.GetItemFunc = func(ctx context.Context, sku string) (stock.Item, error) {
		return stock.Item{Sku: sku, Name: "Kayak", BaseDailyRate: decimal.NewFromInt(50)}, nil
	}

	gotDays := 0
	gotAsOf := time.Time{}
	mockSvc.ResolveFunc = func(ctx context.Context, item stock.Item, rentalDays int, asOf time.Time) (pricing.Quote, error) {
		gotDays = rentalDays
		gotAsOf = asOf
		return pricing.Quote{Sku: item.Sku, RentalDays: rentalDays, TotalCost: decimal.NewFromInt(450)}, nil
	}

	res, err := http.Get(ts.URL + "/kayak/quote?days=10&asOf=2024-06-01")
	if err != nil {
		t.Fatal(err)
	}

	if res.StatusCode != http.StatusOK {
		t.Errorf("status code got=%d want=%d", res.StatusCode, http.StatusOK)
	}

	got := api.QuoteResponse{}
	testutil.Unmarshal(res, &got, t)

	if got.Sku != "kayak" {
		t.Errorf("sku got=%s want=kayak", got.Sku)
	}
	if !got.TotalCost.Equal(decimal.NewFromInt(450)) {
		t.Errorf("total got=%s want=450", got.TotalCost)
	}
	if gotDays != 10 {
		t.Errorf("days got=%d want=10", gotDays)
	}
	if want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC); !gotAsOf.Equal(want) {
		t.Errorf("asOf got=%s want=%s", gotAsOf, want)
	}
}

func TestPricingQuoteValidation(t *testing.T) {
	ts, _, mockStock := setupPricingTestServer()
	defer ts.Close()

	tests := []struct {
		name           string
		url            string
		itemErr        error
		wantStatusCode int
	}{
		{name: "missing days", url: "/kayak/quote", wantStatusCode: http.StatusBadRequest},
		{name: "zero days", url: "/kayak/quote?days=0", wantStatusCode: http.StatusBadRequest},
		{name: "bad asOf", url: "/kayak/quote?days=3&asOf=june", wantStatusCode: http.StatusBadRequest},
		{name: "unknown sku", url: "/ghost/quote?days=3", itemErr: core.ErrNotFound, wantStatusCode: http.StatusNotFound},
	}

	for _, test := range tests {
		mockStock.GetItemFunc = func(ctx context.Context, sku string) (stock.Item, error) {
			return stock.Item{Sku: sku}, test.itemErr
		}

		res, err := http.Get(ts.URL + test.url)
		if err != nil {
			t.Fatal(err)
		}

		if res.StatusCode != test.wantStatusCode {
			t.Errorf("%s: status code got=%d want=%d", test.name, res.StatusCode, test.wantStatusCode)
		}
	}
}

func TestPricingDeleteTier(t *testing.T) {
	ts, mockSvc, _ := setupPricingTestServer()
	defer ts.Close()

	gotID := uint64(0)
	mockSvc.DeleteTierFunc = func(ctx context.Context, ID uint64) error {
		gotID = ID
		return nil
	}

	res := testutil.Delete(ts.URL+"/tier/9", t)

	if res.StatusCode != http.StatusNoContent {
		t.Errorf("status code got=%d want=%d", res.StatusCode, http.StatusNoContent)
	}
	if gotID != 9 {
		t.Errorf("tier id got=%d want=9", gotID)
	}
}
