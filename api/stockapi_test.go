package api_test

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/rentkit/rental-service/api"
	"github.com/rentkit/rental-service/core"
	"github.com/rentkit/rental-service/core/stock"
	"github.com/rentkit/rental-service/testutil"
)

func setupStockTestServer() (*httptest.Server, *stock.MockService) {
	mockSvc := stock.NewMockService()
	stockApi := api.NewStockApi(&mockSvc)
	r := chi.NewRouter()
	stockApi.ConfigureRouter(r)
	ts := httptest.NewServer(r)

	return ts, &mockSvc
}

// bufferedConn reads through the bufio.Reader returned by the websocket
// dialer so handshake-buffered frames are not lost.
type bufferedConn struct {
	net.Conn
	br *bufio.Reader
}

func (c bufferedConn) Read(p []byte) (int, error) { return c.br.Read(p) }

func getTestItems() []stock.Item {
	return []stock.Item{
		{Sku: "kayak", Name: "Kayak"},
		{Sku: "paddle", Name: "Paddle"},
		{Sku: "helmet", Name: "Helmet"},
	}
}

func TestStockSubscribe(t *testing.T) {
	ts, mockSvc := setupStockTestServer()
	defer ts.Close()

	subscribeCalled := false
	unsubscribeCalled := false

	mockSvc.SubscribeStockLevelsFunc = func(ch chan<- stock.StockLevel) stock.LevelSubscriptionID {
		subscribeCalled = true
		go func() {
			for i := int64(1); i <= 3; i++ {
				ch <- stock.StockLevel{Sku: "kayak", LocationID: 1, OnHand: i}
			}
			close(ch)
		}()
		return "sub1"
	}
	mockSvc.UnsubscribeStockLevelsFunc = func(id stock.LevelSubscriptionID) {
		unsubscribeCalled = true
	}

	url := strings.Replace(ts.URL, "http", "ws", 1) + "/subscribe"
	rawConn, br, _, err := ws.DefaultDialer.Dial(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	var conn net.Conn = rawConn
	if br != nil {
		// Frames the dialer buffered while reading the handshake must be
		// drained through br before touching the raw connection.
		conn = bufferedConn{Conn: rawConn, br: br}
	}

	for i := int64(1); i <= 3; i++ {
		got := &stock.StockLevel{}
		testutil.ReadWs(conn, got, t)

		if got.OnHand != i {
			t.Errorf("unexpected ws response[%d] got=[%d] want=[%d]", i, got.OnHand, i)
		}
	}

	// The server closes the connection once the channel drains, and it
	// unsubscribes before closing.
	if _, _, err = wsutil.ReadServerData(conn); err == nil {
		t.Error("expected connection to close after channel drained")
	}

	if !subscribeCalled {
		t.Error("subscribe never called")
	}
	if !unsubscribeCalled {
		t.Error("unsubscribe never called")
	}
}

func TestStockListItems(t *testing.T) {
	ts, mockSvc := setupStockTestServer()
	defer ts.Close()

	tests := []struct {
		limit          int
		wantLimit      int
		offset         int
		wantOffset     int
		items          []stock.Item
		serviceErr     error
		wantErr        *api.ErrResponse
		wantStatusCode int
	}{
		{
			limit:          -1,
			wantLimit:      50,
			offset:         -1,
			wantOffset:     0,
			items:          getTestItems(),
			serviceErr:     nil,
			wantErr:        nil,
			wantStatusCode: http.StatusOK,
		},
		{
			limit:          5,
			wantLimit:      5,
			offset:         7,
			wantOffset:     7,
			items:          getTestItems(),
			serviceErr:     nil,
			wantErr:        nil,
			wantStatusCode: http.StatusOK,
		},
		{
			limit:          -1,
			wantLimit:      50,
			offset:         -1,
			wantOffset:     0,
			items:          []stock.Item{},
			serviceErr:     errors.New("something bad happened"),
			wantErr:        api.ErrInternalServer,
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, test := range tests {
		gotLimit := -1
		gotOffset := -1
		mockSvc.GetAllItemsFunc = func(ctx context.Context, limit, offset int) ([]stock.Item, error) {
			gotLimit = limit
			gotOffset = offset
			return test.items, test.serviceErr
		}

		url := ts.URL
		if test.limit > -1 {
			url += fmt.Sprintf("?limit=%d&offset=%d", test.limit, test.offset)
		}

		res, err := http.Get(url)
		if err != nil {
			t.Fatal(err)
		}

		if test.wantErr == nil {
			got := []stock.Item{}
			testutil.Unmarshal(res, &got, t)

			if len(got) != len(test.items) {
				t.Errorf("items got=%d want=%d", len(got), len(test.items))
			}
			for i := range got {
				if got[i].Sku != test.items[i].Sku {
					t.Errorf("item[%d] sku got=%s want=%s", i, got[i].Sku, test.items[i].Sku)
				}
			}
		} else {
			got := api.ErrResponse{}
			testutil.Unmarshal(res, &got, t)

			if got.StatusText != test.wantErr.StatusText {
				t.Errorf("status text got=%s want=%s", got.StatusText, test.wantErr.StatusText)
			}
		}

		if res.StatusCode != test.wantStatusCode {
			t.Errorf("status code got=[%d] want=[%d]", res.StatusCode, test.wantStatusCode)
		}
		if gotLimit != test.wantLimit {
			t.Errorf("limit got=[%d] want=[%d]", gotLimit, test.wantLimit)
		}
		if gotOffset != test.wantOffset {
			t.Errorf("offset got=[%d] want=[%d]", gotOffset, test.wantOffset)
		}
	}
}

func TestStockCreateItem(t *testing.T) {
	ts, mockSvc := setupStockTestServer()
	defer ts.Close()

	tests := []struct {
		request        stock.Item
		serviceErr     error
		wantErr        *api.ErrResponse
		wantStatusCode int
	}{
		{
			request:        stock.Item{Sku: "kayak", Name: "Kayak"},
			serviceErr:     nil,
			wantErr:        nil,
			wantStatusCode: http.StatusCreated,
		},
		{
			request:        stock.Item{Name: "Kayak"},
			serviceErr:     nil,
			wantErr:        api.ErrInvalidRequest(errors.New("sku is required")).(*api.ErrResponse),
			wantStatusCode: http.StatusBadRequest,
		},
		{
			request:        stock.Item{Sku: "kayak"},
			serviceErr:     nil,
			wantErr:        api.ErrInvalidRequest(errors.New("name is required")).(*api.ErrResponse),
			wantStatusCode: http.StatusBadRequest,
		},
		{
			request:        stock.Item{Sku: "kayak", Name: "Kayak"},
			serviceErr:     errors.New("some unexpected error"),
			wantErr:        api.ErrInternalServer,
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, test := range tests {
		mockSvc.CreateItemFunc = func(ctx context.Context, item stock.Item) error {
			return test.serviceErr
		}

		res := testutil.Put(ts.URL, test.request, t)

		if res.StatusCode != test.wantStatusCode {
			t.Errorf("status code got=%d want=%d", res.StatusCode, test.wantStatusCode)
		}

		if test.wantErr == nil {
			got := api.ItemResponse{}
			testutil.Unmarshal(res, &got, t)

			if got.Sku != test.request.Sku {
				t.Errorf("sku got=%s want=%s", got.Sku, test.request.Sku)
			}
		} else {
			got := &api.ErrResponse{}
			testutil.Unmarshal(res, got, t)

			if got.StatusText != test.wantErr.StatusText {
				t.Errorf("status text got=%s want=%s", got.StatusText, test.wantErr.StatusText)
			}
			if got.ErrorText != test.wantErr.ErrorText {
				t.Errorf("error text got=%s want=%s", got.ErrorText, test.wantErr.ErrorText)
			}
		}
	}
}

func TestStockRecordMovement(t *testing.T) {
	ts, mockSvc := setupStockTestServer()
	defer ts.Close()

	tests := []struct {
		getItemFunc        func(ctx context.Context, sku string) (stock.Item, error)
		recordMovementFunc func(ctx context.Context, mr stock.MovementRequest, options ...core.UpdateOptions) (stock.StockMovement, error)
		request            stock.MovementRequest
		wantErr            *api.ErrResponse
		wantStatusCode     int
	}{
		{
			getItemFunc: func(ctx context.Context, sku string) (stock.Item, error) {
				return stock.Item{Sku: sku, Name: "Kayak"}, nil
			},
			recordMovementFunc: func(ctx context.Context, mr stock.MovementRequest, options ...core.UpdateOptions) (stock.StockMovement, error) {
				return stock.StockMovement{ID: 1, Sku: mr.Sku, Type: mr.Type, Quantity: mr.Quantity}, nil
			},
			request:        stock.MovementRequest{RequestID: "req1", Type: stock.Purchase, Quantity: 10, Actor: "clerk"},
			wantErr:        nil,
			wantStatusCode: http.StatusCreated,
		},
		{
			getItemFunc: func(ctx context.Context, sku string) (stock.Item, error) {
				return stock.Item{}, core.ErrNotFound
			},
			recordMovementFunc: nil,
			request:            stock.MovementRequest{RequestID: "req1", Type: stock.Purchase, Quantity: 10, Actor: "clerk"},
			wantErr:            api.ErrNotFound,
			wantStatusCode:     http.StatusNotFound,
		},
		{
			getItemFunc: func(ctx context.Context, sku string) (stock.Item, error) {
				return stock.Item{Sku: sku, Name: "Kayak"}, nil
			},
			recordMovementFunc: func(ctx context.Context, mr stock.MovementRequest, options ...core.UpdateOptions) (stock.StockMovement, error) {
				return stock.StockMovement{}, core.ErrInsufficientStock
			},
			request: stock.MovementRequest{RequestID: "req1", Type: stock.Sale, Quantity: -10, Actor: "clerk"},
			wantErr: &api.ErrResponse{
				StatusText: "Conflict.",
				ErrorText:  core.ErrInsufficientStock.Error(),
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			getItemFunc: func(ctx context.Context, sku string) (stock.Item, error) {
				return stock.Item{Sku: sku, Name: "Kayak"}, nil
			},
			recordMovementFunc: nil,
			request:            stock.MovementRequest{RequestID: "req1", Type: "BOGUS", Quantity: 10, Actor: "clerk"},
			wantErr:            api.ErrInvalidRequest(errors.New("invalid movement type")).(*api.ErrResponse),
			wantStatusCode:     http.StatusBadRequest,
		},
	}

	for _, test := range tests {
		mockSvc.GetItemFunc = test.getItemFunc
		mockSvc.RecordMovementFunc = test.recordMovementFunc

		res := testutil.Put(ts.URL+"/kayak/movement", test.request, t)

		if res.StatusCode != test.wantStatusCode {
			t.Errorf("status code got=%d want=%d", res.StatusCode, test.wantStatusCode)
		}

		if test.wantErr == nil {
			got := api.MovementResponse{}
			testutil.Unmarshal(res, &got, t)

			// The handler stamps the url sku onto the request.
			if got.Sku != "kayak" {
				t.Errorf("sku got=%s want=kayak", got.Sku)
			}
		} else {
			got := &api.ErrResponse{}
			testutil.Unmarshal(res, got, t)

			if got.StatusText != test.wantErr.StatusText {
				t.Errorf("status text got=%s want=%s", got.StatusText, test.wantErr.StatusText)
			}
			if got.ErrorText != test.wantErr.ErrorText {
				t.Errorf("error text got=%s want=%s", got.ErrorText, test.wantErr.ErrorText)
			}
		}
	}
}

func TestStockGetStockLevel(t *testing.T) {
	ts, mockSvc := setupStockTestServer()
	defer ts.Close()

	mockSvc.GetItemFunc = func(ctx context.Context, sku string) (stock.Item, error) {
		return stock.Item{Sku: sku, Name: "Kayak"}, nil
	}
	mockSvc.GetStockLevelFunc = func(ctx context.Context, sku string, locationID uint64) (stock.StockLevel, error) {
		return stock.StockLevel{Sku: sku, LocationID: locationID, OnHand: 10, Reserved: 4, OnRent: 2}, nil
	}

	res, err := http.Get(ts.URL + "/kayak/1/level")
	if err != nil {
		t.Fatal(err)
	}

	if res.StatusCode != http.StatusOK {
		t.Errorf("status code got=%d want=%d", res.StatusCode, http.StatusOK)
	}

	got := api.StockLevelResponse{}
	testutil.Unmarshal(res, &got, t)

	want := api.StockLevelResponse{
		StockLevel: stock.StockLevel{Sku: "kayak", LocationID: 1, OnHand: 10, Reserved: 4, OnRent: 2},
		Available:  6,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("stock level\n got=%+v\nwant=%+v", got, want)
	}
}

func TestStockTransfer(t *testing.T) {
	ts, mockSvc := setupStockTestServer()
	defer ts.Close()

	mockSvc.GetItemFunc = func(ctx context.Context, sku string) (stock.Item, error) {
		return stock.Item{Sku: sku, Name: "Kayak"}, nil
	}

	tests := []struct {
		request        stock.TransferRequest
		wantErr        *api.ErrResponse
		wantStatusCode int
	}{
		{
			request:        stock.TransferRequest{RequestID: "t1", FromLocationID: 1, ToLocationID: 2, Quantity: 4, Actor: "clerk"},
			wantErr:        nil,
			wantStatusCode: http.StatusCreated,
		},
		{
			request:        stock.TransferRequest{RequestID: "t1", FromLocationID: 1, ToLocationID: 1, Quantity: 4, Actor: "clerk"},
			wantErr:        api.ErrInvalidRequest(errors.New("from and to locations must differ")).(*api.ErrResponse),
			wantStatusCode: http.StatusBadRequest,
		},
		{
			request:        stock.TransferRequest{FromLocationID: 1, ToLocationID: 2, Quantity: 4, Actor: "clerk"},
			wantErr:        api.ErrInvalidRequest(errors.New("requestId is required")).(*api.ErrResponse),
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, test := range tests {
		gotSku := ""
		mockSvc.TransferFunc = func(ctx context.Context, tr stock.TransferRequest) ([]stock.StockMovement, error) {
			gotSku = tr.Sku
			return []stock.StockMovement{{ID: 1}, {ID: 2}}, nil
		}

		res := testutil.Put(ts.URL+"/kayak/transfer", test.request, t)

		if res.StatusCode != test.wantStatusCode {
			t.Errorf("status code got=%d want=%d", res.StatusCode, test.wantStatusCode)
		}

		if test.wantErr == nil {
			if gotSku != "kayak" {
				t.Errorf("sku got=%s want=kayak", gotSku)
			}
		} else {
			got := &api.ErrResponse{}
			testutil.Unmarshal(res, got, t)

			if got.ErrorText != test.wantErr.ErrorText {
				t.Errorf("error text got=%s want=%s", got.ErrorText, test.wantErr.ErrorText)
			}
		}
	}
}
