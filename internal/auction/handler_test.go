// AngelaMos | 2026
// handler_test.go

package auction

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newRouter(f *fixture) http.Handler {
	r := chi.NewRouter()
	NewHandler(f.service).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestHandlerAuctionFlow(t *testing.T) {
	f := newFixture(t)
	h := newRouter(f)

	code, env := do(t, h, http.MethodPost, "/auctions", fmt.Sprintf(`{
		"flag_id": %d,
		"wallet_address": "%s",
		"starting_price": "0.1",
		"buyout_price": 2,
		"duration_hours": 24
	}`, f.flagID, "0x"+strings.ToUpper(seller[2:])))
	require.Equal(t, http.StatusCreated, code, env.Error)

	var created AuctionResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "0.10000000", created.StartingPrice)
	assert.Equal(t, "0.10000000", created.MinPrice)
	require.NotNil(t, created.BuyoutPrice)
	assert.Equal(t, "2.00000000", *created.BuyoutPrice)
	assert.Equal(t, "active", created.Status)

	bidPath := fmt.Sprintf("/auctions/%d/bid", created.ID)
	code, env = do(t, h, http.MethodPost, bidPath,
		`{"wallet_address": "`+bidderA+`", "amount": 0.5, "bidder_category": "plus"}`)
	require.Equal(t, http.StatusCreated, code)

	var bid BidResponse
	require.NoError(t, json.Unmarshal(env.Data, &bid))
	assert.Equal(t, "0.50000000", bid.Amount)
	assert.Equal(t, "plus", bid.BidderCategory)

	code, env = do(t, h, http.MethodPost, bidPath,
		`{"wallet_address": "`+bidderB+`", "amount": "0.5"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "CONFLICT_STATE", env.Error.Code)

	code, env = do(t, h, http.MethodGet, fmt.Sprintf("/auctions/%d", created.ID), "")
	require.Equal(t, http.StatusOK, code)

	var detail DetailResponse
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, 1, detail.BidCount)
	assert.Equal(t, seller, detail.Seller.WalletAddress)
	assert.Equal(t, f.flagID, detail.Flag.ID)
	require.NotNil(t, detail.HighestBidder)
	assert.Equal(t, bidderA, detail.HighestBidder.WalletAddress)
	require.Len(t, detail.Bids, 1)
	require.NotNil(t, detail.Bids[0].Bidder)

	code, env = do(t, h, http.MethodPost, fmt.Sprintf("/auctions/%d/close", created.ID), "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "NOT_ENDED", env.Error.Code)

	f.clock.Advance(25 * time.Hour)

	code, env = do(t, h, http.MethodPost, fmt.Sprintf("/auctions/%d/close", created.ID), "")
	require.Equal(t, http.StatusOK, code)

	var closed AuctionResponse
	require.NoError(t, json.Unmarshal(env.Data, &closed))
	assert.Equal(t, "closed", closed.Status)
	require.NotNil(t, closed.WinnerCategory)
	assert.Equal(t, "plus", *closed.WinnerCategory)

	code, env = do(t, h, http.MethodGet, "/auctions?active_only=false", "")
	require.Equal(t, http.StatusOK, code)

	var items []ListItemResponse
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 1)
}

func TestHandlerRejectsMalformedInput(t *testing.T) {
	f := newFixture(t)
	h := newRouter(f)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{
			name:   "bad wallet",
			method: http.MethodPost,
			path:   "/auctions",
			body:   `{"flag_id": 1, "wallet_address": "0x123", "starting_price": 1, "duration_hours": 1}`,
			status: http.StatusBadRequest,
			code:   "INVALID",
		},
		{
			name:   "missing price",
			method: http.MethodPost,
			path:   "/auctions",
			body:   `{"flag_id": 1, "wallet_address": "` + seller + `", "duration_hours": 1}`,
			status: http.StatusBadRequest,
			code:   "INVALID",
		},
		{
			name:   "non numeric id",
			method: http.MethodGet,
			path:   "/auctions/abc",
			status: http.StatusBadRequest,
			code:   "INVALID",
		},
		{
			name:   "unknown auction",
			method: http.MethodGet,
			path:   "/auctions/4242",
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
		},
		{
			name:   "nine decimals",
			method: http.MethodPost,
			path:   "/auctions/1/bid",
			body:   `{"wallet_address": "` + bidderA + `", "amount": "0.123456789"}`,
			status: http.StatusBadRequest,
			code:   "INVALID",
		},
		{
			name:   "bad category",
			method: http.MethodPost,
			path:   "/auctions/1/bid",
			body:   `{"wallet_address": "` + bidderA + `", "amount": 1, "bidder_category": "gold"}`,
			status: http.StatusBadRequest,
			code:   "INVALID",
		},
		{
			name:   "bad flag filter",
			method: http.MethodGet,
			path:   "/auctions?flag_id=-3",
			status: http.StatusBadRequest,
			code:   "INVALID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.False(t, env.Success)
		})
	}
}
