package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/betbot/polytrade/clob/types"
	"github.com/polymarket/go-order-utils/pkg/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testSigner = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testFunder = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func testCreds() *types.ApiKeyCreds {
	return &types.ApiKeyCreds{
		Key:        "api-key",
		Secret:     base64.URLEncoding.EncodeToString([]byte("0123456789abcdef")),
		Passphrase: "pass",
	}
}

func newTestClient(t *testing.T, host string, mutate func(*Options)) *Client {
	t.Helper()
	opts := Options{
		Host:          host,
		PrivateKey:    testKey,
		Creds:         testCreds(),
		Funder:        testFunder,
		SignatureType: types.SignatureTypeGnosisSafe,
	}
	if mutate != nil {
		mutate(&opts)
	}
	c, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{PrivateKey: "zz"})
	assert.Error(t, err)

	_, err = New(Options{PrivateKey: testKey, ChainID: 1})
	assert.Error(t, err)

	_, err = New(Options{PrivateKey: testKey, Funder: "not-an-address"})
	assert.Error(t, err)

	_, err = New(Options{PrivateKey: testKey, SignatureType: 7})
	assert.Error(t, err)

	c, err := New(Options{PrivateKey: testKey})
	require.NoError(t, err)
	assert.Equal(t, DefaultHost, c.GetHost())
	assert.Equal(t, types.ChainPolygon, c.GetChainID())
	assert.Equal(t, testSigner, c.Address().Hex())
	assert.Equal(t, testSigner, c.Funder(), "没有代理钱包时 maker 为签名者")
	assert.NoError(t, c.CanL1Auth())
	assert.Error(t, c.CanL2Auth())
}

func TestCreateOrDeriveAPIKey_FallsBackToCreate(t *testing.T) {
	var derived, created int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testSigner, r.Header.Get("POLY_ADDRESS"))
		assert.NotEmpty(t, r.Header.Get("POLY_SIGNATURE"))
		assert.Equal(t, "0", r.Header.Get("POLY_NONCE"))

		switch {
		case r.Method == http.MethodGet && r.URL.Path == EndpointDeriveAPIKey:
			atomic.AddInt32(&derived, 1)
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		case r.Method == http.MethodPost && r.URL.Path == EndpointCreateAPIKey:
			atomic.AddInt32(&created, 1)
			_ = json.NewEncoder(w).Encode(types.ApiKeyRaw{ApiKey: "k", Secret: "c2VjcmV0", Passphrase: "p"})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(o *Options) { o.Creds = nil })
	require.Error(t, c.CanL2Auth())

	creds, err := c.CreateOrDeriveAPIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "k", creds.Key)
	assert.EqualValues(t, 1, atomic.LoadInt32(&derived))
	assert.EqualValues(t, 1, atomic.LoadInt32(&created))
	assert.NoError(t, c.CanL2Auth())
	assert.Equal(t, creds, c.APICreds())
}

func TestCreateOrDeriveAPIKey_PropagatesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			t.Error("should not create after a 401")
		}
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(o *Options) { o.Creds = nil })
	_, err := c.CreateOrDeriveAPIKey(context.Background())
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
}

func TestGetBalanceAllowance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, EndpointGetBalanceAllowance, r.URL.Path)
		assert.Equal(t, "COLLATERAL", r.URL.Query().Get("asset_type"))
		assert.Equal(t, "2", r.URL.Query().Get("signature_type"))
		assert.Equal(t, "api-key", r.Header.Get("POLY_API_KEY"))
		assert.Equal(t, "pass", r.Header.Get("POLY_PASSPHRASE"))
		_, _ = w.Write([]byte(`{"balance":"12345678","allowance":"0"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	resp, err := c.GetBalanceAllowance(context.Background(), &types.BalanceAllowanceParams{AssetType: types.AssetTypeCollateral})
	require.NoError(t, err)
	assert.Equal(t, "12345678", resp.Balance)
}

func TestGetBalanceAllowance_RetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"balance":"1","allowance":"0"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(o *Options) { o.RetryCount = 1 })
	resp, err := c.GetBalanceAllowance(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "1", resp.Balance)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestPlaceOrder_PostsSignedOrder(t *testing.T) {
	var got types.NewOrder
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, EndpointPostOrder, r.URL.Path)
		assert.Equal(t, "api-key", r.Header.Get("POLY_API_KEY"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"orderID":"0xabc","status":"live","tradeIDs":["t1"]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	resp, err := c.PlaceOrder(context.Background(), &types.OrderArgs{
		Price:   0.5,
		Size:    10,
		Side:    types.SideBuy,
		TokenID: "123",
	})
	require.NoError(t, err)
	assert.Equal(t, "0xabc", resp.OrderID)
	assert.JSONEq(t, `{"success":true,"orderID":"0xabc","status":"live","tradeIDs":["t1"]}`, string(resp.Raw))

	assert.Equal(t, "api-key", got.Owner)
	assert.Equal(t, types.OrderTypeGTC, got.OrderType)
	assert.Equal(t, types.SideBuy, got.Order.Side)
	assert.Equal(t, "123", got.Order.TokenID)
	assert.Equal(t, "5000000", got.Order.MakerAmount)
	assert.Equal(t, "10000000", got.Order.TakerAmount)
	assert.True(t, strings.EqualFold(testFunder, got.Order.Maker))
	assert.True(t, strings.EqualFold(testSigner, got.Order.Signer))
	assert.Equal(t, int(types.SignatureTypeGnosisSafe), got.Order.SignatureType)
	assert.True(t, strings.HasPrefix(got.Order.Signature, "0x"))
	assert.Equal(t, "0", got.Order.Expiration)
}

func TestPlaceOrder_DoesNotRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, `{"error":"down"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(o *Options) { o.RetryCount = 3 })
	_, err := c.PlaceOrder(context.Background(), &types.OrderArgs{Price: 0.5, Size: 10, Side: types.SideSell, TokenID: "123"})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusServiceUnavailable))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestPlaceOrder_DryRunSkipsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("dry run hit the network: %s %s", r.Method, r.URL.Path)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, func(o *Options) {
		o.DryRun = true
		o.Creds = nil
	})
	resp, err := c.PlaceOrder(context.Background(), &types.OrderArgs{Price: 0.5, Size: 10, Side: types.SideSell, TokenID: "123", TimeInForce: "fok"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.OrderID, "dry-"))
	assert.Equal(t, "10000000", resp.MakingAmount)
	assert.Equal(t, "5000000", resp.TakingAmount)
}

func TestPlaceOrder_RejectsBadInput(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1", func(o *Options) { o.DryRun = true })
	ctx := context.Background()

	_, err := c.PlaceOrder(ctx, &types.OrderArgs{Price: 0.5, Size: 10, Side: types.SideBuy, TokenID: "1", TimeInForce: "IOC"})
	assert.Error(t, err)

	_, err = c.PlaceOrder(ctx, &types.OrderArgs{Price: 0.5, Size: 10, Side: types.SideBuy, TokenID: "1", TimeInForce: types.OrderTypeGTD})
	assert.Error(t, err, "GTD 需要过期时间")

	_, err = c.PlaceOrder(ctx, &types.OrderArgs{Price: 1.2, Size: 10, Side: types.SideBuy, TokenID: "1"})
	assert.Error(t, err)

	_, err = c.PlaceOrder(ctx, &types.OrderArgs{Price: 0.5, Size: 0.001, Side: types.SideBuy, TokenID: "1"})
	assert.Error(t, err)

	_, err = c.PlaceOrderWithOptions(ctx, &types.OrderArgs{Price: 0.5, Size: 10, Side: types.SideBuy, TokenID: "1"},
		&types.CreateOrderOptions{TickSize: "0.5"})
	assert.Error(t, err)
}

func TestPlaceOrder_RejectsNonFiniteAmounts(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1", func(o *Options) { o.DryRun = true })

	for _, args := range []*types.OrderArgs{
		{Price: math.Inf(1), Size: 10, Side: types.SideBuy, TokenID: "1"},
		{Price: 0.5, Size: math.Inf(1), Side: types.SideBuy, TokenID: "1"},
		{Price: 0.5, Size: math.NaN(), Side: types.SideSell, TokenID: "1"},
	} {
		assert.NotPanics(t, func() {
			_, err := c.PlaceOrder(context.Background(), args)
			assert.Error(t, err)
		})
	}

	_, _, _, err := getOrderRawAmounts(types.SideBuy, math.Inf(1), 0.5, RoundingConfig[types.TickSize001])
	assert.Error(t, err)
}

func TestGetOrderRawAmounts(t *testing.T) {
	tests := []struct {
		name        string
		side        types.Side
		size, price float64
		tick        types.TickSize
		wantSide    model.Side
		maker       string
		taker       string
	}{
		{"buy", types.SideBuy, 10, 0.5, types.TickSize001, model.BUY, "5", "10"},
		{"sell", types.SideSell, 10, 0.5, types.TickSize001, model.SELL, "10", "5"},
		{"size rounds down", types.SideBuy, 3.456, 0.25, types.TickSize001, model.BUY, "0.8625", "3.45"},
		{"fine tick", types.SideSell, 3.456, 0.123, types.TickSize0001, model.SELL, "3.45", "0.42435"},
		{"two decimal price", types.SideBuy, 1.11, 0.33, types.TickSize001, model.BUY, "0.3663", "1.11"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			side, maker, taker, err := getOrderRawAmounts(tt.side, tt.size, tt.price, RoundingConfig[tt.tick])
			require.NoError(t, err)
			assert.Equal(t, tt.wantSide, side)
			assert.True(t, decimal.RequireFromString(tt.maker).Equal(maker), "maker=%s", maker)
			assert.True(t, decimal.RequireFromString(tt.taker).Equal(taker), "taker=%s", taker)
		})
	}
}

func TestToUnits(t *testing.T) {
	assert.Equal(t, "424350", toUnits(decimal.RequireFromString("0.42435")))
	assert.Equal(t, "10000000", toUnits(decimal.NewFromInt(10)))
}
