package trading

import (
	"context"
	"strings"
	"testing"

	"github.com/betbot/polytrade/clob/client"
	"github.com/betbot/polytrade/clob/types"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func collateralParams(sigType types.SignatureType) interface{} {
	return mock.MatchedBy(func(p *types.BalanceAllowanceParams) bool {
		return p.AssetType == types.AssetTypeCollateral && p.SignatureType != nil && *p.SignatureType == sigType
	})
}

func TestBalance_SelectsUSDCEntry(t *testing.T) {
	f := &countingFactory{prepare: func(m *MockExchange) {
		m.On("GetBalanceAllowance", mock.Anything, collateralParams(types.SignatureTypeGnosisSafe)).Return(&types.BalanceAllowanceResponse{
			Balance: "1",
			Balances: map[string]types.BalanceEntry{
				"0x0000000000000000000000000000000000000001": {Balance: "999"},
				strings.ToLower(USDCAddress):                 {Balance: "12500000", Allowance: "max"},
			},
		}, nil)
	}}
	a, _ := newTestAdapter(f)

	res, err := a.Balance(context.Background(), funderSettings())
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(res.Amount), res.Amount.String())
	assert.Equal(t, "12500000", res.Raw)
	assert.Equal(t, USDCAddress, res.Asset)
	assert.Equal(t, "max", res.Allowance)
	f.made[0].AssertExpectations(t)
}

func TestBalance_FallsBackToCollateralBalance(t *testing.T) {
	f := &countingFactory{prepare: func(m *MockExchange) {
		m.On("GetBalanceAllowance", mock.Anything, mock.Anything).Return(&types.BalanceAllowanceResponse{
			Balance:    "0",
			Allowances: map[string]string{"0xspender": "100"},
		}, nil)
	}}
	a, _ := newTestAdapter(f)

	res, err := a.Balance(context.Background(), funderSettings())
	require.NoError(t, err, "真实的零余额不是错误")
	assert.True(t, res.Amount.IsZero())
	assert.Equal(t, "100", res.Allowance)
}

func TestExchangeAllowance(t *testing.T) {
	exchange := strings.ToLower(client.PolygonMainnetContracts.Exchange)
	assert.Equal(t, "", exchangeAllowance(nil))
	assert.Equal(t, "7", exchangeAllowance(map[string]string{"0xbb": "1", exchange: "7", "0xaa": "2"}))

	multi := map[string]string{"0xcc": "3", "0xaa": "1", "0xbb": "2"}
	for i := 0; i < 20; i++ {
		assert.Equal(t, "1", exchangeAllowance(multi))
	}
}

func TestBalance_Errors(t *testing.T) {
	sdkErr := errors.New("HTTP 错误 401")
	tests := []struct {
		name string
		resp *types.BalanceAllowanceResponse
		err  error
	}{
		{"query failed", nil, sdkErr},
		{"empty response", nil, nil},
		{"missing balance", &types.BalanceAllowanceResponse{}, nil},
		{"malformed balance", &types.BalanceAllowanceResponse{Balance: "lots"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &countingFactory{prepare: func(m *MockExchange) {
				m.On("GetBalanceAllowance", mock.Anything, mock.Anything).Return(tt.resp, tt.err)
			}}
			a, _ := newTestAdapter(f)

			_, err := a.Balance(context.Background(), funderSettings())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrBalance)
			if tt.err != nil {
				assert.Equal(t, tt.err, errors.Cause(err))
			}
		})
	}
}

func TestBalance_ConfigErrorIsBalanceError(t *testing.T) {
	f := &countingFactory{}
	a, _ := newTestAdapter(f)

	s := funderSettings()
	s.Funder = ""
	_, err := a.Balance(context.Background(), s)
	assert.ErrorIs(t, err, ErrBalance)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Equal(t, 0, f.Calls())
}

func TestGetBalance_ReturnsZeroAndLogsOnFailure(t *testing.T) {
	f := &countingFactory{prepare: func(m *MockExchange) {
		m.On("GetBalanceAllowance", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
	}}
	a, hook := newTestAdapter(f)

	got := a.GetBalance(context.Background(), funderSettings())
	assert.Equal(t, 0.0, got)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "Error getting balance", entry.Message)
	assert.ErrorIs(t, entry.Data[logrus.ErrorKey].(error), ErrBalance)
}

func TestGetBalance_MissingCredentialsReturnsZero(t *testing.T) {
	f := &countingFactory{}
	a, hook := newTestAdapter(f)

	s := funderSettings()
	s.PrivateKey = ""
	assert.Equal(t, 0.0, a.GetBalance(context.Background(), s))
	assert.Equal(t, 0, f.Calls())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestGetBalance_Success(t *testing.T) {
	f := &countingFactory{prepare: func(m *MockExchange) {
		m.On("GetBalanceAllowance", mock.Anything, mock.Anything).Return(&types.BalanceAllowanceResponse{Balance: "42750000"}, nil)
	}}
	a, _ := newTestAdapter(f)

	assert.InDelta(t, 42.75, a.GetBalance(context.Background(), funderSettings()), 1e-9)
}
