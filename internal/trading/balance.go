package trading

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/betbot/polytrade/clob/client"
	"github.com/betbot/polytrade/clob/types"
	"github.com/betbot/polytrade/pkg/config"
	"github.com/shopspring/decimal"
)

// USDCAddress Polygon 上的 USDC 合约地址
const USDCAddress = client.USDCPolygon

// BalanceResult 抵押品余额
type BalanceResult struct {
	Amount    decimal.Decimal `json:"amount"`              // USDC 数量
	Raw       string          `json:"raw"`                 // 交易所返回的 6 位精度整数
	Asset     string          `json:"asset"`               // 资产合约地址
	Allowance string          `json:"allowance,omitempty"` // 原始授权额度
}

// Balance 查询 USDC 余额；失败时返回 ErrBalance，不会与真实的零余额混淆
func (a *Adapter) Balance(ctx context.Context, settings *config.Settings) (BalanceResult, error) {
	ex, err := a.GetClient(ctx, settings)
	if err != nil {
		return BalanceResult{}, wrapKind(ErrBalance, err, "get client")
	}

	sigType := types.SignatureType(settings.SignatureType)
	resp, err := ex.GetBalanceAllowance(ctx, &types.BalanceAllowanceParams{
		AssetType:     types.AssetTypeCollateral,
		SignatureType: &sigType,
	})
	if err != nil {
		return BalanceResult{}, wrapKind(ErrBalance, err, "get balance allowance")
	}
	if resp == nil {
		return BalanceResult{}, wrapKind(ErrBalance, nil, "get balance allowance: empty response")
	}

	return usdcBalance(resp)
}

// usdcBalance 取 USDC 条目：多资产视图优先，否则使用抵押品余额
func usdcBalance(resp *types.BalanceAllowanceResponse) (BalanceResult, error) {
	res := BalanceResult{Asset: USDCAddress, Raw: resp.Balance, Allowance: resp.Allowance}
	for addr, entry := range resp.Balances {
		if strings.EqualFold(addr, USDCAddress) {
			res.Raw = entry.Balance
			res.Allowance = entry.Allowance
			break
		}
	}
	if res.Allowance == "" {
		res.Allowance = exchangeAllowance(resp.Allowances)
	}

	if res.Raw == "" {
		return BalanceResult{}, wrapKind(ErrBalance, nil, "balance missing from response")
	}
	raw, err := decimal.NewFromString(res.Raw)
	if err != nil {
		return BalanceResult{}, wrapKind(ErrBalance, err, "parse balance "+res.Raw)
	}
	res.Amount = raw.Shift(-client.CollateralTokenDecimals)
	return res, nil
}

// exchangeAllowance 优先取 CTF Exchange 的授权，否则取地址排序后的第一个
func exchangeAllowance(allowances map[string]string) string {
	spenders := slices.Sorted(maps.Keys(allowances))
	if len(spenders) == 0 {
		return ""
	}
	for _, spender := range spenders {
		if strings.EqualFold(spender, client.PolygonMainnetContracts.Exchange) {
			return allowances[spender]
		}
	}
	return allowances[spenders[0]]
}

// GetBalance 查询 USDC 余额，任何错误都记录日志并返回 0
func (a *Adapter) GetBalance(ctx context.Context, settings *config.Settings) float64 {
	res, err := a.Balance(ctx, settings)
	if err != nil {
		a.log.WithError(err).Error("Error getting balance")
		return 0.0
	}
	f, _ := res.Amount.Float64()
	return f
}
