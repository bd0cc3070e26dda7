package client

import (
	"fmt"
	"math"
	"strconv"

	"github.com/betbot/polytrade/clob/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/polymarket/go-order-utils/pkg/model"
	"github.com/shopspring/decimal"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

// RoundConfig 舍入配置
type RoundConfig struct {
	Price  int32 // 价格小数位数
	Size   int32 // 数量小数位数
	Amount int32 // 金额小数位数
}

// RoundingConfig 根据 tick size 返回舍入配置
var RoundingConfig = map[types.TickSize]RoundConfig{
	types.TickSize01:    {Price: 1, Size: 2, Amount: 3},
	types.TickSize001:   {Price: 2, Size: 2, Amount: 4},
	types.TickSize0001:  {Price: 3, Size: 2, Amount: 5},
	types.TickSize00001: {Price: 4, Size: 2, Amount: 6},
}

// buildOrderData 把下单参数转换为 go-order-utils 的订单数据
func (c *Client) buildOrderData(args *types.OrderArgs, opts *types.CreateOrderOptions) (*model.OrderData, error) {
	tick := opts.TickSize
	if tick == "" {
		tick = types.TickSize001
	}
	roundConfig, ok := RoundingConfig[tick]
	if !ok {
		return nil, fmt.Errorf("不支持的 tick size: %s", tick)
	}

	if !isFinite(args.Price) || !isFinite(args.Size) {
		return nil, fmt.Errorf("价格和数量必须是有限数: price=%v size=%v", args.Price, args.Size)
	}

	tickDec := decimal.RequireFromString(string(tick))
	price := decimal.NewFromFloat(args.Price)
	if price.LessThan(tickDec) || price.GreaterThan(decimal.NewFromInt(1).Sub(tickDec)) {
		return nil, fmt.Errorf("价格 %s 超出范围 [%s, %s]", price, tickDec, decimal.NewFromInt(1).Sub(tickDec))
	}

	side, makerAmt, takerAmt, err := getOrderRawAmounts(args.Side, args.Size, args.Price, roundConfig)
	if err != nil {
		return nil, err
	}

	expiration := "0"
	if args.TimeInForce == types.OrderTypeGTD {
		if opts.Expiration <= 0 {
			return nil, fmt.Errorf("GTD 订单必须设置过期时间")
		}
		expiration = strconv.FormatInt(opts.Expiration, 10)
	}

	return &model.OrderData{
		Maker:         c.Funder(),
		Taker:         zeroAddress,
		TokenId:       args.TokenID,
		MakerAmount:   toUnits(makerAmt),
		TakerAmount:   toUnits(takerAmt),
		Side:          side,
		FeeRateBps:    strconv.Itoa(opts.FeeRateBps),
		Nonce:         "0",
		Signer:        c.Address().Hex(),
		Expiration:    expiration,
		SignatureType: model.SignatureType(c.signatureType),
	}, nil
}

// getOrderRawAmounts 计算订单的 maker/taker 金额（未乘精度）
// 买入：maker 支付 USDC，taker 获得 tokens；卖出相反
func getOrderRawAmounts(
	side types.Side,
	size float64,
	price float64,
	roundConfig RoundConfig,
) (model.Side, decimal.Decimal, decimal.Decimal, error) {
	// decimal.NewFromFloat 遇到 NaN/Inf 会 panic
	if !isFinite(price) || !isFinite(size) {
		return 0, decimal.Zero, decimal.Zero, fmt.Errorf("价格和数量必须是有限数: size=%v price=%v", size, price)
	}
	rawPrice := decimal.NewFromFloat(price).Round(roundConfig.Price)
	tokens := decimal.NewFromFloat(size).RoundDown(roundConfig.Size)
	usdc := roundAmount(tokens.Mul(rawPrice), roundConfig.Amount)

	if tokens.IsZero() || usdc.IsZero() {
		return 0, decimal.Zero, decimal.Zero, fmt.Errorf("订单数量过小: size=%v price=%v", size, price)
	}

	switch side {
	case types.SideBuy:
		return model.BUY, usdc, tokens, nil
	case types.SideSell:
		return model.SELL, tokens, usdc, nil
	default:
		return 0, decimal.Zero, decimal.Zero, fmt.Errorf("未知订单方向: %q", side)
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// roundAmount 金额超出精度时先向上取到 places+4 位消除浮点误差，仍超出再向下截断
func roundAmount(amount decimal.Decimal, places int32) decimal.Decimal {
	if decimalPlaces(amount) <= places {
		return amount
	}
	amount = amount.RoundUp(places + 4)
	if decimalPlaces(amount) > places {
		amount = amount.RoundDown(places)
	}
	return amount
}

func decimalPlaces(d decimal.Decimal) int32 {
	var n int32
	for !d.Equal(d.Truncate(n)) {
		n++
	}
	return n
}

// toUnits 转换为 6 位精度的整数字符串
func toUnits(amount decimal.Decimal) string {
	return amount.Shift(CollateralTokenDecimals).Truncate(0).String()
}

// toSignedOrderJSON 转换为 POST /order 的 JSON 格式
func toSignedOrderJSON(order *model.SignedOrder) types.SignedOrder {
	side := types.SideBuy
	if order.Side.Uint64() == uint64(model.SELL) {
		side = types.SideSell
	}

	return types.SignedOrder{
		Salt:          order.Salt.Int64(),
		Maker:         order.Maker.Hex(),
		Signer:        order.Signer.Hex(),
		Taker:         order.Taker.Hex(),
		TokenID:       order.TokenId.String(),
		MakerAmount:   order.MakerAmount.String(),
		TakerAmount:   order.TakerAmount.String(),
		Expiration:    order.Expiration.String(),
		Nonce:         order.Nonce.String(),
		FeeRateBps:    order.FeeRateBps.String(),
		Side:          side,
		SignatureType: int(order.SignatureType.Int64()),
		Signature:     "0x" + common.Bytes2Hex(order.Signature),
	}
}
