package trading

import (
	"context"
	"math"
	"strings"

	"github.com/betbot/polytrade/clob/types"
	"github.com/betbot/polytrade/pkg/config"
	"github.com/sirupsen/logrus"
)

// OrderRequest 下单请求
type OrderRequest struct {
	Side        string  `json:"side"`
	TokenID     string  `json:"token_id"`
	Price       float64 `json:"price"`
	Size        float64 `json:"size"`
	TimeInForce string  `json:"time_in_force,omitempty"` // 默认 GTC
}

// Normalize 按顺序校验并转换为 SDK 参数：price、size、token_id、side
func (r OrderRequest) Normalize() (types.OrderArgs, error) {
	// !(x > 0) 同时拒绝 NaN
	if !(r.Price > 0) || math.IsInf(r.Price, 0) {
		return types.OrderArgs{}, validationError("price must be > 0")
	}
	if !(r.Size > 0) || math.IsInf(r.Size, 0) {
		return types.OrderArgs{}, validationError("size must be > 0")
	}
	if r.TokenID == "" {
		return types.OrderArgs{}, validationError("token_id is required")
	}
	side, err := types.ParseSide(r.Side)
	if err != nil {
		return types.OrderArgs{}, validationError("side must be BUY or SELL")
	}

	tif := types.OrderType(strings.ToUpper(strings.TrimSpace(r.TimeInForce)))
	if tif == "" {
		tif = types.OrderTypeGTC
	}

	return types.OrderArgs{
		Price:       r.Price,
		Size:        r.Size,
		Side:        side,
		TokenID:     r.TokenID,
		TimeInForce: tif,
	}, nil
}

// PlaceOrder 校验后提交订单，交易所响应原样返回；失败不重试
func (a *Adapter) PlaceOrder(ctx context.Context, settings *config.Settings, req OrderRequest) (*types.OrderResponse, error) {
	args, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	ex, err := a.GetClient(ctx, settings)
	if err != nil {
		return nil, err
	}

	log := a.log.WithFields(logrus.Fields{
		"side":  args.Side,
		"token": args.TokenID,
		"price": args.Price,
		"size":  args.Size,
		"tif":   args.TimeInForce,
	})

	resp, err := ex.PlaceOrder(ctx, &args)
	if err != nil {
		log.WithError(err).Warn("下单失败")
		return nil, wrapKind(ErrOrderFailed, err, "place_order failed")
	}

	if resp != nil {
		log.Infof("下单完成: id=%s status=%s", resp.OrderID, resp.Status)
	}
	return resp, nil
}
