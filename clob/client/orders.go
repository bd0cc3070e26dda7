package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/betbot/polytrade/clob/signing"
	"github.com/betbot/polytrade/clob/types"
	"github.com/betbot/polytrade/pkg/ratelimit"
	"github.com/google/uuid"
	"github.com/polymarket/go-order-utils/pkg/model"
)

// PlaceOrder 签名并提交限价单（默认 tick size 0.01，标准交易所）
func (c *Client) PlaceOrder(ctx context.Context, args *types.OrderArgs) (*types.OrderResponse, error) {
	return c.PlaceOrderWithOptions(ctx, args, nil)
}

// PlaceOrderWithOptions 签名并提交限价单
// 提交失败不重试，由调用方决定是否重新下单
func (c *Client) PlaceOrderWithOptions(ctx context.Context, args *types.OrderArgs, opts *types.CreateOrderOptions) (*types.OrderResponse, error) {
	if args == nil {
		return nil, fmt.Errorf("订单参数为空")
	}
	if opts == nil {
		opts = &types.CreateOrderOptions{}
	}

	normalized := *args
	normalized.TimeInForce = types.OrderType(strings.ToUpper(string(args.TimeInForce)))
	if normalized.TimeInForce == "" {
		normalized.TimeInForce = types.OrderTypeGTC
	}
	if !normalized.TimeInForce.Valid() {
		return nil, fmt.Errorf("不支持的 time_in_force: %s", args.TimeInForce)
	}
	if normalized.TokenID == "" {
		return nil, fmt.Errorf("token_id 不能为空")
	}

	if !c.dryRun {
		if err := c.CanL2Auth(); err != nil {
			return nil, err
		}
	}

	signed, err := c.CreateOrder(&normalized, opts)
	if err != nil {
		return nil, err
	}

	if c.dryRun {
		id := "dry-" + uuid.NewString()
		c.log.Infof("[DRY RUN] 跳过下单: id=%s side=%s token=%s price=%v size=%v tif=%s",
			id, normalized.Side, normalized.TokenID, normalized.Price, normalized.Size, normalized.TimeInForce)
		return &types.OrderResponse{
			Success:      true,
			OrderID:      id,
			Status:       "dry_run",
			MakingAmount: signed.MakerAmount,
			TakingAmount: signed.TakerAmount,
		}, nil
	}

	return c.PostOrder(ctx, signed, normalized.TimeInForce)
}

// CreateOrder 构建并签名订单（不提交）
func (c *Client) CreateOrder(args *types.OrderArgs, opts *types.CreateOrderOptions) (*types.SignedOrder, error) {
	if opts == nil {
		opts = &types.CreateOrderOptions{}
	}

	data, err := c.buildOrderData(args, opts)
	if err != nil {
		return nil, fmt.Errorf("构建订单失败: %w", err)
	}

	contract := model.CTFExchange
	if opts.NegRisk {
		contract = model.NegRiskCTFExchange
	}

	order, err := c.orderBuilder.BuildSignedOrder(c.privateKey, data, contract)
	if err != nil {
		return nil, fmt.Errorf("签名订单失败: %w", err)
	}

	signed := toSignedOrderJSON(order)
	return &signed, nil
}

// PostOrder 提交已签名的订单
func (c *Client) PostOrder(ctx context.Context, order *types.SignedOrder, orderType types.OrderType) (*types.OrderResponse, error) {
	if err := c.CanL2Auth(); err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx, ratelimit.EndpointOrderPost); err != nil {
		return nil, fmt.Errorf("速率限制等待失败: %w", err)
	}

	creds := c.APICreds()
	payload := types.NewOrder{
		Order:     *order,
		Owner:     creds.Key,
		OrderType: orderType,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化订单载荷失败: %w", err)
	}
	bodyStr := string(body)

	headers, err := signing.CreateL2Headers(c.privateKey, creds, &types.L2HeaderArgs{
		Method:      http.MethodPost,
		RequestPath: EndpointPostOrder,
		Body:        &bodyStr,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("创建 L2 认证头失败: %w", err)
	}

	c.log.Debugf("提交订单: %s", bodyStr)

	var resp types.OrderResponse
	req := request{
		method:  http.MethodPost,
		path:    EndpointPostOrder,
		headers: headers.Map(),
		body:    body,
	}
	if err := c.http.do(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("提交订单失败: %w", err)
	}

	c.log.Infof("订单已提交: id=%s status=%s success=%v", resp.OrderID, resp.Status, resp.Success)
	return &resp, nil
}
