package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/betbot/polytrade/clob/signing"
	"github.com/betbot/polytrade/clob/types"
	"github.com/betbot/polytrade/pkg/ratelimit"
)

// GetBalanceAllowance 获取余额和授权（L2）
func (c *Client) GetBalanceAllowance(ctx context.Context, params *types.BalanceAllowanceParams) (*types.BalanceAllowanceResponse, error) {
	if err := c.CanL2Auth(); err != nil {
		return nil, err
	}
	if params == nil {
		params = &types.BalanceAllowanceParams{AssetType: types.AssetTypeCollateral}
	}
	if err := c.rateLimiter.Wait(ctx, ratelimit.EndpointBalanceGet); err != nil {
		return nil, fmt.Errorf("速率限制等待失败: %w", err)
	}

	query := map[string]string{
		"asset_type": string(params.AssetType),
	}
	if params.TokenID != nil {
		query["token_id"] = *params.TokenID
	}
	sigType := c.signatureType
	if params.SignatureType != nil {
		sigType = *params.SignatureType
	}
	query["signature_type"] = strconv.Itoa(int(sigType))

	// 签名只覆盖路径，不含查询参数
	headers, err := signing.CreateL2Headers(c.privateKey, c.APICreds(), &types.L2HeaderArgs{
		Method:      http.MethodGet,
		RequestPath: EndpointGetBalanceAllowance,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("创建 L2 认证头失败: %w", err)
	}

	var balance types.BalanceAllowanceResponse
	req := request{
		method:  http.MethodGet,
		path:    EndpointGetBalanceAllowance,
		headers: headers.Map(),
		params:  query,
	}
	if err := c.http.do(ctx, req, &balance); err != nil {
		return nil, fmt.Errorf("获取余额和授权失败: %w", err)
	}

	c.log.Debugf("余额API响应: balance=%q allowance=%q", balance.Balance, balance.Allowance)
	return &balance, nil
}
