package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/betbot/polytrade/clob/signing"
	"github.com/betbot/polytrade/clob/types"
	"github.com/betbot/polytrade/pkg/ratelimit"
)

// CreateOrDeriveAPIKey 推导已有的 API 密钥，不存在时创建新的（L1 方法）
// 成功后凭证会写入客户端，后续 L2 请求直接可用
func (c *Client) CreateOrDeriveAPIKey(ctx context.Context) (*types.ApiKeyCreds, error) {
	creds, err := c.DeriveAPIKey(ctx, 0)
	if err != nil {
		// 400/404 表示账户还没有 API 密钥
		if !IsStatus(err, http.StatusBadRequest, http.StatusNotFound) {
			return nil, err
		}
		c.log.Infof("未找到已有 API 密钥，创建新的: %s", c.Address().Hex())
		creds, err = c.CreateAPIKey(ctx, 0)
		if err != nil {
			return nil, err
		}
	}

	c.SetAPICreds(creds)
	return creds, nil
}

// DeriveAPIKey 推导现有 API 密钥
func (c *Client) DeriveAPIKey(ctx context.Context, nonce int64) (*types.ApiKeyCreds, error) {
	return c.apiKeyRequest(ctx, http.MethodGet, EndpointDeriveAPIKey, nonce)
}

// CreateAPIKey 创建新的 API 密钥
func (c *Client) CreateAPIKey(ctx context.Context, nonce int64) (*types.ApiKeyCreds, error) {
	return c.apiKeyRequest(ctx, http.MethodPost, EndpointCreateAPIKey, nonce)
}

func (c *Client) apiKeyRequest(ctx context.Context, method, path string, nonce int64) (*types.ApiKeyCreds, error) {
	if err := c.CanL1Auth(); err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(ctx, ratelimit.EndpointAuth); err != nil {
		return nil, fmt.Errorf("速率限制等待失败: %w", err)
	}

	headers, err := signing.CreateL1Headers(c.privateKey, c.chainID, nonce, nil)
	if err != nil {
		return nil, fmt.Errorf("创建 L1 认证头失败: %w", err)
	}

	var raw types.ApiKeyRaw
	req := request{method: method, path: path, headers: headers.Map()}
	if err := c.http.do(ctx, req, &raw); err != nil {
		return nil, fmt.Errorf("API 密钥请求失败 (%s %s): %w", method, path, err)
	}

	creds := &types.ApiKeyCreds{
		Key:        raw.ApiKey,
		Secret:     raw.Secret,
		Passphrase: raw.Passphrase,
	}
	if !creds.Complete() {
		return nil, fmt.Errorf("API 密钥响应不完整")
	}
	return creds, nil
}
