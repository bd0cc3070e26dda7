package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const userAgent = "polytrade-clob"

// APIError 交易所返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP 错误 %d: %s", e.StatusCode, e.Body)
}

// httpClient 两个 resty 客户端：读请求可重试，下单请求不重试（避免重复下单）
type httpClient struct {
	read  *resty.Client
	write *resty.Client
}

func newHTTPClient(host string, timeout time.Duration, retries int) *httpClient {
	// resty 会自动从环境变量读取代理配置（HTTP_PROXY, HTTPS_PROXY）
	read := resty.New().
		SetBaseURL(host).
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(10 * time.Second).
		SetRetryAfter(retryAfter).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500
		})

	write := resty.New().
		SetBaseURL(host).
		SetTimeout(timeout)

	return &httpClient{read: read, write: write}
}

// retryAfter 遇到 429 时遵循 Retry-After 头
func retryAfter(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
	if resp == nil || resp.StatusCode() != http.StatusTooManyRequests {
		return 0, nil
	}
	if v := resp.Header().Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			return time.Duration(seconds) * time.Second, nil
		}
	}
	return 5 * time.Second, nil
}

func (h *httpClient) close() {
	h.read.GetClient().CloseIdleConnections()
	h.write.GetClient().CloseIdleConnections()
}

// request 单次请求的参数
type request struct {
	method  string
	path    string
	headers map[string]string
	params  map[string]string
	body    []byte // 已序列化，签名与发送使用同一份字节
}

// do 发送请求并把成功响应解析到 out
func (h *httpClient) do(ctx context.Context, req request, out any) error {
	rc := h.read
	if req.method != http.MethodGet {
		rc = h.write
	}

	r := rc.R().
		SetContext(ctx).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetHeaders(req.headers).
		SetQueryParams(req.params)
	if req.body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(req.body)
	}

	resp, err := r.Execute(req.method, req.path)
	if err != nil {
		return errors.Wrapf(err, "%s %s", req.method, req.path)
	}
	if !resp.IsSuccess() {
		return &APIError{StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(err, "解析响应失败, 响应体: %s", resp.Body())
	}
	return nil
}

// IsStatus err 是否为指定状态码的 APIError
func IsStatus(err error, codes ...int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, code := range codes {
		if apiErr.StatusCode == code {
			return true
		}
	}
	return false
}
