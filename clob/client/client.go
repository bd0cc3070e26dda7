package client

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/betbot/polytrade/clob/signing"
	"github.com/betbot/polytrade/clob/types"
	"github.com/betbot/polytrade/pkg/logger"
	"github.com/betbot/polytrade/pkg/ratelimit"
	"github.com/ethereum/go-ethereum/common"
	"github.com/polymarket/go-order-utils/pkg/builder"
	"github.com/sirupsen/logrus"
)

// DefaultHost CLOB 生产环境地址
const DefaultHost = "https://clob.polymarket.com"

// Options 客户端构造参数
type Options struct {
	Host          string
	ChainID       types.Chain
	PrivateKey    string             // hex，可带 0x
	Creds         *types.ApiKeyCreds // 为空时需调用 CreateOrDeriveAPIKey
	Funder        string             // 代理钱包地址，作为订单 maker
	SignatureType types.SignatureType
	DryRun        bool // 只签名不提交

	Timeout    time.Duration
	RetryCount int
	Logger     *logrus.Entry
}

// Client CLOB 客户端
type Client struct {
	host          string
	chainID       types.Chain
	privateKey    *ecdsa.PrivateKey
	funder        string
	signatureType types.SignatureType
	dryRun        bool

	mu    sync.RWMutex
	creds *types.ApiKeyCreds

	http         *httpClient
	orderBuilder builder.ExchangeOrderBuilder
	rateLimiter  *ratelimit.Manager
	log          *logrus.Entry
}

// New 创建新的 CLOB 客户端
func New(opts Options) (*Client, error) {
	key, err := signing.PrivateKeyFromHex(opts.PrivateKey)
	if err != nil {
		return nil, err
	}

	if opts.ChainID == 0 {
		opts.ChainID = types.ChainPolygon
	}
	if _, err := GetContractConfig(opts.ChainID); err != nil {
		return nil, err
	}
	if !opts.SignatureType.Valid() {
		return nil, fmt.Errorf("不支持的签名类型: %d", opts.SignatureType)
	}
	if opts.Funder != "" && !common.IsHexAddress(opts.Funder) {
		return nil, fmt.Errorf("funder 不是有效地址: %s", opts.Funder)
	}

	host := strings.TrimSuffix(opts.Host, "/")
	if host == "" {
		host = DefaultHost
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryCount < 0 {
		opts.RetryCount = 0
	}

	log := opts.Logger
	if log == nil {
		log = logger.WithField("component", "clob")
	}

	c := &Client{
		host:          host,
		chainID:       opts.ChainID,
		privateKey:    key,
		funder:        opts.Funder,
		signatureType: opts.SignatureType,
		dryRun:        opts.DryRun,
		http:          newHTTPClient(host, opts.Timeout, opts.RetryCount),
		orderBuilder:  builder.NewExchangeOrderBuilderImpl(big.NewInt(int64(opts.ChainID)), nil),
		rateLimiter:   ratelimit.NewManager(),
		log:           log,
	}
	if opts.Creds != nil {
		c.SetAPICreds(opts.Creds)
	}
	return c, nil
}

// Close 释放底层连接
func (c *Client) Close() error {
	c.http.close()
	return nil
}

// GetHost 获取主机地址
func (c *Client) GetHost() string {
	return c.host
}

// GetChainID 获取链 ID
func (c *Client) GetChainID() types.Chain {
	return c.chainID
}

// Address 签名者地址（从私钥计算）
func (c *Client) Address() common.Address {
	return signing.GetAddressFromPrivateKey(c.privateKey)
}

// Funder 订单 maker 地址：配置了代理钱包时为代理钱包，否则为签名者
func (c *Client) Funder() string {
	if c.funder != "" {
		return c.funder
	}
	return c.Address().Hex()
}

// SignatureType 签名类型
func (c *Client) SignatureType() types.SignatureType {
	return c.signatureType
}

// DryRun 是否为演练模式
func (c *Client) DryRun() bool {
	return c.dryRun
}

// SetAPICreds 设置 L2 API 凭证
func (c *Client) SetAPICreds(creds *types.ApiKeyCreds) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if creds == nil {
		c.creds = nil
		return
	}
	cp := *creds
	c.creds = &cp
}

// APICreds 当前 L2 凭证的副本，未设置时返回 nil
func (c *Client) APICreds() *types.ApiKeyCreds {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.creds == nil {
		return nil
	}
	cp := *c.creds
	return &cp
}

// CanL1Auth 检查是否可以进行 L1 认证
func (c *Client) CanL1Auth() error {
	if c.privateKey == nil {
		return fmt.Errorf("L1 认证不可用: 私钥未配置")
	}
	return nil
}

// CanL2Auth 检查是否可以进行 L2 认证
func (c *Client) CanL2Auth() error {
	if err := c.CanL1Auth(); err != nil {
		return err
	}
	if !c.APICreds().Complete() {
		return fmt.Errorf("L2 认证不可用: API 凭证未配置")
	}
	return nil
}
