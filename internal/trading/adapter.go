package trading

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/betbot/polytrade/pkg/config"
	"github.com/betbot/polytrade/pkg/logger"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Adapter 交易适配器：校验输入，缓存客户端，委托给交易所 SDK
//
// 客户端缓存容量为 1：凭证不变时复用，凭证变化时关闭旧客户端并创建新的。
type Adapter struct {
	factory Factory
	store   CredentialStore
	log     logrus.FieldLogger

	mu     sync.Mutex
	key    Credentials
	cached Exchange
}

// Option 适配器选项
type Option func(*Adapter)

// WithFactory 替换客户端构造函数（测试或自定义 SDK）
func WithFactory(f Factory) Option {
	return func(a *Adapter) { a.factory = f }
}

// WithLogger 设置日志
func WithLogger(log logrus.FieldLogger) Option {
	return func(a *Adapter) { a.log = log }
}

// WithCredentialStore 设置派生凭证的持久化存储
func WithCredentialStore(store CredentialStore) Option {
	return func(a *Adapter) { a.store = store }
}

// New 创建交易适配器
func New(opts ...Option) *Adapter {
	a := &Adapter{}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.WithField("component", "trading")
	}
	if a.factory == nil {
		a.factory = NewClientFactory(a.store, a.log)
	}
	return a
}

// GetClient 返回与当前凭证对应的客户端
func (a *Adapter) GetClient(ctx context.Context, settings *config.Settings) (Exchange, error) {
	if err := checkCredentials(settings); err != nil {
		return nil, err
	}
	key := CredentialsFrom(settings)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cached != nil && a.key == key {
		return a.cached, nil
	}

	ex, err := a.factory(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "create clob client")
	}

	if a.cached != nil {
		a.log.Info("凭证已变化，替换缓存的客户端")
		closeExchange(a.cached, a.log)
	}
	a.key = key
	a.cached = ex
	return ex, nil
}

// checkCredentials 按凭证策略检查必填项
func checkCredentials(s *config.Settings) error {
	if s == nil || s.PrivateKey == "" {
		return configError("POLYMARKET_PRIVATE_KEY is required")
	}

	switch s.Policy() {
	case config.PolicyAPIKey:
		var missing []string
		if s.APIKey == "" {
			missing = append(missing, "POLYMARKET_API_KEY")
		}
		if s.APISecret == "" {
			missing = append(missing, "POLYMARKET_API_SECRET")
		}
		if s.APIPassphrase == "" {
			missing = append(missing, "POLYMARKET_API_PASSPHRASE")
		}
		if len(missing) > 0 {
			return configError("API credentials are required: missing " + strings.Join(missing, ", "))
		}
	case config.PolicyFunder:
		if s.Funder == "" {
			return configError("POLYMARKET_FUNDER (your wallet address) is required")
		}
	default:
		return configError("unknown credential policy: " + string(s.CredentialPolicy))
	}
	return nil
}

// Close 关闭缓存的客户端和凭证存储
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cached != nil {
		closeExchange(a.cached, a.log)
		a.cached = nil
		a.key = Credentials{}
	}
	if c, ok := a.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func closeExchange(ex Exchange, log logrus.FieldLogger) {
	c, ok := ex.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		log.WithError(err).Warn("关闭客户端失败")
	}
}
