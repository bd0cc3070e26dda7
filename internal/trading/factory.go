package trading

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/betbot/polytrade/clob/client"
	"github.com/betbot/polytrade/clob/types"
	"github.com/sirupsen/logrus"
)

// NewClientFactory 默认工厂：创建 CLOB 客户端
// 未配置 L2 凭证时，首次需要 L2 的请求会先查存储，再向交易所推导并写回存储。
func NewClientFactory(store CredentialStore, log logrus.FieldLogger) Factory {
	return func(ctx context.Context, c Credentials) (Exchange, error) {
		var apiCreds *types.ApiKeyCreds
		if c.HasAPICreds() {
			apiCreds = &types.ApiKeyCreds{Key: c.APIKey, Secret: c.APISecret, Passphrase: c.APIPassphrase}
		}

		entry := log.WithField("component", "clob")
		cl, err := client.New(client.Options{
			Host:          c.Host,
			ChainID:       types.Chain(c.ChainID),
			PrivateKey:    c.PrivateKey,
			Creds:         apiCreds,
			Funder:        c.Funder,
			SignatureType: types.SignatureType(c.SignatureType),
			DryRun:        c.DryRun,
			RetryCount:    2,
			Logger:        entry,
		})
		if err != nil {
			return nil, err
		}

		return &session{Client: cl, store: store, log: entry}, nil
	}
}

// session 在 L2 请求前按需补齐 API 凭证
type session struct {
	*client.Client
	store CredentialStore
	log   *logrus.Entry

	mu sync.Mutex
}

func (s *session) GetBalanceAllowance(ctx context.Context, params *types.BalanceAllowanceParams) (*types.BalanceAllowanceResponse, error) {
	if err := s.ensureCreds(ctx); err != nil {
		return nil, err
	}
	return s.Client.GetBalanceAllowance(ctx, params)
}

func (s *session) PlaceOrder(ctx context.Context, args *types.OrderArgs) (*types.OrderResponse, error) {
	if !s.DryRun() {
		if err := s.ensureCreds(ctx); err != nil {
			return nil, err
		}
	}
	return s.Client.PlaceOrder(ctx, args)
}

// storeKey 派生凭证按链和签名者地址存储
func (s *session) storeKey() string {
	return fmt.Sprintf("clob/api-creds/%d/%s", s.GetChainID(), strings.ToLower(s.Address().Hex()))
}

func (s *session) ensureCreds(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CanL2Auth() == nil {
		return nil
	}

	if s.store != nil {
		var creds types.ApiKeyCreds
		found, err := s.store.GetJSON(s.storeKey(), &creds)
		if err != nil {
			s.log.WithError(err).Warn("读取已保存的 API 凭证失败，重新推导")
		} else if found && creds.Complete() {
			s.SetAPICreds(&creds)
			return nil
		}
	}

	creds, err := s.CreateOrDeriveAPIKey(ctx)
	if err != nil {
		return fmt.Errorf("推导 API 凭证失败: %w", err)
	}
	s.log.Infof("已获取 API 凭证: %s", s.Address().Hex())

	if s.store != nil {
		if err := s.store.SetJSON(s.storeKey(), creds); err != nil {
			s.log.WithError(err).Warn("保存 API 凭证失败")
		}
	}
	return nil
}
