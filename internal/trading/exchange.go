package trading

import (
	"context"

	"github.com/betbot/polytrade/clob/types"
	"github.com/betbot/polytrade/pkg/config"
)

// Exchange 适配器依赖的交易所客户端能力
type Exchange interface {
	GetBalanceAllowance(ctx context.Context, params *types.BalanceAllowanceParams) (*types.BalanceAllowanceResponse, error)
	PlaceOrder(ctx context.Context, args *types.OrderArgs) (*types.OrderResponse, error)
}

// Factory 根据凭证构造客户端
type Factory func(ctx context.Context, creds Credentials) (Exchange, error)

// CredentialStore 持久化派生出的 L2 API 凭证
type CredentialStore interface {
	GetJSON(key string, out any) (bool, error)
	SetJSON(key string, v any) error
}

// Credentials 客户端缓存键：字段完全相同才复用同一个客户端
type Credentials struct {
	PrivateKey    string
	SignatureType int
	Funder        string

	APIKey        string
	APISecret     string
	APIPassphrase string

	Host    string
	ChainID int
	DryRun  bool
}

// CredentialsFrom 从配置提取缓存键
func CredentialsFrom(s *config.Settings) Credentials {
	return Credentials{
		PrivateKey:    s.PrivateKey,
		SignatureType: s.SignatureType,
		Funder:        s.Funder,
		APIKey:        s.APIKey,
		APISecret:     s.APISecret,
		APIPassphrase: s.APIPassphrase,
		Host:          s.Host,
		ChainID:       s.ChainID,
		DryRun:        s.DryRun,
	}
}

// HasAPICreds API key/secret/passphrase 是否齐全
func (c Credentials) HasAPICreds() bool {
	return c.APIKey != "" && c.APISecret != "" && c.APIPassphrase != ""
}
