package types

import (
	"fmt"
	"strings"
)

// Side 订单方向
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide 大小写不敏感地解析订单方向
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(s)) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	default:
		return "", fmt.Errorf("side must be BUY or SELL, got %q", s)
	}
}

// OrderType 订单有效期类型（time in force）
type OrderType string

const (
	OrderTypeGTC OrderType = "GTC" // Good Till Cancel - 一直有效直到取消
	OrderTypeFOK OrderType = "FOK" // Fill or Kill - 全部成交或全部取消
	OrderTypeGTD OrderType = "GTD" // Good Till Date - 指定日期前有效
	OrderTypeFAK OrderType = "FAK" // Fill and Kill - 部分成交，剩余取消
)

// Valid 是否为交易所支持的类型
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeGTC, OrderTypeFOK, OrderTypeGTD, OrderTypeFAK:
		return true
	}
	return false
}

// Chain 区块链网络
type Chain int

const (
	ChainPolygon Chain = 137
	ChainAmoy    Chain = 80002
)

// SignatureType 签名类型
type SignatureType int

const (
	SignatureTypeEOA        SignatureType = 0 // EOA - 标准以太坊钱包（MetaMask）
	SignatureTypeMagic      SignatureType = 1 // POLY_PROXY - Magic Link 邮箱/Google 登录
	SignatureTypeGnosisSafe SignatureType = 2 // GNOSIS_SAFE - Gnosis Safe 代理钱包
)

// Valid 签名类型是否在交易所支持的范围内
func (s SignatureType) Valid() bool {
	return s >= SignatureTypeEOA && s <= SignatureTypeGnosisSafe
}

// AssetType 资产类型
type AssetType string

const (
	AssetTypeCollateral  AssetType = "COLLATERAL"
	AssetTypeConditional AssetType = "CONDITIONAL"
)

// TickSize 价格精度
type TickSize string

const (
	TickSize01    TickSize = "0.1"
	TickSize001   TickSize = "0.01"
	TickSize0001  TickSize = "0.001"
	TickSize00001 TickSize = "0.0001"
)

// ApiKeyCreds L2 API 密钥凭证
type ApiKeyCreds struct {
	Key        string `json:"key"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// Complete 三个字段是否都已填写
func (c *ApiKeyCreds) Complete() bool {
	return c != nil && c.Key != "" && c.Secret != "" && c.Passphrase != ""
}

// ApiKeyRaw 原始 API 密钥（API 返回格式）
type ApiKeyRaw struct {
	ApiKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}
