package signing

import (
	"crypto/ecdsa"
	"fmt"
	"strconv"
	"strings"

	"github.com/betbot/polytrade/clob/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// clobAuthTypedData 构建 ClobAuth 的 EIP712 TypedData
func clobAuthTypedData(address common.Address, chainID types.Chain, timestamp, nonce int64) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"ClobAuth": {
				{Name: "address", Type: "address"},
				{Name: "timestamp", Type: "string"},
				{Name: "nonce", Type: "uint256"},
				{Name: "message", Type: "string"},
			},
		},
		PrimaryType: "ClobAuth",
		Domain: apitypes.TypedDataDomain{
			Name:    ClobDomainName,
			Version: ClobVersion,
			ChainId: math.NewHexOrDecimal256(int64(chainID)),
		},
		Message: apitypes.TypedDataMessage{
			"address":   address.Hex(),
			"timestamp": strconv.FormatInt(timestamp, 10),
			"nonce":     math.NewHexOrDecimal256(nonce),
			"message":   MsgToSign,
		},
	}
}

// ClobAuthHash 计算 ClobAuth 消息的 EIP712 摘要
func ClobAuthHash(address common.Address, chainID types.Chain, timestamp, nonce int64) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(clobAuthTypedData(address, chainID, timestamp, nonce))
	if err != nil {
		return nil, fmt.Errorf("计算 EIP712 哈希失败: %w", err)
	}
	return hash, nil
}

// BuildClobEip712Signature 构建 Polymarket CLOB L1 认证签名
func BuildClobEip712Signature(privateKey *ecdsa.PrivateKey, chainID types.Chain, timestamp, nonce int64) (string, error) {
	hash, err := ClobAuthHash(GetAddressFromPrivateKey(privateKey), chainID, timestamp, nonce)
	if err != nil {
		return "", err
	}

	sig, err := crypto.Sign(hash, privateKey)
	if err != nil {
		return "", fmt.Errorf("签名失败: %w", err)
	}
	// 交易所按以太坊惯例校验 v ∈ {27, 28}
	sig[64] += 27

	return hexutil.Encode(sig), nil
}

// GetAddressFromPrivateKey 从私钥获取地址
func GetAddressFromPrivateKey(privateKey *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(privateKey.PublicKey)
}

// PrivateKeyFromHex 从十六进制字符串解析私钥（允许 0x 前缀和首尾空白）
func PrivateKeyFromHex(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("无效的私钥: %w", err)
	}
	return key, nil
}
