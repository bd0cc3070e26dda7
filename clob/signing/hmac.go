package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// BuildPolyHmacSignature 构建 Polymarket CLOB L2 HMAC 签名
// 消息为 timestamp + method + path [+ body]，结果为 url-safe base64（保留 = 填充）
func BuildPolyHmacSignature(secret string, timestamp int64, method, requestPath string, body *string) (string, error) {
	message := strconv.FormatInt(timestamp, 10) + method + requestPath
	if body != nil {
		message += *body
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return "", fmt.Errorf("解码 secret 失败: %w", err)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))

	return base64.URLEncoding.EncodeToString(mac.Sum(nil)), nil
}

// decodeSecret secret 可能是 base64url 或标准 base64，统一转成标准格式后解码
func decodeSecret(secret string) ([]byte, error) {
	s := strings.NewReplacer("-", "+", "_", "/").Replace(secret)
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '+', r == '/', r == '=':
			return r
		}
		return -1
	}, s)
	return base64.StdEncoding.DecodeString(s)
}
