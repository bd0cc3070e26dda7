package signing

const (
	// ClobDomainName EIP712 域名名称
	ClobDomainName = "ClobAuthDomain"

	// ClobVersion EIP712 版本
	ClobVersion = "1"

	// MsgToSign L1 认证签名消息
	MsgToSign = "This message attests that I control the given wallet"
)
