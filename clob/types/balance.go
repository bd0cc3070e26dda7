package types

// BalanceAllowanceParams 余额和授权查询参数
type BalanceAllowanceParams struct {
	AssetType     AssetType
	TokenID       *string
	SignatureType *SignatureType // 可选：签名类型（0=EOA, 1=Magic, 2=GnosisSafe）
}

// BalanceEntry 单个资产的余额和授权
type BalanceEntry struct {
	Balance   string `json:"balance"`
	Allowance string `json:"allowance"`
}

// BalanceAllowanceResponse 余额和授权响应
//
// 余额均为 6 位精度的整数字符串（USDC 与条件代币精度相同）。
type BalanceAllowanceResponse struct {
	Balance   string `json:"balance"`
	Allowance string `json:"allowance"`
	// Allowances 按 spender 合约地址的授权额度（代理钱包会返回多个）
	Allowances map[string]string `json:"allowances,omitempty"`
	// Balances 按资产合约地址的余额，部分网关会返回多资产视图
	Balances map[string]BalanceEntry `json:"balances,omitempty"`
}
