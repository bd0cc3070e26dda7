package types

import "encoding/json"

// OrderArgs 下单参数（已归一化）
type OrderArgs struct {
	Price       float64   `json:"price"`
	Size        float64   `json:"size"`
	Side        Side      `json:"side"`
	TokenID     string    `json:"token_id"`
	TimeInForce OrderType `json:"time_in_force"`
}

// CreateOrderOptions 创建订单选项
type CreateOrderOptions struct {
	TickSize   TickSize // 为空时使用 0.01
	NegRisk    bool     // 负风险市场使用 NegRiskCTFExchange
	FeeRateBps int
	Expiration int64 // GTD 订单必填（秒级时间戳）
}

// SignedOrder 已签名的订单（JSON 提交格式）
type SignedOrder struct {
	Salt          int64  `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	Side          Side   `json:"side"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

// NewOrder POST /order 请求体
type NewOrder struct {
	Order     SignedOrder `json:"order"`
	Owner     string      `json:"owner"`
	OrderType OrderType   `json:"orderType"`
}

// OrderResponse 订单响应
type OrderResponse struct {
	Success           bool     `json:"success"`
	ErrorMsg          string   `json:"errorMsg"`
	OrderID           string   `json:"orderID"`
	TransactionHashes []string `json:"transactionsHashes"`
	Status            string   `json:"status"`
	TakingAmount      string   `json:"takingAmount"`
	MakingAmount      string   `json:"makingAmount"`

	// Raw 交易所返回的原始响应体，包含未列出的字段
	Raw json.RawMessage `json:"-"`
}

type orderResponseFields OrderResponse

// UnmarshalJSON 解析已知字段并保留原始响应体
func (r *OrderResponse) UnmarshalJSON(b []byte) error {
	var f orderResponseFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*r = OrderResponse(f)
	r.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// MarshalJSON 有原始响应体时原样输出
func (r OrderResponse) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	return json.Marshal(orderResponseFields(r))
}
