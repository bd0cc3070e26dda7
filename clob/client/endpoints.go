package client

// API 端点常量
const (
	// API Key endpoints
	EndpointCreateAPIKey = "/auth/api-key"
	EndpointDeriveAPIKey = "/auth/derive-api-key"

	// Order endpoints
	EndpointPostOrder = "/order"

	// Balance
	EndpointGetBalanceAllowance = "/balance-allowance"
)
