package model

type Credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type OrderRequest struct {
	Amount   int64  `json:"amount"`
	Biller   Biller `json:"biller"`
	Category string `json:"category"`
}

type OrderReceipt struct {
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Status  string `json:"status"`
}

type VerifyRequest struct {
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
}

type VerifyResponse struct {
	Settled bool `json:"settled"`
}

type VoiceRequest struct {
	Text string `json:"text"`
}
