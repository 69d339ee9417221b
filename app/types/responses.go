package types

type TransactionPaymentResponse struct {
	TransactionID string  `json:"transaction_id"`
	ProviderID    string  `json:"provider_id"`
	UserID        string  `json:"user_id"`
	ChargePointID string  `json:"cp_id"`
	PaymentStatus string  `json:"payment_status"`
	Amount        *string `json:"amount,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

type TransactionListResponse struct {
	Transactions []*TransactionPaymentResponse `json:"transactions"`
}

type RegisterAckResponse struct {
	Message       string `json:"message"`
	TransactionID string `json:"transaction_id"`
	PaymentStatus string `json:"payment_status"`
}

type PaymentURLResponse struct {
	PaymentURL    string `json:"payment_url"`
	TransactionID string `json:"transaction_id"`
	PaymentStatus string `json:"payment_status"`
}

type WebhookAckResponse struct {
	Message string `json:"message"`
	Outcome string `json:"outcome"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
