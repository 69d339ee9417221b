package types

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/energiq-cloud/ms-go-transaction-payments/app/service"
)

type RegisterTransactionPaymentRequest struct {
	TransactionID string `json:"transaction_id"`
	ProviderID    string `json:"provider_id"`
	UserID        string `json:"user_id"`
	ChargePointID string `json:"cp_id"`
}

func NewRegisterTransactionPaymentRequestFromContext(ctx echo.Context) (*RegisterTransactionPaymentRequest, error) {
	var body RegisterTransactionPaymentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.TransactionID = strings.TrimSpace(body.TransactionID)
	body.ProviderID = strings.TrimSpace(body.ProviderID)
	body.UserID = strings.TrimSpace(body.UserID)
	body.ChargePointID = strings.TrimSpace(body.ChargePointID)

	return &body, nil
}

func (r *RegisterTransactionPaymentRequest) Validate() error {
	if r.TransactionID == "" || r.ProviderID == "" || r.UserID == "" || r.ChargePointID == "" {
		return errors.New("transaction_id, provider_id, user_id, and cp_id are required")
	}
	if _, err := uuid.Parse(r.TransactionID); err != nil {
		return errors.New("transaction_id must be a UUID")
	}
	if _, err := uuid.Parse(r.ProviderID); err != nil {
		return errors.New("provider_id must be a UUID")
	}
	if _, err := uuid.Parse(r.UserID); err != nil {
		return errors.New("user_id must be a UUID")
	}
	return nil
}

type PayerPayload struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

type PayTransactionRequest struct {
	TransactionID string       `json:"-"`
	Payer         PayerPayload `json:"payer"`
}

func NewPayTransactionRequestFromContext(ctx echo.Context) (*PayTransactionRequest, error) {
	var body PayTransactionRequest
	if err := ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	body.TransactionID = strings.TrimSpace(ctx.Param("transactionId"))
	body.Payer.FirstName = strings.TrimSpace(body.Payer.FirstName)
	body.Payer.LastName = strings.TrimSpace(body.Payer.LastName)
	body.Payer.Email = strings.TrimSpace(body.Payer.Email)
	body.Payer.PhoneNumber = strings.TrimSpace(body.Payer.PhoneNumber)

	return &body, nil
}

func (r *PayTransactionRequest) Validate() error {
	if r.TransactionID == "" {
		return errors.New("transaction id is required")
	}
	if _, err := uuid.Parse(r.TransactionID); err != nil {
		return errors.New("transaction id must be a UUID")
	}
	if r.Payer.FirstName == "" || r.Payer.LastName == "" {
		return errors.New("payer first_name and last_name are required")
	}
	if r.Payer.Email == "" || !strings.Contains(r.Payer.Email, "@") {
		return errors.New("payer email is invalid")
	}
	return nil
}

type TransactionIDRequest struct {
	TransactionID string
}

func NewTransactionIDRequestFromContext(ctx echo.Context) *TransactionIDRequest {
	return &TransactionIDRequest{TransactionID: strings.TrimSpace(ctx.Param("transactionId"))}
}

func (r *TransactionIDRequest) Validate() error {
	if r.TransactionID == "" {
		return errors.New("transaction id is required")
	}
	if _, err := uuid.Parse(r.TransactionID); err != nil {
		return errors.New("transaction id must be a UUID")
	}
	return nil
}

type ProviderIDRequest struct {
	ProviderID string
}

func NewProviderIDRequestFromContext(ctx echo.Context) *ProviderIDRequest {
	return &ProviderIDRequest{ProviderID: strings.TrimSpace(ctx.Param("providerId"))}
}

func (r *ProviderIDRequest) Validate() error {
	if r.ProviderID == "" {
		return errors.New("provider id is required")
	}
	if _, err := uuid.Parse(r.ProviderID); err != nil {
		return errors.New("provider id must be a UUID")
	}
	return nil
}

type UserIDRequest struct {
	UserID string
}

func NewUserIDRequestFromContext(ctx echo.Context) *UserIDRequest {
	return &UserIDRequest{UserID: strings.TrimSpace(ctx.Param("userId"))}
}

func (r *UserIDRequest) Validate() error {
	if r.UserID == "" {
		return errors.New("user id is required")
	}
	if _, err := uuid.Parse(r.UserID); err != nil {
		return errors.New("user id must be a UUID")
	}
	return nil
}

// GatewayWebhookRequest is the Paymob notification envelope. Parsing is
// deliberately lenient: a malformed body still produces a request that the
// engine journals and acknowledges, never a 4xx to the gateway.
type GatewayWebhookRequest struct {
	Type string `json:"type"`
	Obj  struct {
		ID          json.Number `json:"id"`
		Success     bool        `json:"success"`
		AmountCents int64       `json:"amount_cents"`
		Currency    string      `json:"currency"`
		Order       struct {
			ID              json.Number `json:"id"`
			MerchantOrderID *string     `json:"merchant_order_id"`
		} `json:"order"`
	} `json:"obj"`

	RawPayload string `json:"-"`
}

func NewGatewayWebhookRequestFromContext(ctx echo.Context) *GatewayWebhookRequest {
	req := &GatewayWebhookRequest{}

	rawBody, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return req
	}
	req.RawPayload = string(rawBody)

	// Parse errors are swallowed on purpose; the zero value fails the
	// engine's own checks and is journaled as rejected.
	_ = json.Unmarshal(rawBody, req)

	return req
}

// ToNotification reduces the gateway envelope to the normalized shape the
// lifecycle engine consumes.
func (r *GatewayWebhookRequest) ToNotification() service.WebhookNotification {
	correlationID := ""
	if r.Obj.Order.MerchantOrderID != nil {
		correlationID = strings.TrimSpace(*r.Obj.Order.MerchantOrderID)
	}

	return service.WebhookNotification{
		Type:                 strings.TrimSpace(r.Type),
		CorrelationID:        correlationID,
		Succeeded:            r.Obj.Success,
		GatewayTransactionID: r.Obj.ID.String(),
		AmountCents:          r.Obj.AmountCents,
		RawPayload:           r.RawPayload,
	}
}
