package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultPaymobBaseURL = "https://accept.paymob.com"

type PaymobConfig struct {
	BaseURL         string
	SecretKey       string
	PublicKey       string
	PaymentMethodID int
	Currency        string
	HTTPTimeout     time.Duration
}

type PaymobClient struct {
	cfg    PaymobConfig
	client *http.Client
}

func NewPaymobClient(cfg PaymobConfig) *PaymobClient {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultPaymobBaseURL
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if strings.TrimSpace(cfg.Currency) == "" {
		cfg.Currency = "EGP"
	}

	return &PaymobClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type paymobItem struct {
	Name        string `json:"name"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

type paymobBillingData struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

type paymobCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type paymobIntentionRequest struct {
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	PaymentMethods   []int             `json:"payment_methods"`
	SpecialReference string            `json:"special_reference"`
	Items            []paymobItem      `json:"items"`
	BillingData      paymobBillingData `json:"billing_data"`
	Customer         paymobCustomer    `json:"customer"`
}

// CreateIntention creates a Paymob payment intention carrying the
// transaction id as special_reference, which Paymob reflects back as
// order.merchant_order_id in the webhook.
func (c *PaymobClient) CreateIntention(ctx context.Context, amountCents int64, payer Payer, correlationID string) (string, error) {
	if strings.TrimSpace(c.cfg.SecretKey) == "" {
		return "", errors.New("paymob secret key is not configured")
	}
	if strings.TrimSpace(c.cfg.PublicKey) == "" {
		return "", errors.New("paymob public key is not configured")
	}

	phone := strings.TrimSpace(payer.Phone)
	if phone == "" {
		phone = "null"
	}

	payload := paymobIntentionRequest{
		Amount:           amountCents,
		Currency:         c.cfg.Currency,
		PaymentMethods:   []int{c.cfg.PaymentMethodID},
		SpecialReference: correlationID,
		Items: []paymobItem{{
			Name:        "charging session",
			Amount:      amountCents,
			Description: "successful charging session.",
			Quantity:    1,
		}},
		BillingData: paymobBillingData{
			FirstName:   payer.FirstName,
			LastName:    payer.LastName,
			Email:       payer.Email,
			PhoneNumber: phone,
		},
		Customer: paymobCustomer{
			FirstName: payer.FirstName,
			LastName:  payer.LastName,
			Email:     payer.Email,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/intention/", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.cfg.SecretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("paymob intention request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("paymob intention response read failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var intention struct {
		ClientSecret string `json:"client_secret"`
	}
	if err := json.Unmarshal(respBody, &intention); err != nil {
		return "", fmt.Errorf("paymob intention response parse failed: %w", err)
	}
	if strings.TrimSpace(intention.ClientSecret) == "" {
		return "", &APIError{StatusCode: resp.StatusCode, Body: "client_secret missing in intention response"}
	}

	return c.buildCheckoutURL(intention.ClientSecret), nil
}

func (c *PaymobClient) buildCheckoutURL(clientSecret string) string {
	query := url.Values{}
	query.Set("publicKey", c.cfg.PublicKey)
	query.Set("clientSecret", clientSecret)
	return c.cfg.BaseURL + "/unifiedcheckout/?" + query.Encode()
}
