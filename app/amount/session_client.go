package amount

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/energiq-cloud/ms-go-transaction-payments/app/factory"
)

type SessionClientConfig struct {
	BaseURL     string
	HTTPTimeout time.Duration
}

// SessionClient asks the charging-sessions service what a finished session
// costs. Every failure mode collapses into ErrAmountUnavailable; the
// underlying cause is logged, not propagated.
type SessionClient struct {
	cfg    SessionClientConfig
	client *http.Client
	logger logrus.FieldLogger
}

func NewSessionClient(cfg SessionClientConfig) *SessionClient {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	return &SessionClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: factory.NewModuleLogger("session-amount-client"),
	}
}

func (c *SessionClient) ResolveAmount(ctx context.Context, transactionID string) (decimal.Decimal, error) {
	if c.cfg.BaseURL == "" {
		c.logger.Error("Session service base URL is not configured")
		return decimal.Zero, ErrAmountUnavailable
	}

	endpoint := fmt.Sprintf("%s/internal/sessions/%s/amount", c.cfg.BaseURL, url.PathEscape(transactionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, ErrAmountUnavailable
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("transaction_id", transactionID).Error("Session amount request failed")
		return decimal.Zero, ErrAmountUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, ErrAmountUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"transaction_id": transactionID,
			"status":         resp.StatusCode,
		}).Error("Session amount request rejected")
		return decimal.Zero, ErrAmountUnavailable
	}

	var payload struct {
		Amount string `json:"amount"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.WithError(err).WithField("transaction_id", transactionID).Error("Session amount response malformed")
		return decimal.Zero, ErrAmountUnavailable
	}

	parsed, err := decimal.NewFromString(strings.TrimSpace(payload.Amount))
	if err != nil || parsed.IsNegative() {
		c.logger.WithField("transaction_id", transactionID).Error("Session amount response invalid")
		return decimal.Zero, ErrAmountUnavailable
	}

	return parsed, nil
}
