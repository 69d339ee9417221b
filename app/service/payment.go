package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/energiq-cloud/ms-go-transaction-payments/app/amount"
	"github.com/energiq-cloud/ms-go-transaction-payments/app/entity"
	"github.com/energiq-cloud/ms-go-transaction-payments/app/factory"
	"github.com/energiq-cloud/ms-go-transaction-payments/app/gateway"
	"github.com/energiq-cloud/ms-go-transaction-payments/app/repository"
)

var gatewayMinorUnitFactor = decimal.NewFromInt(100)

type paymentRepository interface {
	Create(ctx context.Context, payment *entity.TransactionPayment) error
	FindByTransactionID(ctx context.Context, transactionID string) (*entity.TransactionPayment, error)
	ListByProvider(ctx context.Context, providerID string) ([]*entity.TransactionPayment, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.TransactionPayment, error)
	UpdateStatus(ctx context.Context, transactionID string, newStatus entity.PaymentStatus, amount *decimal.Decimal) error
}

type paymentEventRepository interface {
	Create(ctx context.Context, event *entity.PaymentEvent) error
}

type webhookRecordRepository interface {
	Create(ctx context.Context, record *entity.WebhookRecord) error
}

// PaymentService drives the transaction-payment lifecycle: register, initiate
// against the gateway, and webhook-driven reconciliation. It holds no state
// between calls; the store serializes concurrent writers per transaction id.
type PaymentService struct {
	paymentRepo paymentRepository
	eventRepo   paymentEventRepository
	webhookRepo webhookRecordRepository
	gatewayCli  gateway.Client
	amountSrc   amount.Source
	logger      logrus.FieldLogger
}

func NewPaymentService(
	paymentRepo paymentRepository,
	eventRepo paymentEventRepository,
	webhookRepo webhookRecordRepository,
	gatewayCli gateway.Client,
	amountSrc amount.Source,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		eventRepo:   eventRepo,
		webhookRepo: webhookRepo,
		gatewayCli:  gatewayCli,
		amountSrc:   amountSrc,
		logger:      factory.NewModuleLogger("payments-service"),
	}
}

type RegisterParams struct {
	TransactionID string
	ProviderID    string
	UserID        string
	ChargePointID string
}

// Register creates the PENDING payment record for a finished charging
// session. The session amount is resolved eagerly so the later initiate call
// does not have to go back to the sessions service.
func (s *PaymentService) Register(ctx context.Context, params RegisterParams) (*entity.TransactionPayment, error) {
	if strings.TrimSpace(params.TransactionID) == "" ||
		strings.TrimSpace(params.ProviderID) == "" ||
		strings.TrimSpace(params.UserID) == "" ||
		strings.TrimSpace(params.ChargePointID) == "" {
		return nil, ErrInvalidRequest
	}

	resolved, err := s.amountSrc.ResolveAmount(ctx, params.TransactionID)
	if err != nil {
		return nil, ErrAmountUnavailable
	}

	now := time.Now().UTC()
	payment := &entity.TransactionPayment{
		TransactionID: params.TransactionID,
		ProviderID:    params.ProviderID,
		UserID:        params.UserID,
		ChargePointID: params.ChargePointID,
		Status:        entity.StatusPending,
		Amount:        &resolved,
		CreatedAt:     now,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrPaymentAlreadyExists) {
			return nil, ErrPaymentAlreadyExists
		}
		return nil, err
	}

	_ = s.eventRepo.Create(ctx, &entity.PaymentEvent{
		TransactionID: payment.TransactionID,
		EventType:     "payment_registered",
		NewStatus:     entity.StatusPending,
		CreatedAt:     now,
	})

	return payment, nil
}

// Pay initiates the gateway payment for a registered transaction. The
// transaction id travels as the gateway correlation id and the returned
// checkout URL is transient: it is handed to the caller once and never
// persisted. Gateway failures leave the record untouched.
func (s *PaymentService) Pay(ctx context.Context, transactionID string, payer gateway.Payer) (string, error) {
	payment, err := s.paymentRepo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return "", err
	}
	if payment == nil {
		return "", ErrPaymentNotFound
	}

	var amountToPersist *decimal.Decimal
	sessionAmount := payment.Amount
	if sessionAmount == nil {
		resolved, err := s.amountSrc.ResolveAmount(ctx, transactionID)
		if err != nil {
			return "", ErrAmountUnavailable
		}
		sessionAmount = &resolved
		amountToPersist = &resolved
	}

	amountCents := sessionAmount.Mul(gatewayMinorUnitFactor).IntPart()

	redirectURL, err := s.gatewayCli.CreateIntention(ctx, amountCents, payer, transactionID)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"transaction_id": transactionID,
			"gateway_error":  gateway.IsAPIError(err),
		}).Error("Create payment intention failed")
		return "", ErrGatewayUnavailable
	}

	oldStatus := payment.Status
	if err := s.paymentRepo.UpdateStatus(ctx, transactionID, entity.StatusInProgress, amountToPersist); err != nil {
		switch {
		case errors.Is(err, repository.ErrPaymentNotFound):
			return "", ErrPaymentNotFound
		case errors.Is(err, repository.ErrIllegalTransition):
			return "", ErrIllegalTransition
		default:
			return "", err
		}
	}

	_ = s.eventRepo.Create(ctx, &entity.PaymentEvent{
		TransactionID: transactionID,
		EventType:     "payment_initiated",
		OldStatus:     &oldStatus,
		NewStatus:     entity.StatusInProgress,
		CreatedAt:     time.Now().UTC(),
	})

	return redirectURL, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, transactionID string) (*entity.TransactionPayment, error) {
	payment, err := s.paymentRepo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

func (s *PaymentService) ListByProvider(ctx context.Context, providerID string) ([]*entity.TransactionPayment, error) {
	return s.paymentRepo.ListByProvider(ctx, providerID)
}

func (s *PaymentService) ListByUser(ctx context.Context, userID string) ([]*entity.TransactionPayment, error) {
	return s.paymentRepo.ListByUser(ctx, userID)
}
