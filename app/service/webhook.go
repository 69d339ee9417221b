package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/energiq-cloud/ms-go-transaction-payments/app/entity"
	"github.com/energiq-cloud/ms-go-transaction-payments/app/repository"
)

// WebhookOutcome reports how a gateway notification was handled. The webhook
// endpoint acknowledges every delivery regardless of outcome, so this is for
// the ack body and the journal, not for error propagation.
type WebhookOutcome string

const (
	WebhookOutcomeProcessed WebhookOutcome = "processed"
	WebhookOutcomeDuplicate WebhookOutcome = "duplicate"
	WebhookOutcomeIgnored   WebhookOutcome = "ignored"
	WebhookOutcomeRejected  WebhookOutcome = "rejected"
)

// WebhookNotification is the normalized shape the engine consumes; the
// boundary layer extracts it from the gateway-specific envelope.
type WebhookNotification struct {
	Type                 string
	CorrelationID        string
	Succeeded            bool
	GatewayTransactionID string
	AmountCents          int64
	RawPayload           string
}

// HandleGatewayWebhook reconciles a payment from an untrusted, possibly
// duplicated, possibly out-of-order gateway notification. It never fails
// outward: every path journals a WebhookRecord and returns an outcome the
// endpoint acknowledges with 200.
func (s *PaymentService) HandleGatewayWebhook(ctx context.Context, notification WebhookNotification) WebhookOutcome {
	now := time.Now().UTC()
	log := s.logger.WithField("gateway_transaction_id", notification.GatewayTransactionID)

	if notification.Type != "TRANSACTION" {
		log.WithField("type", notification.Type).Info("Non-transaction webhook acknowledged")
		s.journalWebhook(ctx, notification, nil, entity.WebhookIgnored, "unsupported webhook type: "+notification.Type, now)
		return WebhookOutcomeIgnored
	}

	if _, err := uuid.Parse(notification.CorrelationID); err != nil {
		log.Warn("Webhook carries missing or malformed correlation id")
		s.journalWebhook(ctx, notification, nil, entity.WebhookRejected, "missing or malformed merchant_order_id", now)
		return WebhookOutcomeRejected
	}

	transactionID := notification.CorrelationID
	log = log.WithField("transaction_id", transactionID)

	payment, err := s.paymentRepo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		log.WithError(err).Error("Webhook payment lookup failed")
		s.journalWebhook(ctx, notification, &transactionID, entity.WebhookRejected, "payment lookup failed: "+err.Error(), now)
		return WebhookOutcomeRejected
	}
	if payment == nil {
		log.Warn("Webhook received for unknown transaction")
		s.journalWebhook(ctx, notification, &transactionID, entity.WebhookRejected, "no payment record for correlation id", now)
		return WebhookOutcomeRejected
	}

	newStatus := entity.StatusFailed
	if notification.Succeeded {
		newStatus = entity.StatusDone
	}

	var mismatchNote string
	if payment.Amount != nil && notification.AmountCents > 0 {
		storedCents := payment.Amount.Mul(gatewayMinorUnitFactor).IntPart()
		if storedCents != notification.AmountCents {
			mismatchNote = "gateway amount differs from recorded amount; recorded amount kept"
			log.WithFields(logrus.Fields{
				"recorded_cents": storedCents,
				"gateway_cents":  notification.AmountCents,
			}).Warn("Webhook amount mismatch")
		}
	}

	if err := s.paymentRepo.UpdateStatus(ctx, transactionID, newStatus, nil); err != nil {
		switch {
		case errors.Is(err, repository.ErrIllegalTransition):
			return s.handleIllegalWebhookTransition(ctx, notification, transactionID, newStatus, now, log)
		case errors.Is(err, repository.ErrPaymentNotFound):
			s.journalWebhook(ctx, notification, &transactionID, entity.WebhookRejected, "payment disappeared during update", now)
			return WebhookOutcomeRejected
		default:
			log.WithError(err).Error("Webhook status update failed")
			s.journalWebhook(ctx, notification, &transactionID, entity.WebhookRejected, "status update failed: "+err.Error(), now)
			return WebhookOutcomeRejected
		}
	}

	oldStatus := payment.Status
	payload := notification.RawPayload
	_ = s.eventRepo.Create(ctx, &entity.PaymentEvent{
		TransactionID:        transactionID,
		EventType:            "gateway_webhook",
		OldStatus:            &oldStatus,
		NewStatus:            newStatus,
		GatewayTransactionID: optionalString(notification.GatewayTransactionID),
		PayloadJSON:          &payload,
		CreatedAt:            now,
	})

	s.journalWebhook(ctx, notification, &transactionID, entity.WebhookProcessed, mismatchNote, now)
	log.WithField("status", string(newStatus)).Info("Webhook reconciled payment")
	return WebhookOutcomeProcessed
}

// handleIllegalWebhookTransition decides whether a losing status update was a
// redelivery of an already-settled payment (idempotent no-op) or a genuinely
// out-of-order notification.
func (s *PaymentService) handleIllegalWebhookTransition(
	ctx context.Context,
	notification WebhookNotification,
	transactionID string,
	newStatus entity.PaymentStatus,
	now time.Time,
	log logrus.FieldLogger,
) WebhookOutcome {
	current, err := s.paymentRepo.FindByTransactionID(ctx, transactionID)
	if err != nil || current == nil {
		s.journalWebhook(ctx, notification, &transactionID, entity.WebhookRejected, "post-conflict lookup failed", now)
		return WebhookOutcomeRejected
	}

	if entity.IsTerminal(current.Status) {
		log.WithField("status", string(current.Status)).Info("Duplicate webhook for settled payment acknowledged")
		s.journalWebhook(ctx, notification, &transactionID, entity.WebhookDuplicate, "", now)
		return WebhookOutcomeDuplicate
	}

	log.WithFields(logrus.Fields{
		"current_status":   string(current.Status),
		"requested_status": string(newStatus),
	}).Warn("Out-of-order webhook for unsettled payment")
	s.journalWebhook(ctx, notification, &transactionID, entity.WebhookRejected,
		"illegal transition from "+string(current.Status), now)
	return WebhookOutcomeRejected
}

func (s *PaymentService) journalWebhook(
	ctx context.Context,
	notification WebhookNotification,
	transactionID *string,
	status int32,
	note string,
	now time.Time,
) {
	record := &entity.WebhookRecord{
		TransactionID:        transactionID,
		GatewayTransactionID: optionalString(notification.GatewayTransactionID),
		PayloadJSON:          notification.RawPayload,
		Status:               status,
		Error:                optionalString(truncate(note, 1024)),
		CreatedAt:            now,
	}
	if err := s.webhookRepo.Create(ctx, record); err != nil {
		s.logger.WithError(err).Error("Webhook journal write failed")
	}
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}
