package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/energiq-cloud/ms-go-transaction-payments/app/amount"
	"github.com/energiq-cloud/ms-go-transaction-payments/app/entity"
	"github.com/energiq-cloud/ms-go-transaction-payments/app/gateway"
	"github.com/energiq-cloud/ms-go-transaction-payments/app/repository"
)

const (
	testTransactionID = "123e4567-e89b-12d3-a456-426614174000"
	testProviderID    = "223e4567-e89b-12d3-a456-426614174000"
	testUserID        = "323e4567-e89b-12d3-a456-426614174000"
)

type servicePaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*entity.TransactionPayment
}

func newServicePaymentRepo() *servicePaymentRepo {
	return &servicePaymentRepo{payments: map[string]*entity.TransactionPayment{}}
}

func (r *servicePaymentRepo) Create(_ context.Context, payment *entity.TransactionPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[payment.TransactionID]; ok {
		return repository.ErrPaymentAlreadyExists
	}
	copyItem := *payment
	r.payments[payment.TransactionID] = &copyItem
	return nil
}

func (r *servicePaymentRepo) FindByTransactionID(_ context.Context, transactionID string) (*entity.TransactionPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.payments[transactionID]
	if !ok {
		return nil, nil
	}
	copyItem := *item
	return &copyItem, nil
}

func (r *servicePaymentRepo) ListByProvider(_ context.Context, providerID string) ([]*entity.TransactionPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]*entity.TransactionPayment, 0)
	for _, item := range r.payments {
		if item.ProviderID == providerID {
			copyItem := *item
			items = append(items, &copyItem)
		}
	}
	return items, nil
}

func (r *servicePaymentRepo) ListByUser(_ context.Context, userID string) ([]*entity.TransactionPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]*entity.TransactionPayment, 0)
	for _, item := range r.payments {
		if item.UserID == userID {
			copyItem := *item
			items = append(items, &copyItem)
		}
	}
	return items, nil
}

// UpdateStatus mirrors the repository's conditional single-row update: the
// transition only commits when the current status is a legal prior, under a
// lock so concurrent callers cannot both win.
func (r *servicePaymentRepo) UpdateStatus(_ context.Context, transactionID string, newStatus entity.PaymentStatus, amountValue *decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.payments[transactionID]
	if !ok {
		return repository.ErrPaymentNotFound
	}
	if !entity.CanTransition(item.Status, newStatus) {
		return repository.ErrIllegalTransition
	}
	item.Status = newStatus
	if amountValue != nil && item.Amount == nil {
		copyAmount := *amountValue
		item.Amount = &copyAmount
	}
	return nil
}

type serviceEventRepo struct {
	mu     sync.Mutex
	events []*entity.PaymentEvent
}

func (r *serviceEventRepo) Create(_ context.Context, event *entity.PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copyItem := *event
	r.events = append(r.events, &copyItem)
	return nil
}

type serviceWebhookRepo struct {
	mu      sync.Mutex
	records []*entity.WebhookRecord
}

func (r *serviceWebhookRepo) Create(_ context.Context, record *entity.WebhookRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copyItem := *record
	r.records = append(r.records, &copyItem)
	return nil
}

type serviceGateway struct {
	mu            sync.Mutex
	err           error
	calls         int
	lastAmount    int64
	lastCorrelate string
	redirectURL   string
}

func (g *serviceGateway) CreateIntention(_ context.Context, amountCents int64, _ gateway.Payer, correlationID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastAmount = amountCents
	g.lastCorrelate = correlationID
	if g.err != nil {
		return "", g.err
	}
	if g.redirectURL != "" {
		return g.redirectURL, nil
	}
	return "https://accept.paymob.example/unifiedcheckout/?clientSecret=cs_test", nil
}

type serviceAmountSource struct {
	amount decimal.Decimal
	err    error
	calls  int
}

func (s *serviceAmountSource) ResolveAmount(context.Context, string) (decimal.Decimal, error) {
	s.calls++
	if s.err != nil {
		return decimal.Zero, s.err
	}
	return s.amount, nil
}

func newPaymentServiceForTest(
	repo *servicePaymentRepo,
	eventRepo *serviceEventRepo,
	webhookRepo *serviceWebhookRepo,
	gw *serviceGateway,
	src *serviceAmountSource,
) *PaymentService {
	return NewPaymentService(repo, eventRepo, webhookRepo, gw, src)
}

func registerParamsForTest() RegisterParams {
	return RegisterParams{
		TransactionID: testTransactionID,
		ProviderID:    testProviderID,
		UserID:        testUserID,
		ChargePointID: "cp-042",
	}
}

func TestRegisterCreatesPendingWithAmount(t *testing.T) {
	repo := newServicePaymentRepo()
	eventRepo := &serviceEventRepo{}
	src := &serviceAmountSource{amount: decimal.RequireFromString("120.00")}
	svc := newPaymentServiceForTest(repo, eventRepo, &serviceWebhookRepo{}, &serviceGateway{}, src)

	payment, err := svc.Register(context.Background(), registerParamsForTest())
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if payment.Status != entity.StatusPending {
		t.Fatalf("expected PENDING, got %s", payment.Status)
	}
	if payment.Amount == nil || !payment.Amount.Equal(decimal.RequireFromString("120.00")) {
		t.Fatalf("expected eager amount 120.00, got %v", payment.Amount)
	}
	if payment.Amount.IsNegative() {
		t.Fatal("amount must not be negative")
	}
	if len(eventRepo.events) != 1 || eventRepo.events[0].EventType != "payment_registered" {
		t.Fatalf("expected payment_registered event, got %+v", eventRepo.events)
	}
}

func TestRegisterDuplicateTransactionRejected(t *testing.T) {
	repo := newServicePaymentRepo()
	src := &serviceAmountSource{amount: decimal.RequireFromString("80.50")}
	svc := newPaymentServiceForTest(repo, &serviceEventRepo{}, &serviceWebhookRepo{}, &serviceGateway{}, src)

	if _, err := svc.Register(context.Background(), registerParamsForTest()); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, err := svc.Register(context.Background(), registerParamsForTest())
	if !errors.Is(err, ErrPaymentAlreadyExists) {
		t.Fatalf("expected ErrPaymentAlreadyExists, got %v", err)
	}
}

func TestRegisterRequiresAllFields(t *testing.T) {
	svc := newPaymentServiceForTest(newServicePaymentRepo(), &serviceEventRepo{}, &serviceWebhookRepo{}, &serviceGateway{}, &serviceAmountSource{})

	params := registerParamsForTest()
	params.ChargePointID = ""
	_, err := svc.Register(context.Background(), params)
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestRegisterFailsWhenAmountUnavailable(t *testing.T) {
	repo := newServicePaymentRepo()
	src := &serviceAmountSource{err: amount.ErrAmountUnavailable}
	svc := newPaymentServiceForTest(repo, &serviceEventRepo{}, &serviceWebhookRepo{}, &serviceGateway{}, src)

	_, err := svc.Register(context.Background(), registerParamsForTest())
	if !errors.Is(err, ErrAmountUnavailable) {
		t.Fatalf("expected ErrAmountUnavailable, got %v", err)
	}
	if len(repo.payments) != 0 {
		t.Fatal("expected no record to be created")
	}
}

func TestPayTransitionsToInProgressWithMinorUnits(t *testing.T) {
	repo := newServicePaymentRepo()
	gw := &serviceGateway{redirectURL: "https://accept.paymob.example/unifiedcheckout/?clientSecret=cs_1"}
	src := &serviceAmountSource{amount: decimal.RequireFromString("120.00")}
	svc := newPaymentServiceForTest(repo, &serviceEventRepo{}, &serviceWebhookRepo{}, gw, src)

	if _, err := svc.Register(context.Background(), registerParamsForTest()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	url, err := svc.Pay(context.Background(), testTransactionID, gateway.Payer{
		FirstName: "Nadia", LastName: "Hassan", Email: "nadia@example.com",
	})
	if err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	if url != gw.redirectURL {
		t.Fatalf("expected redirect url, got %s", url)
	}
	if gw.lastAmount != 12000 {
		t.Fatalf("expected gateway amount in minor units 12000, got %d", gw.lastAmount)
	}
	if gw.lastCorrelate != testTransactionID {
		t.Fatalf("expected correlation id %s, got %s", testTransactionID, gw.lastCorrelate)
	}

	updated, _ := repo.FindByTransactionID(context.Background(), testTransactionID)
	if updated.Status != entity.StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", updated.Status)
	}
	// Amount was resolved at registration; no second resolution call.
	if src.calls != 1 {
		t.Fatalf("expected a single amount resolution, got %d", src.calls)
	}
}

func TestPayResolvesAmountWhenUnset(t *testing.T) {
	repo := newServicePaymentRepo()
	repo.payments[testTransactionID] = &entity.TransactionPayment{
		TransactionID: testTransactionID,
		ProviderID:    testProviderID,
		UserID:        testUserID,
		ChargePointID: "cp-042",
		Status:        entity.StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
	gw := &serviceGateway{}
	src := &serviceAmountSource{amount: decimal.RequireFromString("75.25")}
	svc := newPaymentServiceForTest(repo, &serviceEventRepo{}, &serviceWebhookRepo{}, gw, src)

	if _, err := svc.Pay(context.Background(), testTransactionID, validPayer()); err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	if gw.lastAmount != 7525 {
		t.Fatalf("expected 7525 minor units, got %d", gw.lastAmount)
	}

	updated, _ := repo.FindByTransactionID(context.Background(), testTransactionID)
	if updated.Amount == nil || !updated.Amount.Equal(decimal.RequireFromString("75.25")) {
		t.Fatalf("expected resolved amount persisted, got %v", updated.Amount)
	}
}

func TestPayUnknownTransactionSkipsGateway(t *testing.T) {
	gw := &serviceGateway{}
	svc := newPaymentServiceForTest(newServicePaymentRepo(), &serviceEventRepo{}, &serviceWebhookRepo{}, gw, &serviceAmountSource{})

	_, err := svc.Pay(context.Background(), testTransactionID, validPayer())
	if !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
	if gw.calls != 0 {
		t.Fatalf("expected no gateway call, got %d", gw.calls)
	}
}

func TestPayGatewayFailureLeavesStatusUntouched(t *testing.T) {
	repo := newServicePaymentRepo()
	gw := &serviceGateway{err: &gateway.APIError{StatusCode: 401, Body: "bad token"}}
	src := &serviceAmountSource{amount: decimal.RequireFromString("50.00")}
	svc := newPaymentServiceForTest(repo, &serviceEventRepo{}, &serviceWebhookRepo{}, gw, src)

	if _, err := svc.Register(context.Background(), registerParamsForTest()); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err := svc.Pay(context.Background(), testTransactionID, validPayer())
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}

	updated, _ := repo.FindByTransactionID(context.Background(), testTransactionID)
	if updated.Status != entity.StatusPending {
		t.Fatalf("expected PENDING after gateway failure, got %s", updated.Status)
	}
}

func TestPayTwiceIsIllegalTransition(t *testing.T) {
	repo := newServicePaymentRepo()
	src := &serviceAmountSource{amount: decimal.RequireFromString("50.00")}
	svc := newPaymentServiceForTest(repo, &serviceEventRepo{}, &serviceWebhookRepo{}, &serviceGateway{}, src)

	if _, err := svc.Register(context.Background(), registerParamsForTest()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := svc.Pay(context.Background(), testTransactionID, validPayer()); err != nil {
		t.Fatalf("first pay failed: %v", err)
	}

	_, err := svc.Pay(context.Background(), testTransactionID, validPayer())
	if !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
}

func TestGetPaymentNotFound(t *testing.T) {
	svc := newPaymentServiceForTest(newServicePaymentRepo(), &serviceEventRepo{}, &serviceWebhookRepo{}, &serviceGateway{}, &serviceAmountSource{})

	_, err := svc.GetPayment(context.Background(), testTransactionID)
	if !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func validPayer() gateway.Payer {
	return gateway.Payer{FirstName: "Nadia", LastName: "Hassan", Email: "nadia@example.com"}
}
