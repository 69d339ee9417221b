package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/energiq-cloud/ms-go-transaction-payments/app/factory"
	"github.com/energiq-cloud/ms-go-transaction-payments/app/gateway"
	"github.com/energiq-cloud/ms-go-transaction-payments/app/mapper"
	"github.com/energiq-cloud/ms-go-transaction-payments/app/service"
	"github.com/energiq-cloud/ms-go-transaction-payments/app/types"
)

type PaymentController struct {
	paymentService *service.PaymentService
	logger         logrus.FieldLogger
}

func NewPaymentController(paymentService *service.PaymentService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		logger:         factory.NewModuleLogger("payments-controller"),
	}
}

func (c *PaymentController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *PaymentController) GetTransactionPayment(ctx echo.Context) error {
	req := types.NewTransactionIDRequestFromContext(ctx)
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.paymentService.GetPayment(ctx.Request().Context(), req.TransactionID)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "transaction payment not found")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Get transaction payment failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, mapper.PaymentToResponse(item))
}

func (c *PaymentController) ListProviderTransactions(ctx echo.Context) error {
	req := types.NewProviderIDRequestFromContext(ctx)
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	items, err := c.paymentService.ListByProvider(ctx.Request().Context(), req.ProviderID)
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("List provider transactions failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.TransactionListResponse{Transactions: mapper.PaymentsToResponse(items)})
}

func (c *PaymentController) ListUserTransactions(ctx echo.Context) error {
	req := types.NewUserIDRequestFromContext(ctx)
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	items, err := c.paymentService.ListByUser(ctx.Request().Context(), req.UserID)
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("List user transactions failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.TransactionListResponse{Transactions: mapper.PaymentsToResponse(items)})
}

func (c *PaymentController) RegisterTransactionPayment(ctx echo.Context) error {
	req, err := types.NewRegisterTransactionPaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.paymentService.Register(ctx.Request().Context(), service.RegisterParams{
		TransactionID: req.TransactionID,
		ProviderID:    req.ProviderID,
		UserID:        req.UserID,
		ChargePointID: req.ChargePointID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrAmountUnavailable):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPaymentAlreadyExists):
			return c.writeError(ctx, http.StatusConflict, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Register transaction payment failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusCreated, &types.RegisterAckResponse{
		Message:       "Transaction payment created successfully",
		TransactionID: item.TransactionID,
		PaymentStatus: string(item.Status),
	})
}

func (c *PaymentController) PayTransaction(ctx echo.Context) error {
	req, err := types.NewPayTransactionRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	redirectURL, err := c.paymentService.Pay(ctx.Request().Context(), req.TransactionID, gateway.Payer{
		FirstName: req.Payer.FirstName,
		LastName:  req.Payer.LastName,
		Email:     req.Payer.Email,
		Phone:     req.Payer.PhoneNumber,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentNotFound):
			return c.writeError(ctx, http.StatusNotFound, "transaction not found")
		case errors.Is(err, service.ErrAmountUnavailable):
			return c.writeError(ctx, http.StatusBadRequest, "could not retrieve transaction amount")
		case errors.Is(err, service.ErrIllegalTransition):
			return c.writeError(ctx, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrGatewayUnavailable):
			return c.writeError(ctx, http.StatusBadGateway, "payment service unavailable")
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Pay transaction failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.PaymentURLResponse{
		PaymentURL:    redirectURL,
		TransactionID: req.TransactionID,
		PaymentStatus: "IN_PROGRESS",
	})
}

// HandlePaymentWebhook acknowledges every delivery with 200 no matter what
// happened inside; the gateway redelivers anything else.
func (c *PaymentController) HandlePaymentWebhook(ctx echo.Context) error {
	req := types.NewGatewayWebhookRequestFromContext(ctx)

	outcome := c.paymentService.HandleGatewayWebhook(ctx.Request().Context(), req.ToNotification())

	message := "Webhook processed successfully"
	switch outcome {
	case service.WebhookOutcomeDuplicate:
		message = "Webhook already processed"
	case service.WebhookOutcomeIgnored:
		message = "Webhook received and acknowledged"
	case service.WebhookOutcomeRejected:
		message = "Webhook received but could not be applied"
	}

	return ctx.JSON(http.StatusOK, &types.WebhookAckResponse{Message: message, Outcome: string(outcome)})
}

func (c *PaymentController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
