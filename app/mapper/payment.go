package mapper

import (
	"time"

	"github.com/energiq-cloud/ms-go-transaction-payments/app/entity"
	"github.com/energiq-cloud/ms-go-transaction-payments/app/types"
)

func PaymentToResponse(item *entity.TransactionPayment) *types.TransactionPaymentResponse {
	if item == nil {
		return nil
	}

	var amount *string
	if item.Amount != nil {
		formatted := item.Amount.StringFixed(2)
		amount = &formatted
	}

	return &types.TransactionPaymentResponse{
		TransactionID: item.TransactionID,
		ProviderID:    item.ProviderID,
		UserID:        item.UserID,
		ChargePointID: item.ChargePointID,
		PaymentStatus: string(item.Status),
		Amount:        amount,
		CreatedAt:     item.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func PaymentsToResponse(items []*entity.TransactionPayment) []*types.TransactionPaymentResponse {
	result := make([]*types.TransactionPaymentResponse, 0, len(items))
	for _, item := range items {
		result = append(result, PaymentToResponse(item))
	}
	return result
}
