package service

import "errors"

var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrPaymentNotFound      = errors.New("transaction payment not found")
	ErrPaymentAlreadyExists = errors.New("transaction payment already exists")
	ErrIllegalTransition    = errors.New("illegal payment status transition")
	ErrAmountUnavailable    = errors.New("transaction amount unavailable")
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")
)
