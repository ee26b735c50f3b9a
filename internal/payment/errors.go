package payment

import "errors"

var (
	ErrNotFound         = errors.New("payment: transaction not found")
	ErrUnknownPackage   = errors.New("payment: invalid package")
	ErrUnknownStatus    = errors.New("payment: unknown provider status")
	ErrSignatureInvalid = errors.New("payment: webhook signature invalid")
	ErrProvider         = errors.New("payment: provider call failed")
)
