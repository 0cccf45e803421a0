package services

import "errors"

var (
	ErrForbidden              = errors.New("forbidden")
	ErrConflict               = errors.New("conflict")
	ErrNotFound               = errors.New("not found")
	ErrInvalidInput           = errors.New("invalid input")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrDeveloperNotFound      = errors.New("developer not found")
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrWalletExists           = errors.New("wallet already exists")
	ErrInvalidSignature       = errors.New("invalid webhook signature")
	ErrPaymentGateway         = errors.New("payment gateway failure")
)
