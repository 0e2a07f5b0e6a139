package sms

import "errors"

var (
	ErrNotConfigured    = errors.New("sms: provider credentials are missing")
	ErrMissingRecipient = errors.New("sms: recipient phone number is required")
	ErrDeliveryFailed   = errors.New("sms: delivery failed")
)
