package models

import "github.com/shopspring/decimal"

// STKPushInput is the payload from the merchant frontend to start a push.
// Amount decodes from either a JSON number or a numeric string.
type STKPushInput struct {
	PhoneNumber string          `json:"phoneNumber"`
	Amount      decimal.Decimal `json:"amount"`
}

// STKQueryInput asks for the outcome of a previously initiated push.
type STKQueryInput struct {
	CheckoutRequestID string `json:"checkoutRequestID"`
}
