package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Terminal reports whether the status is a final state. A terminal
// transaction is never moved back to pending.
func (s TransactionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Transaction is one STK push attempt, keyed by the checkout request ID
// Daraja issues at initiation. Exactly one row exists per checkout ID.
type Transaction struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	CheckoutRequestID string `gorm:"uniqueIndex;not null" json:"checkout_request_id"`
	MerchantRequestID string `json:"merchant_request_id"`
	AccountReference  string `json:"account_reference"`

	PhoneNumber string          `json:"phone_number"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`

	// Set only once the payment is confirmed; unique across all rows.
	MpesaReceiptNumber *string `gorm:"uniqueIndex" json:"mpesa_receipt_number,omitempty"`

	Status     TransactionStatus `gorm:"not null" json:"status"`
	ResultCode *int              `json:"result_code,omitempty"`
	ResultDesc string            `json:"result_desc,omitempty"`

	RawCallback        datatypes.JSON `json:"-"`
	TransactionDate    *time.Time     `json:"transaction_date,omitempty"`
	CallbackReceivedAt *time.Time     `json:"callback_received_at,omitempty"`
}
