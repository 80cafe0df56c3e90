// Package payments holds the core of the gateway: initiating STK pushes,
// reconciling Daraja's asynchronous callbacks into the transaction store,
// and polling for outcomes when a callback is delayed or lost.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/aloeflora/mpesa-gateway/config"
	"github.com/aloeflora/mpesa-gateway/daraja"
	"github.com/aloeflora/mpesa-gateway/models"
	"github.com/aloeflora/mpesa-gateway/store"
)

// Client is the slice of the Daraja API the service uses.
type Client interface {
	STKPush(ctx context.Context, req *daraja.STKPushRequest) (*daraja.STKPushResponse, error)
	STKQuery(ctx context.Context, req *daraja.STKQueryRequest) (*daraja.STKQueryResponse, error)
}

type Service struct {
	Store  store.Store
	Client Client
	Config config.Config

	// Now and NewRef default to time.Now and uuid.NewString.
	Now    func() time.Time
	NewRef func() string
}

func NewService(st store.Store, client Client, cfg config.Config) *Service {
	return &Service{Store: st, Client: client, Config: cfg}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newRef() string {
	if s.NewRef != nil {
		return s.NewRef()
	}
	return uuid.NewString()
}

// InitiateResult is what the caller needs to correlate the attempt.
type InitiateResult struct {
	CheckoutRequestID   string `json:"checkoutRequestID"`
	MerchantRequestID   string `json:"merchantRequestID"`
	ResponseDescription string `json:"responseDescription"`
	CustomerMessage     string `json:"customerMessage,omitempty"`
}

// Initiate validates the request, submits the STK push and creates the
// pending transaction keyed by the returned checkout ID. No retries;
// idempotency of repeated initiation is the caller's responsibility.
func (s *Service) Initiate(ctx context.Context, in *models.STKPushInput) (*InitiateResult, error) {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, &ValidationError{Field: "amount", Reason: "must be a positive number"}
	}
	phone, err := NormalizePhone(in.PhoneNumber)
	if err != nil {
		return nil, err
	}

	ts := daraja.Timestamp(s.now())
	ref := s.newRef()
	resp, err := s.Client.STKPush(ctx, &daraja.STKPushRequest{
		BusinessShortCode: s.Config.ShortCode,
		Password:          daraja.Password(s.Config.ShortCode, s.Config.Passkey, ts),
		Timestamp:         ts,
		TransactionType:   daraja.TransactionTypePayBill,
		Amount:            in.Amount.String(),
		PartyA:            phone,
		PartyB:            s.Config.ShortCode,
		PhoneNumber:       phone,
		CallBackURL:       s.Config.CallbackURL,
		AccountReference:  ref,
		TransactionDesc:   s.Config.TransactionDesc,
	})
	if err != nil {
		return nil, err
	}
	if resp.ResponseCode != "0" {
		return nil, &RejectedError{Description: resp.ResponseDescription}
	}

	tx := &models.Transaction{
		CheckoutRequestID: resp.CheckoutRequestID,
		MerchantRequestID: resp.MerchantRequestID,
		AccountReference:  ref,
		PhoneNumber:       phone,
		Amount:            in.Amount,
		Status:            models.StatusPending,
	}
	if err := s.Store.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	return &InitiateResult{
		CheckoutRequestID:   resp.CheckoutRequestID,
		MerchantRequestID:   resp.MerchantRequestID,
		ResponseDescription: resp.ResponseDescription,
		CustomerMessage:     resp.CustomerMessage,
	}, nil
}

// ReconcileResult reports what the reconciler did with a callback.
type ReconcileResult struct {
	Transaction *models.Transaction
	// AlreadyProcessed means the resolution had been applied before and the
	// stored transaction was left untouched. Informational, not a failure.
	AlreadyProcessed bool
}

// Reconcile merges an asynchronous callback into the store. A success
// callback for an unknown checkout ID creates the transaction: the callback
// is the network's authoritative view of the attempt, and it may race or
// precede the initiator's local write.
func (s *Service) Reconcile(ctx context.Context, raw []byte) (*ReconcileResult, error) {
	var envelope daraja.CallbackEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCallback, err)
	}
	cb := envelope.Body.STKCallback
	if cb == nil || cb.CheckoutRequestID == "" {
		return nil, ErrMalformedCallback
	}

	now := s.now()
	code := cb.ResultCode
	tx := &models.Transaction{
		CheckoutRequestID:  cb.CheckoutRequestID,
		MerchantRequestID:  cb.MerchantRequestID,
		Status:             models.StatusFailed,
		ResultCode:         &code,
		ResultDesc:         cb.ResultDesc,
		RawCallback:        datatypes.JSON(raw),
		TransactionDate:    &now,
		CallbackReceivedAt: &now,
	}

	if cb.ResultCode == 0 {
		tx.Status = models.StatusCompleted
		if amount, ok := cb.CallbackMetadata.Decimal("Amount"); ok {
			tx.Amount = amount
		}
		if phone, ok := cb.CallbackMetadata.String("PhoneNumber"); ok {
			tx.PhoneNumber = phone
		}
		if receipt, ok := cb.CallbackMetadata.String("MpesaReceiptNumber"); ok {
			// A known receipt means this settlement was already applied.
			prev, err := s.Store.FindByReceipt(ctx, receipt)
			switch {
			case err == nil:
				return &ReconcileResult{Transaction: prev, AlreadyProcessed: true}, nil
			case !errors.Is(err, store.ErrNotFound):
				return nil, fmt.Errorf("find by receipt: %w", err)
			}
			tx.MpesaReceiptNumber = &receipt
		}
	}

	existing, err := s.Store.FindByCheckoutID(ctx, cb.CheckoutRequestID)
	switch {
	case err == nil:
		if existing.Status.Terminal() {
			return &ReconcileResult{Transaction: existing, AlreadyProcessed: true}, nil
		}
		// carry over what the callback does not supply
		if tx.PhoneNumber == "" {
			tx.PhoneNumber = existing.PhoneNumber
		}
		if tx.Amount.IsZero() {
			tx.Amount = existing.Amount
		}
		if tx.MerchantRequestID == "" {
			tx.MerchantRequestID = existing.MerchantRequestID
		}
		tx.AccountReference = existing.AccountReference
	case errors.Is(err, store.ErrNotFound):
		// no local row yet; the upsert below creates it from the callback
	default:
		return nil, fmt.Errorf("find by checkout id: %w", err)
	}

	if err := s.Store.UpsertByCheckoutID(ctx, tx); err != nil {
		return nil, fmt.Errorf("upsert transaction: %w", err)
	}
	return &ReconcileResult{Transaction: tx}, nil
}

// Poll queries Daraja for the outcome of a known attempt and overwrites the
// stored resolution. Safe to repeat on a terminal transaction: the network
// returns a stable result for a resolved checkout, so re-polling only
// refreshes the code and timestamp fields.
func (s *Service) Poll(ctx context.Context, checkoutID string) (*models.Transaction, *daraja.STKQueryResponse, error) {
	if checkoutID == "" {
		return nil, nil, &ValidationError{Field: "checkoutRequestID", Reason: "required"}
	}

	ts := daraja.Timestamp(s.now())
	resp, err := s.Client.STKQuery(ctx, &daraja.STKQueryRequest{
		BusinessShortCode: s.Config.ShortCode,
		Password:          daraja.Password(s.Config.ShortCode, s.Config.Passkey, ts),
		Timestamp:         ts,
		CheckoutRequestID: checkoutID,
	})
	if err != nil {
		return nil, nil, err
	}

	tx, err := s.Store.FindByCheckoutID(ctx, checkoutID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	tx.Status = models.StatusFailed
	if resp.ResultCode == "0" {
		tx.Status = models.StatusCompleted
	}
	if n, err := strconv.Atoi(resp.ResultCode); err == nil {
		tx.ResultCode = &n
	}
	tx.ResultDesc = resp.ResultDesc
	now := s.now()
	tx.TransactionDate = &now

	if err := s.Store.UpsertByCheckoutID(ctx, tx); err != nil {
		return nil, nil, fmt.Errorf("update transaction: %w", err)
	}
	return tx, resp, nil
}
