package payments

import (
	"context"
	"sync"

	"github.com/aloeflora/mpesa-gateway/daraja"
	"github.com/aloeflora/mpesa-gateway/models"
	"github.com/aloeflora/mpesa-gateway/store"
)

// fakeStore implements store.Store in memory for service tests.
type fakeStore struct {
	mu         sync.Mutex
	byCheckout map[string]*models.Transaction

	CreateCalls int
	UpsertCalls int
	CreateErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{byCheckout: make(map[string]*models.Transaction)}
}

func (f *fakeStore) Create(_ context.Context, tx *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++
	if f.CreateErr != nil {
		return f.CreateErr
	}
	cp := *tx
	f.byCheckout[tx.CheckoutRequestID] = &cp
	return nil
}

func (f *fakeStore) FindByCheckoutID(_ context.Context, checkoutID string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tx, ok := f.byCheckout[checkoutID]; ok {
		cp := *tx
		return &cp, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) FindByReceipt(_ context.Context, receipt string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tx := range f.byCheckout {
		if tx.MpesaReceiptNumber != nil && *tx.MpesaReceiptNumber == receipt {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) UpsertByCheckoutID(_ context.Context, tx *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpsertCalls++
	cp := *tx
	f.byCheckout[tx.CheckoutRequestID] = &cp
	return nil
}

func (f *fakeStore) List(_ context.Context, fl store.ListFilter) ([]models.Transaction, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var txs []models.Transaction
	for _, tx := range f.byCheckout {
		if fl.Status != "" && string(tx.Status) != fl.Status {
			continue
		}
		txs = append(txs, *tx)
	}
	return txs, int64(len(txs)), nil
}

func (f *fakeStore) get(checkoutID string) *models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byCheckout[checkoutID]
}

// fakeClient implements Client with per-call overrides.
type fakeClient struct {
	PushFunc  func(ctx context.Context, req *daraja.STKPushRequest) (*daraja.STKPushResponse, error)
	QueryFunc func(ctx context.Context, req *daraja.STKQueryRequest) (*daraja.STKQueryResponse, error)

	PushCalls  int
	QueryCalls int
	LastPush   *daraja.STKPushRequest
	LastQuery  *daraja.STKQueryRequest
}

func (f *fakeClient) STKPush(ctx context.Context, req *daraja.STKPushRequest) (*daraja.STKPushResponse, error) {
	f.PushCalls++
	f.LastPush = req
	if f.PushFunc != nil {
		return f.PushFunc(ctx, req)
	}
	return &daraja.STKPushResponse{ResponseCode: "0", CheckoutRequestID: "ws_1", MerchantRequestID: "m_1"}, nil
}

func (f *fakeClient) STKQuery(ctx context.Context, req *daraja.STKQueryRequest) (*daraja.STKQueryResponse, error) {
	f.QueryCalls++
	f.LastQuery = req
	if f.QueryFunc != nil {
		return f.QueryFunc(ctx, req)
	}
	return &daraja.STKQueryResponse{ResultCode: "0", ResultDesc: "The service request is processed successfully."}, nil
}
