package daraja

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackMetadataLookup(t *testing.T) {
	payload := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "m_1",
				"CheckoutRequestID": "ws_1",
				"ResultCode": 0,
				"ResultDesc": "ok",
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": 100.5},
						{"Name": "MpesaReceiptNumber", "Value": "QAX123"},
						{"Name": "TransactionDate", "Value": 20240101120000},
						{"Name": "PhoneNumber", "Value": 254712345678}
					]
				}
			}
		}
	}`)

	var envelope CallbackEnvelope
	require.NoError(t, json.Unmarshal(payload, &envelope))
	cb := envelope.Body.STKCallback
	require.NotNil(t, cb)

	md := cb.CallbackMetadata
	require.NotNil(t, md)

	receipt, ok := md.String("MpesaReceiptNumber")
	assert.True(t, ok)
	assert.Equal(t, "QAX123", receipt)

	// numbers decode through the string accessor too
	phone, ok := md.String("PhoneNumber")
	assert.True(t, ok)
	assert.Equal(t, "254712345678", phone)

	amount, ok := md.Decimal("Amount")
	assert.True(t, ok)
	assert.True(t, amount.Equal(decimal.RequireFromString("100.5")))

	_, ok = md.Lookup("Balance")
	assert.False(t, ok, "absent key is absent, not an error")
	_, ok = md.String("Balance")
	assert.False(t, ok)
	_, ok = md.Decimal("MpesaReceiptNumber")
	assert.False(t, ok, "non-numeric value must not decode as a decimal")
}

func TestCallbackMetadataNil(t *testing.T) {
	var md *CallbackMetadata
	_, ok := md.Lookup("Amount")
	assert.False(t, ok)
	_, ok = md.String("Amount")
	assert.False(t, ok)
	_, ok = md.Decimal("Amount")
	assert.False(t, ok)
}

func TestCallbackWithoutMetadata(t *testing.T) {
	payload := []byte(`{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "m_1",
				"CheckoutRequestID": "ws_1",
				"ResultCode": 1032,
				"ResultDesc": "Request cancelled by user"
			}
		}
	}`)

	var envelope CallbackEnvelope
	require.NoError(t, json.Unmarshal(payload, &envelope))
	cb := envelope.Body.STKCallback
	require.NotNil(t, cb)
	assert.Equal(t, 1032, cb.ResultCode)
	assert.Nil(t, cb.CallbackMetadata)
}
