package daraja

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CallbackEnvelope is the asynchronous result Daraja posts to the merchant's
// callback URL once the subscriber has acted on the push prompt.
type CallbackEnvelope struct {
	Body struct {
		STKCallback *STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

type STKCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        int               `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

// CallbackMetadata is the ordered name/value list Daraja attaches to
// successful callbacks. Values arrive as JSON numbers or strings depending
// on the field, so they are kept raw and decoded on lookup.
type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

type MetadataItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value,omitempty"`
}

// Lookup returns the raw value of the first item with the given name.
// A nil metadata list looks up nothing.
func (m *CallbackMetadata) Lookup(name string) (json.RawMessage, bool) {
	if m == nil {
		return nil, false
	}
	for _, it := range m.Item {
		if it.Name == name {
			return it.Value, true
		}
	}
	return nil, false
}

// String decodes the named value as a string, accepting JSON numbers too
// (Daraja sends PhoneNumber as a number).
func (m *CallbackMetadata) String(name string) (string, bool) {
	raw, ok := m.Lookup(name)
	if !ok || len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

// Decimal decodes the named value as a decimal amount.
func (m *CallbackMetadata) Decimal(name string) (decimal.Decimal, bool) {
	s, ok := m.String(name)
	if !ok {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
