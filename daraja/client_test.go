package daraja

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	got := Password("174379", "passkey", "20240101120000")
	want := base64.StdEncoding.EncodeToString([]byte("174379passkey20240101120000"))
	assert.Equal(t, want, got)
}

func TestTimestamp(t *testing.T) {
	ts := Timestamp(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, "20240101120000", ts)
}

type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) { return string(s), nil }

func TestSTKPush(t *testing.T) {
	var gotAuth string
	var gotReq STKPushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/mpesa/stkpush/v1/processrequest", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(STKPushResponse{
			ResponseCode:      "0",
			CheckoutRequestID: "ws_1",
			MerchantRequestID: "m_1",
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticTokens("tok-abc"))
	resp, err := client.STKPush(context.Background(), &STKPushRequest{
		BusinessShortCode: "174379",
		PhoneNumber:       "254712345678",
		Amount:            "100",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-abc", gotAuth)
	assert.Equal(t, "254712345678", gotReq.PhoneNumber)
	assert.Equal(t, "ws_1", resp.CheckoutRequestID)
	assert.Equal(t, "m_1", resp.MerchantRequestID)
}

func TestSTKQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/mpesa/stkpushquery/v1/query", r.URL.Path)
		json.NewEncoder(w).Encode(STKQueryResponse{ResultCode: "0", ResultDesc: "ok"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticTokens("tok-abc"))
	resp, err := client.STKQuery(context.Background(), &STKQueryRequest{CheckoutRequestID: "ws_1"})
	require.NoError(t, err)
	assert.Equal(t, "0", resp.ResultCode)
}

func TestUpstreamHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"errorMessage":"Spike arrest violation"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, staticTokens("tok-abc"))
	_, err := client.STKPush(context.Background(), &STKPushRequest{})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Contains(t, string(apiErr.Body), "Spike arrest violation")
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(srv.URL, staticTokens("tok-abc"))
	_, err := client.STKPush(context.Background(), &STKPushRequest{})
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport failures carry no upstream status")
}

func TestOAuthTokenSourceCaches(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		require.Equal(t, "/oauth/v1/generate", r.URL.Path)
		require.Equal(t, "client_credentials", r.URL.Query().Get("grant_type"))
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "key", user)
		require.Equal(t, "secret", pass)
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1", "expires_in": "3599"})
	}))
	defer srv.Close()

	src := NewOAuthTokenSource(srv.URL, "key", "secret")

	tok, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	tok, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, 1, hits, "second call must hit the cache")

	// force expiry and confirm a refetch
	src.expires = time.Now().Add(-time.Second)
	_, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
}

func TestOAuthTokenSourceUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Bad credentials"))
	}))
	defer srv.Close()

	src := NewOAuthTokenSource(srv.URL, "key", "wrong")
	_, err := src.Token(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
