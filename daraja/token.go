package daraja

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// TokenSource supplies a bearer credential for the Daraja API.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type oauthResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"` // Daraja sends this as a string
}

// OAuthTokenSource fetches client-credential tokens from Daraja and caches
// them until shortly before expiry. Safe for concurrent use.
type OAuthTokenSource struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	HTTPClient     *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewOAuthTokenSource(baseURL, consumerKey, consumerSecret string) *OAuthTokenSource {
	return &OAuthTokenSource{
		BaseURL:        baseURL,
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
	}
}

func (s *OAuthTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expires) {
		return s.token, nil
	}

	url := s.BaseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(s.ConsumerKey, s.ConsumerSecret)

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Body: body}
	}

	var tok oauthResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("daraja: token response missing access_token")
	}

	ttl, _ := strconv.Atoi(tok.ExpiresIn)
	if ttl <= 0 {
		ttl = 3600
	}
	s.token = tok.AccessToken
	// renew a little early so in-flight requests never carry a stale token
	s.expires = time.Now().Add(time.Duration(ttl)*time.Second - 30*time.Second)
	return s.token, nil
}
