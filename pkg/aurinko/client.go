package aurinko

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mailflow-backend/pkg/metrics"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.aurinko.io/v1"

// ProviderError is any non-2xx or malformed response from the mail API.
// The client never retries; retry policy belongs to the caller.
type ProviderError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Client talks to an Aurinko-compatible mail API. Per-account access tokens
// are passed per call, the client itself holds only app credentials.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

func NewClient(baseURL, clientID, clientSecret string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}
}

// StartSync asks the provider to begin indexing the mailbox. Callers poll
// this until Ready is true.
func (c *Client) StartSync(ctx context.Context, token string, daysWithin int, bodyType string) (*SyncResponse, error) {
	q := url.Values{}
	q.Set("daysWithin", strconv.Itoa(daysWithin))
	q.Set("bodyType", bodyType)

	var out SyncResponse
	if err := c.do(ctx, http.MethodPost, "/email/sync", q, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUpdatedEmails fetches one delta page. Exactly one of deltaToken or
// pageToken is normally set; pageToken continues a multi-page result.
func (c *Client) GetUpdatedEmails(ctx context.Context, token, deltaToken, pageToken string) (*SyncUpdatedResponse, error) {
	q := url.Values{}
	if deltaToken != "" {
		q.Set("deltaToken", deltaToken)
	}
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	var out SyncUpdatedResponse
	if err := c.do(ctx, http.MethodGet, "/email/sync/updated", q, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendEmail sends a message through the linked mailbox.
func (c *Client) SendEmail(ctx context.Context, token string, req *SendEmailRequest) (*SendEmailResponse, error) {
	q := url.Values{}
	q.Set("returnIds", "true")

	var out SendEmailResponse
	if err := c.do(ctx, http.MethodPost, "/email/messages", q, token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AuthorizeURL builds the provider OAuth page URL for linking a mailbox.
// serviceType is "Google" or "Office365".
func (c *Client) AuthorizeURL(serviceType, returnURL string) string {
	q := url.Values{}
	q.Set("clientId", c.clientID)
	q.Set("serviceType", serviceType)
	q.Set("scopes", "Mail.Read Mail.ReadWrite Mail.Send Mail.Drafts Mail.All")
	q.Set("responseType", "code")
	q.Set("returnUrl", returnURL)
	return c.baseURL + "/auth/authorize?" + q.Encode()
}

// ExchangeCodeForToken trades the callback code for an account access token.
// The provider authenticates the app with Basic credentials here, not Bearer.
func (c *Client) ExchangeCodeForToken(ctx context.Context, code string) (*TokenResponse, error) {
	endpoint := "/auth/token/" + code
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, err
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Content-Type", "application/json")

	var out TokenResponse
	if err := c.roundTrip(req, "/auth/token", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAccountDetails fetches the mailbox identity behind an access token.
func (c *Client) GetAccountDetails(ctx context.Context, token string) (*AccountDetails, error) {
	var out AccountDetails
	if err := c.do(ctx, http.MethodGet, "/account", nil, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, token string, body, out any) error {
	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.roundTrip(req, endpoint, out)
}

func (c *Client) roundTrip(req *http.Request, endpoint string, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveProviderCall(endpoint, "error", time.Since(start))
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveProviderCall(endpoint, "error", time.Since(start))
		return fmt.Errorf("failed to read provider response: %w", err)
	}

	metrics.ObserveProviderCall(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ProviderError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &ProviderError{
				Endpoint:   endpoint,
				StatusCode: resp.StatusCode,
				Body:       "malformed response: " + err.Error(),
			}
		}
	}
	return nil
}
