package aurinko

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSync(t *testing.T) {
	var gotQuery url.Values
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/email/sync", r.URL.Path)
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(SyncResponse{Ready: true, SyncUpdatedToken: "delta-0"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "app-id", "app-secret")
	resp, err := client.StartSync(context.Background(), "acct-token", 7, "html")
	require.NoError(t, err)

	assert.True(t, resp.Ready)
	assert.Equal(t, "delta-0", resp.SyncUpdatedToken)
	assert.Equal(t, "7", gotQuery.Get("daysWithin"))
	assert.Equal(t, "html", gotQuery.Get("bodyType"))
	assert.Equal(t, "Bearer acct-token", gotAuth)
}

func TestGetUpdatedEmailsTokenSelection(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/email/sync/updated", r.URL.Path)
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(SyncUpdatedResponse{
			NextDeltaToken: "delta-1",
			Records:        []EmailMessage{{ID: "m1"}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "app-id", "app-secret")

	resp, err := client.GetUpdatedEmails(context.Background(), "acct-token", "delta-0", "")
	require.NoError(t, err)
	assert.Equal(t, "delta-0", gotQuery.Get("deltaToken"))
	assert.Empty(t, gotQuery.Get("pageToken"))
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "m1", resp.Records[0].ID)

	_, err = client.GetUpdatedEmails(context.Background(), "acct-token", "", "page-2")
	require.NoError(t, err)
	assert.Empty(t, gotQuery.Get("deltaToken"))
	assert.Equal(t, "page-2", gotQuery.Get("pageToken"))
}

func TestSendEmailRequestsIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/email/messages", r.URL.Path)
		require.Equal(t, "true", r.URL.Query().Get("returnIds"))

		var body SendEmailRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body.Subject)

		json.NewEncoder(w).Encode(SendEmailResponse{ID: "sent-1", ThreadID: "t-1"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "app-id", "app-secret")
	resp, err := client.SendEmail(context.Background(), "acct-token", &SendEmailRequest{
		Subject: "hello",
		Body:    "world",
		From:    EmailAddress{Address: "me@example.com"},
		To:      []EmailAddress{{Address: "you@example.com"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "sent-1", resp.ID)
	assert.Equal(t, "t-1", resp.ThreadID)
}

func TestExchangeCodeUsesBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/token/the-code", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "app-id", user)
		assert.Equal(t, "app-secret", pass)
		json.NewEncoder(w).Encode(TokenResponse{AccountID: 123, AccessToken: "acct-token"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "app-id", "app-secret")
	resp, err := client.ExchangeCodeForToken(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, int64(123), resp.AccountID)
	assert.Equal(t, "acct-token", resp.AccessToken)
}

func TestAuthorizeURL(t *testing.T) {
	client := NewClient("https://api.example.com/v1", "app-id", "app-secret")
	raw := client.AuthorizeURL("Google", "https://app.example.com/callback")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/v1/auth/authorize", u.Path)
	assert.Equal(t, "app-id", u.Query().Get("clientId"))
	assert.Equal(t, "Google", u.Query().Get("serviceType"))
	assert.Equal(t, "code", u.Query().Get("responseType"))
	assert.Equal(t, "https://app.example.com/callback", u.Query().Get("returnUrl"))
}

func TestProviderErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "app-id", "app-secret")
	_, err := client.StartSync(context.Background(), "acct-token", 7, "html")
	require.Error(t, err)

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusTooManyRequests, provErr.StatusCode)
	assert.Contains(t, provErr.Body, "slow down")
}

func TestProviderErrorOnMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "app-id", "app-secret")
	_, err := client.GetUpdatedEmails(context.Background(), "acct-token", "delta-0", "")

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Contains(t, provErr.Body, "malformed response")
}
