package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alertline/go-auth/social"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProvider(tokenURL, userInfoURL string) *Provider {
	return New(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		CallbackURL:  "https://app.example.com/auth/social/google/callback",
		TokenURL:     tokenURL,
		UserInfoURL:  userInfoURL,
	})
}

func TestAuthCodeURL(t *testing.T) {
	p := testProvider("", "")

	raw := p.AuthCodeURL("state-token", social.WithPKCE("challenge-value", "S256"), social.WithPrompt("consent"))

	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "state-token", q.Get("state"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "challenge-value", q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, "consent", q.Get("prompt"))
}

func TestAuthCodeURL_NoPKCE(t *testing.T) {
	p := testProvider("", "")

	parsed, err := url.Parse(p.AuthCodeURL("state-token"))
	require.NoError(t, err)

	q := parsed.Query()
	assert.Empty(t, q.Get("code_challenge"))
	assert.Empty(t, q.Get("prompt"))
}

func TestExchange(t *testing.T) {
	var gotForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"access_token": "at-123",
			"token_type": "Bearer",
			"expires_in": 3600,
			"refresh_token": "rt-456",
			"scope": "openid email",
			"id_token": "idt-789"
		}`))
	}))
	defer server.Close()

	p := testProvider(server.URL, "")

	token, err := p.Exchange(context.Background(), "auth-code", social.WithCodeVerifier("verifier-abc"))
	require.NoError(t, err)

	assert.Equal(t, "at-123", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, "rt-456", token.RefreshToken)
	assert.Equal(t, "idt-789", token.IDToken)
	assert.Equal(t, []string{"openid", "email"}, token.Scopes)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, 5*time.Second)

	assert.Equal(t, "auth-code", gotForm.Get("code"))
	assert.Equal(t, "authorization_code", gotForm.Get("grant_type"))
	assert.Equal(t, "verifier-abc", gotForm.Get("code_verifier"))
	assert.Equal(t, "client-secret", gotForm.Get("client_secret"))
}

func TestExchange_OAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "invalid_grant", "error_description": "Code was already redeemed."}`))
	}))
	defer server.Close()

	p := testProvider(server.URL, "")

	_, err := p.Exchange(context.Background(), "stale-code")
	require.Error(t, err)

	var perr *social.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "google", perr.Provider)
	assert.Equal(t, "exchange", perr.Operation)
	assert.Equal(t, http.StatusBadRequest, perr.Status)
	assert.Equal(t, "invalid_grant", perr.Code)
	assert.Contains(t, perr.Description, "already redeemed")
}

func TestExchange_MissingAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token_type": "Bearer"}`))
	}))
	defer server.Close()

	p := testProvider(server.URL, "")

	_, err := p.Exchange(context.Background(), "code")
	var perr *social.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "missing_access_token", perr.Code)
}

func TestUserInfo(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"sub": "108203948201",
			"email": "trader@example.com",
			"email_verified": true,
			"name": "Trader",
			"picture": "https://lh3.googleusercontent.com/photo.jpg",
			"locale": "en"
		}`))
	}))
	defer server.Close()

	p := testProvider("", server.URL)

	profile, err := p.UserInfo(context.Background(), &social.Token{AccessToken: "at-123"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer at-123", gotAuth)
	assert.Equal(t, "google", profile.Provider)
	assert.Equal(t, "108203948201", profile.ProviderAccountID)
	assert.Equal(t, "trader@example.com", profile.Email)
	assert.True(t, profile.EmailVerified)
	assert.Equal(t, "https://lh3.googleusercontent.com/photo.jpg", profile.AvatarURL)
	assert.Equal(t, "en", profile.Raw["locale"])
}

func TestUserInfo_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"code": 401, "message": "Invalid Credentials", "status": "UNAUTHENTICATED"}}`))
	}))
	defer server.Close()

	p := testProvider("", server.URL)

	_, err := p.UserInfo(context.Background(), &social.Token{AccessToken: "expired"})
	require.Error(t, err)

	var perr *social.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "user_info", perr.Operation)
	assert.Equal(t, "UNAUTHENTICATED", perr.Code)
	assert.Equal(t, "Invalid Credentials", perr.Description)
}

func TestRefreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "rt-456", r.PostForm.Get("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "at-new", "token_type": "Bearer", "expires_in": 3600}`))
	}))
	defer server.Close()

	p := testProvider(server.URL, "")

	token, err := p.RefreshToken(context.Background(), "rt-456")
	require.NoError(t, err)
	assert.Equal(t, "at-new", token.AccessToken)

	// the refresh token is carried forward, Google does not reissue it
	assert.Equal(t, "rt-456", token.RefreshToken)
}

func TestNewDefaults(t *testing.T) {
	p := New(Config{ClientID: "id"})
	assert.Equal(t, "google", p.Name())
	assert.Equal(t, defaultAuthURL, p.config.AuthURL)
	assert.Equal(t, defaultTokenURL, p.config.TokenURL)
	assert.Equal(t, defaultUserInfoURL, p.config.UserInfoURL)
	assert.Equal(t, DefaultScopes(), p.config.Scopes)
	assert.NotNil(t, p.httpClient)
}
