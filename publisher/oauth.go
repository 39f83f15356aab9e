package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultAuthURL  = "https://www.pinterest.com/oauth/"
	defaultTokenURL = "https://api.pinterest.com/v5/oauth/token"
	defaultScopes   = "pins:read,pins:write,boards:read,boards:write,user_accounts:read"
)

// OAuthConfig is the app registration used for the one-time token
// exchange. RedirectURI must match the app's registered redirect and
// point at the local callback listener.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       string
	AuthURL      string
	TokenURL     string
}

func (c *OAuthConfig) applyDefaults() {
	if c.AuthURL == "" {
		c.AuthURL = defaultAuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = defaultTokenURL
	}
	if c.Scopes == "" {
		c.Scopes = defaultScopes
	}
	if c.RedirectURI == "" {
		c.RedirectURI = "http://localhost:8080"
	}
}

// TokenResponse is the token endpoint's answer.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthorizeURL builds the consent URL the operator opens in a browser.
func AuthorizeURL(cfg OAuthConfig, state string) string {
	cfg.applyDefaults()
	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", cfg.ClientID)
	query.Set("redirect_uri", cfg.RedirectURI)
	query.Set("scope", cfg.Scopes)
	query.Set("state", state)
	return cfg.AuthURL + "?" + query.Encode()
}

// ExchangeCode trades the authorization code for tokens using HTTP
// Basic app credentials, as the token endpoint requires.
func ExchangeCode(ctx context.Context, client *http.Client, cfg OAuthConfig, code string) (*TokenResponse, error) {
	cfg.applyDefaults()
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("oauth config must include client id and secret")
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", cfg.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(cfg.ClientID + ":" + cfg.ClientSecret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("token exchange failed: %d %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var token TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, errors.New("token response has no access_token")
	}
	return &token, nil
}

// RunAuthFlow prints the consent URL, waits for the redirect on a local
// listener, exchanges the code and prints the env lines to save. It is
// a one-time interactive helper, not part of any scheduled run.
func RunAuthFlow(ctx context.Context, cfg OAuthConfig, addr string, logger *logrus.Logger) error {
	cfg.applyDefaults()
	if addr == "" {
		addr = ":8080"
	}

	logger.Infof("🚀 Open this URL in your browser:\n%s", AuthorizeURL(cfg, "1234"))

	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "<h2>Missing code parameter</h2>")
			return
		}
		fmt.Fprint(w, "<h2>Pinterest Auth Successful! You can close this window.</h2>")
		select {
		case codeCh <- code:
		default:
		}
	})
	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Callback server failed")
		}
	}()
	defer server.Close()

	logger.Info("🌐 Waiting for Pinterest OAuth redirect...")
	var code string
	select {
	case code = <-codeCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	token, err := ExchangeCode(ctx, nil, cfg, code)
	if err != nil {
		return err
	}
	logger.Info("🎉 SUCCESS! Save these to your .env:")
	logger.Infof("PINTEREST_ACCESS_TOKEN=%s", token.AccessToken)
	if token.RefreshToken != "" {
		logger.Infof("PINTEREST_REFRESH_TOKEN=%s", token.RefreshToken)
	}
	return nil
}
