package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/domain"
)

const providerName = "oidc"

// Provider implements the identity-provider boundary over OIDC/OAuth2.
type Provider struct {
	config           *oauth2.Config
	oidcProvider     *gooidc.Provider
	verifier         *gooidc.IDTokenVerifier
	userinfoEndpoint string
	httpClient       *http.Client
	timeout          time.Duration
}

// Config holds construction parameters for the OIDC provider.
type Config struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// New discovers the issuer and builds the provider.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("client ID and secret are required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	op, err := gooidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	var discovery struct {
		UserinfoEndpoint string `json:"userinfo_endpoint"`
	}
	if err := op.Claims(&discovery); err != nil {
		return nil, fmt.Errorf("oidc discovery claims: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID, "profile", "email"}
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     op.Endpoint(),
			Scopes:       scopes,
		},
		oidcProvider:     op,
		verifier:         op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		userinfoEndpoint: discovery.UserinfoEndpoint,
		httpClient:       httpClient,
		timeout:          timeout,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}

// AuthCodeURL builds the authorization URL with state and nonce.
func (p *Provider) AuthCodeURL(state, nonce string) string {
	return p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// userClaims is the claim shape shared by the ID token and userinfo.
type userClaims struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Phone   string `json:"phone_number"`
	Nonce   string `json:"nonce"`
}

func (c userClaims) identity() *domain.Identity {
	return &domain.Identity{
		ID:    c.Subject,
		Email: c.Email,
		Name:  c.Name,
		Phone: c.Phone,
	}
}

// Exchange completes the code exchange and verifies the returned ID token.
func (p *Provider) Exchange(ctx context.Context, code, nonce string) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("provider did not return an id_token")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("id_token verification: %w", err)
	}

	var claims userClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("id_token claims: %w", err)
	}
	if nonce != "" && claims.Nonce != nonce {
		return nil, errors.New("id_token nonce mismatch")
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, errors.New("id_token missing required claims")
	}

	return claims.identity(), nil
}

// CurrentUser queries the userinfo endpoint with the given access token.
// A 401/403 answer means "no authenticated user" and is not an error.
func (p *Provider) CurrentUser(ctx context.Context, accessToken string) (*domain.Identity, error) {
	if accessToken == "" {
		return nil, nil
	}
	if p.userinfoEndpoint == "" {
		return nil, errors.New("issuer exposes no userinfo endpoint")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfoEndpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("userinfo: %s: %s", resp.Status, body)
	}

	var claims userClaims
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("userinfo decode: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("userinfo missing subject")
	}

	return claims.identity(), nil
}
