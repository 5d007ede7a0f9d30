package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/arjunbector/OmniSearch/internal/model"
)

// ErrNoRefreshToken is returned when the provider issued no refresh token.
// Consent is forced at login, so this normally means a stale grant.
var ErrNoRefreshToken = errors.New("no refresh token in response")

// AuthService drives the OAuth2 authorization-code flow against Google.
type AuthService struct {
	oauthConfig *oauth2.Config
	apiOptions  []option.ClientOption
}

// NewAuthService creates a new AuthService. apiOptions are applied to the
// userinfo API client, tests use them to point it at a fake endpoint.
func NewAuthService(oauthConfig *oauth2.Config, apiOptions ...option.ClientOption) *AuthService {
	return &AuthService{oauthConfig: oauthConfig, apiOptions: apiOptions}
}

// Config returns the OAuth2 config.
func (s *AuthService) Config() *oauth2.Config {
	return s.oauthConfig
}

// GenerateAuthURL returns the provider URL the user agent is sent to.
// Offline access and forced consent make Google issue a refresh token on
// every login.
func (s *AuthService) GenerateAuthURL(state string) string {
	return s.oauthConfig.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

// ExchangeCode exchanges the authorization code for a token and requires a
// refresh token in the response.
func (s *AuthService) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	if token.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}
	return token, nil
}

// TokenInfo describes token for the callback response.
func (s *AuthService) TokenInfo(token *oauth2.Token) model.TokenInfo {
	info := model.TokenInfo{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    "Bearer",
		Scope:        GrantedScopes(token, s.oauthConfig.Scopes),
		TokenURI:     s.oauthConfig.Endpoint.TokenURL,
		ClientID:     s.oauthConfig.ClientID,
	}
	if !token.Expiry.IsZero() {
		exp := token.Expiry.Unix()
		info.ExpiresIn = &exp
	}
	return info
}

// GrantedScopes returns the scopes reported in the token response, or
// requested when the provider did not echo them.
func GrantedScopes(token *oauth2.Token, requested []string) []string {
	if raw, ok := token.Extra("scope").(string); ok && raw != "" {
		return strings.Fields(raw)
	}
	return append([]string(nil), requested...)
}

// UserInfo fetches the Google profile of the holder of token.
func (s *AuthService) UserInfo(ctx context.Context, token *oauth2.Token) (*googleoauth2.Userinfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	opts := append([]option.ClientOption{option.WithHTTPClient(client)}, s.apiOptions...)

	svc, err := googleoauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth2 service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	return info, nil
}

// HTTPClient returns a client that sends accessToken as a bearer credential.
// The token is used as-is; it is never refreshed.
func HTTPClient(ctx context.Context, accessToken string) *http.Client {
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
}
