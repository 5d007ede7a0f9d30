package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"golang.org/x/oauth2"

	"github.com/arjunbector/OmniSearch/internal/audit"
	"github.com/arjunbector/OmniSearch/internal/auth"
	"github.com/arjunbector/OmniSearch/internal/config"
	"github.com/arjunbector/OmniSearch/internal/metrics"
	"github.com/arjunbector/OmniSearch/internal/model"
)

const (
	// StateCookieName holds the signed anti-forgery state between login and callback.
	StateCookieName = "oauth_state"

	demoEmail            = "demo@omnisearch.local"
	noRefreshTokenDetail = "No refresh token received. Please ensure you have revoked access and try again."
)

// AuthHandler handles authentication requests.
type AuthHandler struct {
	authService *auth.AuthService
	state       *auth.StateIssuer
	demo        *auth.DemoIssuer
	recorder    *audit.Recorder
	settings    config.Settings
	metrics     *metrics.Metrics

	stateCookiePath string
}

// NewAuthHandler creates a new AuthHandler. m may be nil.
func NewAuthHandler(s *auth.AuthService, state *auth.StateIssuer, demo *auth.DemoIssuer, recorder *audit.Recorder, settings config.Settings, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		authService:     s,
		state:           state,
		demo:            demo,
		recorder:        recorder,
		settings:        settings,
		metrics:         m,
		stateCookiePath: callbackCookiePath(settings.RedirectURI),
	}
}

// callbackCookiePath scopes the state cookie to the directory of the
// callback, so it is sent whatever prefix the API is served under.
//
//	"https://app.example.com/api/auth/callback" -> "/api/auth"
func callbackCookiePath(redirectURI string) string {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Path == "" {
		return "/"
	}
	dir := path.Dir(u.Path)
	if dir == "." || dir == "" {
		return "/"
	}
	return dir
}

// Login initiates the Google OAuth2 flow.
func (h *AuthHandler) Login(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	nonce, signed, err := h.state.Issue()
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	resp := events.APIGatewayProxyResponse{
		StatusCode: http.StatusFound,
		Headers: map[string]string{
			"Location": h.authService.GenerateAuthURL(nonce),
		},
	}
	return withCookies(resp, h.stateCookie(signed, int(h.state.TTL().Seconds()))), nil
}

// Callback handles the OAuth2 callback from Google. The state cookie is
// single-use and cleared on every outcome.
func (h *AuthHandler) Callback(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	query := req.QueryStringParameters

	if providerErr := query["error"]; providerErr != "" {
		return h.callbackFailed("provider_error", ExchangeFailed(providerErr)), nil
	}

	code := query["code"]
	if code == "" {
		return h.callbackFailed("missing_code", ExchangeFailed("Missing authorization code")), nil
	}

	if err := h.state.Verify(ReadCookie(req, StateCookieName), query["state"]); err != nil {
		log.Printf("State verification error: %v", err)
		return h.callbackFailed("invalid_state", ExchangeFailed("Invalid OAuth state")), nil
	}

	token, err := h.authService.ExchangeCode(ctx, code)
	if errors.Is(err, auth.ErrNoRefreshToken) {
		return h.callbackFailed("no_refresh_token", ExchangeFailed(noRefreshTokenDetail)), nil
	}
	if err != nil {
		log.Printf("ExchangeCode error: %v", err)
		return h.callbackFailed("exchange_failed", ExchangeFailed(err.Error())), nil
	}

	h.recordLogin(ctx, token)
	h.metrics.RecordLogin("success")

	resp := JSONResponse(http.StatusOK, h.authService.TokenInfo(token))
	return withCookies(resp,
		h.sessionCookie(token.AccessToken, h.settings.CookieMaxAge()),
		h.stateCookie("", -1),
	), nil
}

func (h *AuthHandler) callbackFailed(outcome string, err *HTTPError) events.APIGatewayProxyResponse {
	h.metrics.RecordLogin(outcome)
	return withCookies(err.Response(), h.stateCookie("", -1))
}

// recordLogin stores the login event. Failures never fail the login.
func (h *AuthHandler) recordLogin(ctx context.Context, token *oauth2.Token) {
	info, err := h.authService.UserInfo(ctx, token)
	if err != nil {
		log.Printf("Userinfo error for token %s: %v", redact(token.AccessToken), err)
		return
	}
	scopes := auth.GrantedScopes(token, h.settings.Scopes)
	if err := h.recorder.RecordLogin(ctx, info.Id, info.Email, scopes); err != nil {
		log.Printf("RecordLogin error: %v", err)
	}
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resp := JSONResponse(http.StatusOK, map[string]string{"message": "Successfully logged out"})
	return withCookies(resp, h.sessionCookie("", -1)), nil
}

// GetUser returns the profile of the credential holder.
func (h *AuthHandler) GetUser(ctx context.Context, req events.APIGatewayProxyRequest, token string) (events.APIGatewayProxyResponse, error) {
	if h.settings.DemoMode && auth.IsDemoToken(token) {
		if err := h.demo.Verify(token); err != nil {
			log.Printf("GetUser demo token rejected: %v", err)
			return ErrorResponse(Unauthenticated()), nil
		}
		profile := model.Profile{
			ID:    token,
			Email: demoEmail,
			Name:  "Demo User",
		}
		h.attachLastLogin(ctx, &profile)
		return JSONResponse(http.StatusOK, profile), nil
	}

	info, err := h.authService.UserInfo(ctx, &oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	if err != nil {
		log.Printf("GetUser error for token %s: %v", redact(token), err)
		return ErrorResponse(UpstreamFailed(err.Error())), nil
	}

	profile := model.Profile{
		ID:      info.Id,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}
	h.attachLastLogin(ctx, &profile)
	return JSONResponse(http.StatusOK, profile), nil
}

func (h *AuthHandler) attachLastLogin(ctx context.Context, profile *model.Profile) {
	login, err := h.recorder.LastLogin(ctx, profile.ID)
	if err != nil {
		if !errors.Is(err, audit.ErrNotFound) {
			log.Printf("LastLogin error: %v", err)
		}
		return
	}
	at := login.LoggedInAt
	profile.LastLoginAt = &at
}

// DemoLogin issues a signed demo credential without Google OAuth.
func (h *AuthHandler) DemoLogin(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if !h.settings.DemoMode {
		return ErrorResponse(NotFound("Not Found")), nil
	}

	token, err := h.demo.Issue()
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	if err := h.recorder.RecordLogin(ctx, token, demoEmail, nil); err != nil {
		log.Printf("DemoLogin RecordLogin error: %v", err)
	}
	h.metrics.RecordLogin("demo")

	resp := JSONResponse(http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "Bearer",
	})
	return withCookies(resp, h.sessionCookie(token, h.settings.CookieMaxAge())), nil
}

// sessionCookie builds the session cookie. A negative maxAge deletes it.
func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	c := h.settings.Cookie
	cookie := &http.Cookie{
		Name:     c.Name,
		Value:    value,
		Path:     c.Path,
		Domain:   c.Domain,
		MaxAge:   maxAge,
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: c.SameSite,
	}
	if maxAge < 0 {
		cookie.Expires = time.Unix(0, 0)
	}
	return cookie
}

func (h *AuthHandler) stateCookie(value string, maxAge int) *http.Cookie {
	cookie := h.sessionCookie(value, maxAge)
	cookie.Name = StateCookieName
	cookie.Path = h.stateCookiePath
	return cookie
}
