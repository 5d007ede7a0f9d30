package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/arjunbector/OmniSearch/internal/adapter"
	"github.com/arjunbector/OmniSearch/internal/adapter/googledrive"
	"github.com/arjunbector/OmniSearch/internal/adapter/memory"
	"github.com/arjunbector/OmniSearch/internal/app"
	"github.com/arjunbector/OmniSearch/internal/audit"
	"github.com/arjunbector/OmniSearch/internal/auth"
	"github.com/arjunbector/OmniSearch/internal/config"
	"github.com/arjunbector/OmniSearch/internal/crypto"
	"github.com/arjunbector/OmniSearch/internal/handler"
)

const testSecretKey = "test-secret"

// fakeGoogle stands in for the token, userinfo and Drive endpoints.
type fakeGoogle struct {
	srv          *httptest.Server
	exchanges    int
	driveAuth    string
	driveFailure bool
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	g := &fakeGoogle{}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", g.token)
	mux.HandleFunc("/oauth2/v2/userinfo", g.userinfo)
	mux.HandleFunc("/files", g.files)
	g.srv = httptest.NewServer(mux)
	t.Cleanup(g.srv.Close)
	return g
}

func (g *fakeGoogle) token(w http.ResponseWriter, r *http.Request) {
	g.exchanges++
	r.ParseForm()
	w.Header().Set("Content-Type", "application/json")
	switch r.Form.Get("code") {
	case "abc123":
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "t1",
			"refresh_token": "r1",
			"token_type":    "Bearer",
			"expires_in":    3599,
			"scope":         "openid https://www.googleapis.com/auth/drive.readonly",
		})
	case "no-refresh":
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "t1",
			"token_type":   "Bearer",
			"expires_in":   3599,
		})
	default:
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Bad Request"}`))
	}
}

func (g *fakeGoogle) userinfo(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer t1" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"id":"sub-1","email":"user@example.com","name":"Test User","picture":"https://example.com/p.png"}`))
}

func (g *fakeGoogle) files(w http.ResponseWriter, r *http.Request) {
	g.driveAuth = r.Header.Get("Authorization")
	w.Header().Set("Content-Type", "application/json")
	if g.driveFailure || g.driveAuth != "Bearer t1" {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":401,"message":"Request had invalid authentication credentials."}}`))
		return
	}
	w.Write([]byte(`{"files":[
		{"id":"f1","name":"Report.pdf","mimeType":"application/pdf","modifiedTime":"2024-05-01T10:00:00.000Z","webViewLink":"https://drive.google.com/file/d/f1/view"},
		{"id":"f2","name":"Notes","mimeType":"application/vnd.google-apps.document","modifiedTime":"2024-04-20T09:00:00.000Z","webViewLink":"https://docs.google.com/document/d/f2"},
		{"id":"f3","name":"Budget","mimeType":"application/vnd.google-apps.spreadsheet","modifiedTime":"2024-04-01T08:30:00.000Z","webViewLink":"https://docs.google.com/spreadsheets/d/f3"}
	]}`))
}

func (g *fakeGoogle) endpoint() option.ClientOption {
	return option.WithEndpoint(g.srv.URL + "/")
}

func testSettings() config.Settings {
	return config.Settings{
		ClientID:           "test-client-id",
		ClientSecret:       "test-client-secret",
		RedirectURI:        "http://localhost:8000/auth/callback",
		SecretKey:          testSecretKey,
		Scopes:             config.DefaultScopes,
		TokenExpireMinutes: 30,
		Cookie: config.Cookie{
			Name:     "auth_token",
			Path:     "/",
			SameSite: http.SameSiteLaxMode,
		},
		AllowedOrigins: []string{"http://localhost:3000"},
		DrivePageSize:  50,
	}
}

type fixture struct {
	google   *fakeGoogle
	settings config.Settings
	recorder *audit.Recorder
	demo     *auth.DemoIssuer
	auth     *handler.AuthHandler
	drive    *handler.DriveHandler
}

func newFixture(t *testing.T, mutate func(*config.Settings)) *fixture {
	t.Helper()
	g := newFakeGoogle(t)
	settings := testSettings()
	if mutate != nil {
		mutate(&settings)
	}

	oauthConfig := &oauth2.Config{
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		RedirectURL:  settings.RedirectURI,
		Scopes:       settings.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://accounts.example.com/o/oauth2/auth",
			TokenURL:  g.srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	authService := auth.NewAuthService(oauthConfig, g.endpoint())
	recorder := audit.NewRecorder(nil, "LoginRecords", crypto.NewMockEncryptor())

	demo := auth.NewDemoIssuer(settings.SecretKey, settings.TokenLifetime())

	var provider adapter.StorageProvider = googledrive.NewProvider("", g.endpoint())
	if settings.DemoMode {
		provider = app.NewHybridProvider(provider, memory.NewProvider(settings.TokenLifetime()), demo)
	}

	return &fixture{
		google:   g,
		settings: settings,
		recorder: recorder,
		demo:     demo,
		auth:     handler.NewAuthHandler(authService, auth.NewStateIssuer(settings.SecretKey), demo, recorder, settings, nil),
		drive:    handler.NewDriveHandler(provider, settings, nil),
	}
}

// responseCookies parses the Set-Cookie headers of resp by name.
func responseCookies(resp events.APIGatewayProxyResponse) map[string]*http.Cookie {
	header := http.Header{}
	for _, v := range resp.MultiValueHeaders["Set-Cookie"] {
		header.Add("Set-Cookie", v)
	}
	cookies := map[string]*http.Cookie{}
	for _, c := range (&http.Response{Header: header}).Cookies() {
		cookies[c.Name] = c
	}
	return cookies
}

func decodeBody(t *testing.T, resp events.APIGatewayProxyResponse, v interface{}) {
	t.Helper()
	if err := json.Unmarshal([]byte(resp.Body), v); err != nil {
		t.Fatalf("invalid JSON body %q: %v", resp.Body, err)
	}
}

func detailOf(t *testing.T, resp events.APIGatewayProxyResponse) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, resp, &body)
	return body["detail"]
}
