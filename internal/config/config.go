// Package config loads the immutable service settings from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arjunbector/OmniSearch/internal/secret"
)

// Default OAuth scopes requested at login.
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/drive.readonly",
	"openid",
}

// ErrInvalid is wrapped by every validation failure returned from Load.
var ErrInvalid = errors.New("invalid configuration")

// Cookie describes the session cookie policy.
type Cookie struct {
	Name     string
	Secure   bool
	Domain   string
	Path     string
	SameSite http.SameSite
}

// Settings is a snapshot of the service configuration. It is loaded once at
// startup and passed by value, so components never observe a change.
type Settings struct {
	ClientID     string
	ClientSecret string
	APIKey       string
	RedirectURI  string
	SecretKey    string
	Scopes       []string

	TokenExpireMinutes int
	Cookie             Cookie
	AllowedOrigins     []string
	DrivePageSize      int64

	DevMode           bool
	DemoMode          bool
	LoginRecordsTable string
	KMSKeyID          string
}

// TokenLifetime is the session cookie lifetime.
func (s Settings) TokenLifetime() time.Duration {
	return time.Duration(s.TokenExpireMinutes) * time.Minute
}

// CookieMaxAge is the Max-Age attribute of the session cookie in seconds.
func (s Settings) CookieMaxAge() int {
	return s.TokenExpireMinutes * 60
}

// OriginAllowed reports whether a CORS origin is in the allow-list.
func (s Settings) OriginAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, o := range s.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// Validate checks the settings for values the service cannot run with.
func (s Settings) Validate() error {
	var errs []error
	if s.ClientID == "" {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID is required"))
	}
	if s.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	}
	if s.RedirectURI == "" {
		errs = append(errs, errors.New("GOOGLE_REDIRECT_URI must not be empty"))
	}
	if s.TokenExpireMinutes <= 0 {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", s.TokenExpireMinutes))
	}
	if s.DrivePageSize < 1 || s.DrivePageSize > 1000 {
		errs = append(errs, fmt.Errorf("DRIVE_PAGE_SIZE must be between 1 and 1000, got %d", s.DrivePageSize))
	}
	if s.Cookie.Name == "" {
		errs = append(errs, errors.New("COOKIE_NAME must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Load reads settings from the environment and resolves secrets through r.
func Load(ctx context.Context, r secret.Resolver) (Settings, error) {
	var p parser
	s := Settings{
		ClientID:           getenv("GOOGLE_CLIENT_ID", ""),
		RedirectURI:        getenv("GOOGLE_REDIRECT_URI", "http://localhost:8000/auth/callback"),
		Scopes:             getList("GOOGLE_AUTH_SCOPES", DefaultScopes),
		TokenExpireMinutes: p.getInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
		Cookie: Cookie{
			Name:     getenv("COOKIE_NAME", "auth_token"),
			Secure:   p.getBool("COOKIE_SECURE", false),
			Domain:   getenv("COOKIE_DOMAIN", ""),
			Path:     "/",
			SameSite: http.SameSiteLaxMode,
		},
		AllowedOrigins:    getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		DrivePageSize:     int64(p.getInt("DRIVE_PAGE_SIZE", 50)),
		DevMode:           p.getBool("DEV_MODE", false),
		DemoMode:          p.getBool("DEMO_MODE", false),
		LoginRecordsTable: getenv("LOGIN_RECORDS_TABLE", "LoginRecords"),
		KMSKeyID:          getenv("KMS_KEY_ID", "alias/omnisearch-pii-key"),
	}
	if len(p.errs) > 0 {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalid, errors.Join(p.errs...))
	}

	var err error
	s.ClientSecret, err = r.GetSecret(ctx, getenv("GOOGLE_CLIENT_SECRET_PARAM", "/omnisearch/google-client-secret"))
	if err != nil {
		return Settings{}, fmt.Errorf("resolve google client secret: %w", err)
	}
	s.SecretKey, err = r.GetSecret(ctx, getenv("SECRET_KEY_PARAM", "/omnisearch/secret-key"))
	if err != nil {
		return Settings{}, fmt.Errorf("resolve secret key: %w", err)
	}
	s.APIKey, err = secret.Optional(ctx, r, getenv("GOOGLE_API_KEY_PARAM", "/omnisearch/google-api-key"))
	if err != nil {
		return Settings{}, fmt.Errorf("resolve google api key: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// parser collects malformed values so every one of them is reported.
type parser struct {
	errs []error
}

func (p *parser) getInt(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s must be an integer, got %q", key, v))
		return def
	}
	return i
}

func (p *parser) getBool(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s must be a boolean, got %q", key, v))
		return def
	}
	return b
}

func getList(key string, def []string) []string {
	v := getenv(key, "")
	if v == "" {
		return append([]string(nil), def...)
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
