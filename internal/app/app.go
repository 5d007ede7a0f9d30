package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"github.com/arjunbector/OmniSearch/internal/adapter"
	"github.com/arjunbector/OmniSearch/internal/adapter/googledrive"
	"github.com/arjunbector/OmniSearch/internal/adapter/memory"
	"github.com/arjunbector/OmniSearch/internal/audit"
	"github.com/arjunbector/OmniSearch/internal/auth"
	"github.com/arjunbector/OmniSearch/internal/config"
	"github.com/arjunbector/OmniSearch/internal/crypto"
	"github.com/arjunbector/OmniSearch/internal/handler"
	"github.com/arjunbector/OmniSearch/internal/metrics"
	"github.com/arjunbector/OmniSearch/internal/secret"
)

const metricsNamespace = "omnisearch"

// HybridProvider delegates demo credentials to the memory provider and
// everything else to Google Drive. Demo credentials must verify against demo.
type HybridProvider struct {
	googleProvider adapter.StorageProvider
	memoryProvider adapter.StorageProvider
	demo           *auth.DemoIssuer
}

// NewHybridProvider creates a HybridProvider.
func NewHybridProvider(google, memory adapter.StorageProvider, demo *auth.DemoIssuer) *HybridProvider {
	return &HybridProvider{googleProvider: google, memoryProvider: memory, demo: demo}
}

func (h *HybridProvider) GetAdapter(ctx context.Context, accessToken string) (adapter.StorageAdapter, error) {
	if !auth.IsDemoToken(accessToken) {
		return h.googleProvider.GetAdapter(ctx, accessToken)
	}
	if err := h.demo.Verify(accessToken); err != nil {
		return nil, fmt.Errorf("%w: %v", adapter.ErrInvalidCredential, err)
	}
	return h.memoryProvider.GetAdapter(ctx, accessToken)
}

// Deps are the external clients the App is built on.
type Deps struct {
	// Dynamo stores login records. Nil keeps them in memory.
	Dynamo    audit.DynamoAPI
	Encryptor crypto.Encryptor
	// Endpoint overrides google.Endpoint when set.
	Endpoint *oauth2.Endpoint
	// APIOptions are applied to every Google API client.
	APIOptions []option.ClientOption
}

// App holds the dependencies for the Lambda function.
type App struct {
	settings     config.Settings
	metrics      *metrics.Metrics
	authHandler  *handler.AuthHandler
	driveHandler *handler.DriveHandler
}

// NewApp initializes the application from the environment. It panics when
// the configuration cannot be loaded.
func NewApp(ctx context.Context) *App {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		panic(fmt.Sprintf("unable to load SDK config, %v", err))
	}

	devMode, _ := strconv.ParseBool(os.Getenv("DEV_MODE"))

	var resolver secret.Resolver
	if devMode {
		resolver = secret.NewEnvResolver()
		log.Println("Using EnvResolver (DEV_MODE=true)")
	} else {
		resolver = secret.NewSSMResolver(ssm.NewFromConfig(awsCfg))
		log.Println("Using SSMResolver (SSM Parameter Store)")
	}

	settings, err := config.Load(ctx, resolver)
	if err != nil {
		panic(fmt.Sprintf("unable to load configuration, %v", err))
	}

	var deps Deps
	if settings.DevMode {
		deps.Encryptor = crypto.NewMockEncryptor()
		log.Println("Using MockEncryptor and in-memory login records (DEV_MODE=true)")
	} else {
		deps.Encryptor = crypto.NewKMSService(kms.NewFromConfig(awsCfg), settings.KMSKeyID)
		deps.Dynamo = dynamodb.NewFromConfig(awsCfg)
	}
	if settings.DemoMode {
		log.Println("Demo login enabled (DEMO_MODE=true)")
	}

	return New(settings, deps)
}

// New builds an App from loaded settings and explicit dependencies.
func New(settings config.Settings, deps Deps) *App {
	endpoint := google.Endpoint
	if deps.Endpoint != nil {
		endpoint = *deps.Endpoint
	}
	oauthConfig := &oauth2.Config{
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		RedirectURL:  settings.RedirectURI,
		Scopes:       settings.Scopes,
		Endpoint:     endpoint,
	}

	encryptor := deps.Encryptor
	if encryptor == nil {
		encryptor = crypto.NewMockEncryptor()
	}

	m := metrics.NewMetrics(metricsNamespace)
	authService := auth.NewAuthService(oauthConfig, deps.APIOptions...)
	recorder := audit.NewRecorder(deps.Dynamo, settings.LoginRecordsTable, encryptor)

	demo := auth.NewDemoIssuer(settings.SecretKey, settings.TokenLifetime())

	var storageProvider adapter.StorageProvider = googledrive.NewProvider(settings.APIKey, deps.APIOptions...)
	if settings.DemoMode {
		storageProvider = NewHybridProvider(storageProvider, memory.NewProvider(settings.TokenLifetime()), demo)
	}

	return &App{
		settings:     settings,
		metrics:      m,
		authHandler:  handler.NewAuthHandler(authService, auth.NewStateIssuer(settings.SecretKey), demo, recorder, settings, m),
		driveHandler: handler.NewDriveHandler(storageProvider, settings, m),
	}
}

// Metrics returns the collectors the App records into.
func (app *App) Metrics() *metrics.Metrics {
	return app.metrics
}

// HandleRequest routes API Gateway requests to the appropriate handler.
func (app *App) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	start := time.Now()
	method := req.HTTPMethod

	// Strip /api prefix if present (for CloudFront proxying)
	path := req.Path
	if path == "/api" || strings.HasPrefix(path, "/api/") {
		path = strings.TrimPrefix(path, "/api")
	}
	if path == "" {
		path = "/"
	}

	log.Printf("Request: %s %s", method, path)

	route := "unmatched"
	var resp events.APIGatewayProxyResponse
	if method == http.MethodOptions {
		route = "preflight"
		resp = events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent}
	} else if h, ok := app.route(method, path); ok {
		route = path
		resp = must(h(ctx, req))
	} else {
		resp = handler.ErrorResponse(handler.NotFound(fmt.Sprintf("Not Found: %s %s", method, path)))
	}

	resp = app.corsResponse(req, resp)
	app.metrics.RecordRequest(route, method, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	return resp, nil
}

func (app *App) route(method, path string) (handler.HandlerFunc, bool) {
	if method != http.MethodGet {
		return nil, false
	}
	cookieName := app.settings.Cookie.Name

	switch path {
	case "/health":
		return health, true
	case "/auth/login":
		return app.authHandler.Login, true
	case "/auth/callback":
		return app.authHandler.Callback, true
	case "/auth/logout":
		return app.authHandler.Logout, true
	case "/auth/demo-login":
		return app.authHandler.DemoLogin, true
	case "/auth/user":
		return handler.RequireBearer(cookieName, app.authHandler.GetUser), true
	case "/auth/drive/files":
		return handler.RequireBearer(cookieName, app.driveHandler.ListFiles), true
	}
	return nil, false
}

func health(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return handler.JSONResponse(http.StatusOK, map[string]string{"status": "ok"}), nil
}

// corsResponse adds CORS headers when the request origin is allowed.
func (app *App) corsResponse(req events.APIGatewayProxyRequest, resp events.APIGatewayProxyResponse) events.APIGatewayProxyResponse {
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	resp.Headers["Vary"] = "Origin"

	origin := handler.GetHeader(req, "Origin")
	if !app.settings.OriginAllowed(origin) {
		return resp
	}
	resp.Headers["Access-Control-Allow-Origin"] = origin
	resp.Headers["Access-Control-Allow-Credentials"] = "true"
	resp.Headers["Access-Control-Allow-Methods"] = "GET,OPTIONS"
	resp.Headers["Access-Control-Allow-Headers"] = "Content-Type,Authorization"
	return resp
}

// must unwraps a handler response, replacing errors with a 500.
func must(resp events.APIGatewayProxyResponse, err error) events.APIGatewayProxyResponse {
	if err != nil {
		return handler.ErrorResponse(err)
	}
	return resp
}
