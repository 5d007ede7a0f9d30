package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

const bearerPrefix = "Bearer "

// HandlerFunc handles one API Gateway proxy request.
type HandlerFunc func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// BearerHandlerFunc is a HandlerFunc that receives the caller's credential.
type BearerHandlerFunc func(ctx context.Context, req events.APIGatewayProxyRequest, token string) (events.APIGatewayProxyResponse, error)

// RequireBearer resolves the bearer credential before calling next, and
// answers 401 when there is none.
func RequireBearer(cookieName string, next BearerHandlerFunc) HandlerFunc {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		token, err := ExtractBearer(req, cookieName)
		if err != nil {
			return ErrorResponse(err), nil
		}
		return next(ctx, req, token)
	}
}

// ExtractBearer returns the credential from the Authorization header, falling
// back to the named cookie. The value is not validated.
func ExtractBearer(req events.APIGatewayProxyRequest, cookieName string) (string, error) {
	authHeader := GetHeader(req, "Authorization")
	if strings.HasPrefix(authHeader, bearerPrefix) {
		if token := strings.TrimPrefix(authHeader, bearerPrefix); token != "" {
			return token, nil
		}
	}

	if token := ReadCookie(req, cookieName); token != "" {
		return token, nil
	}
	return "", Unauthenticated()
}

// GetHeader looks up a header case-insensitively, including multi-value headers.
func GetHeader(req events.APIGatewayProxyRequest, name string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	for k, v := range req.MultiValueHeaders {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// ReadCookie returns the value of the named cookie, or "" when absent.
func ReadCookie(req events.APIGatewayProxyRequest, name string) string {
	header := http.Header{}
	for k, v := range req.Headers {
		if strings.EqualFold(k, "Cookie") {
			header.Add("Cookie", v)
		}
	}
	for k, vs := range req.MultiValueHeaders {
		if strings.EqualFold(k, "Cookie") {
			for _, v := range vs {
				header.Add("Cookie", v)
			}
		}
	}

	cookie, err := (&http.Request{Header: header}).Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// JSONResponse marshals v into a response with the given status.
func JSONResponse(status int, v interface{}) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		log.Printf("JSON marshal error: %v", err)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"detail":"Internal Server Error"}`,
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

// withCookies attaches Set-Cookie headers to resp.
func withCookies(resp events.APIGatewayProxyResponse, cookies ...*http.Cookie) events.APIGatewayProxyResponse {
	if resp.MultiValueHeaders == nil {
		resp.MultiValueHeaders = make(map[string][]string)
	}
	for _, c := range cookies {
		resp.MultiValueHeaders["Set-Cookie"] = append(resp.MultiValueHeaders["Set-Cookie"], c.String())
	}
	return resp
}

// redact shortens a credential for log output.
func redact(token string) string {
	if len(token) <= 10 {
		return token
	}
	return token[:10] + "..."
}
