package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/arjunbector/OmniSearch/internal/handler"
)

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		name    string
		req     events.APIGatewayProxyRequest
		want    string
		wantErr bool
	}{
		{
			name: "authorization header",
			req:  events.APIGatewayProxyRequest{Headers: map[string]string{"Authorization": "Bearer abc"}},
			want: "abc",
		},
		{
			name: "header name is case-insensitive",
			req:  events.APIGatewayProxyRequest{Headers: map[string]string{"authorization": "Bearer abc"}},
			want: "abc",
		},
		{
			name: "cookie",
			req:  events.APIGatewayProxyRequest{Headers: map[string]string{"Cookie": "other=1; auth_token=xyz"}},
			want: "xyz",
		},
		{
			name: "multi-value cookie header",
			req:  events.APIGatewayProxyRequest{MultiValueHeaders: map[string][]string{"cookie": {"auth_token=mv"}}},
			want: "mv",
		},
		{
			name: "header wins over cookie",
			req: events.APIGatewayProxyRequest{Headers: map[string]string{
				"Authorization": "Bearer abc",
				"Cookie":        "auth_token=xyz",
			}},
			want: "abc",
		},
		{
			name: "empty bearer falls back to cookie",
			req: events.APIGatewayProxyRequest{Headers: map[string]string{
				"Authorization": "Bearer ",
				"Cookie":        "auth_token=xyz",
			}},
			want: "xyz",
		},
		{
			name: "non-bearer scheme falls back to cookie",
			req: events.APIGatewayProxyRequest{Headers: map[string]string{
				"Authorization": "Basic dXNlcjpwYXNz",
				"Cookie":        "auth_token=xyz",
			}},
			want: "xyz",
		},
		{
			name:    "nothing",
			req:     events.APIGatewayProxyRequest{},
			wantErr: true,
		},
		{
			name:    "empty cookie",
			req:     events.APIGatewayProxyRequest{Headers: map[string]string{"Cookie": "auth_token="}},
			wantErr: true,
		},
		{
			name:    "other cookie only",
			req:     events.APIGatewayProxyRequest{Headers: map[string]string{"Cookie": "session=1"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := handler.ExtractBearer(tt.req, "auth_token")
			if tt.wantErr {
				var httpErr *handler.HTTPError
				if !errors.As(err, &httpErr) || httpErr.Kind != handler.KindUnauthenticated {
					t.Fatalf("expected Unauthenticated, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequireBearer_PassesToken(t *testing.T) {
	var seen string
	h := handler.RequireBearer("auth_token", func(ctx context.Context, req events.APIGatewayProxyRequest, token string) (events.APIGatewayProxyResponse, error) {
		seen = token
		return events.APIGatewayProxyResponse{StatusCode: http.StatusOK}, nil
	})

	resp, err := h(context.Background(), events.APIGatewayProxyRequest{Headers: map[string]string{"Cookie": "auth_token=tok"}})
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected response %d, %v", resp.StatusCode, err)
	}
	if seen != "tok" {
		t.Errorf("expected token to be passed through, got %q", seen)
	}
}

func TestErrorResponse(t *testing.T) {
	resp := handler.ErrorResponse(handler.UpstreamFailed("quota exceeded"))
	if resp.StatusCode != http.StatusBadRequest || resp.Body != `{"detail":"quota exceeded"}` {
		t.Errorf("unexpected response %d %s", resp.StatusCode, resp.Body)
	}

	resp = handler.ErrorResponse(errors.New("boom"))
	if resp.StatusCode != http.StatusInternalServerError || resp.Body != `{"detail":"Internal Server Error"}` {
		t.Errorf("unexpected response %d %s", resp.StatusCode, resp.Body)
	}
	if resp.Headers["Content-Type"] != "application/json" {
		t.Errorf("expected JSON content type, got %q", resp.Headers["Content-Type"])
	}
}
