package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/arjunbector/OmniSearch/internal/app"
	"github.com/arjunbector/OmniSearch/internal/metrics"
)

// lambdaHandler is the signature of app.App.HandleRequest.
type lambdaHandler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

func newMux(application *app.App) *http.ServeMux {
	return buildMux(application.HandleRequest, application.Metrics())
}

func buildMux(handle lambdaHandler, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/", proxyHandler(handle))
	return mux
}

// proxyHandler converts HTTP requests into API Gateway proxy events.
func proxyHandler(handle lambdaHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		resp, err := handle(r.Context(), toProxyRequest(r, body))
		if err != nil {
			log.Printf("HandleRequest error: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeProxyResponse(w, resp)
	}
}

func toProxyRequest(r *http.Request, body []byte) events.APIGatewayProxyRequest {
	headers := make(map[string]string, len(r.Header))
	multiHeaders := make(map[string][]string, len(r.Header))
	for k, v := range r.Header {
		multiHeaders[k] = v
		if k == "Cookie" {
			headers[k] = strings.Join(v, "; ")
			continue
		}
		headers[k] = v[0]
	}

	query := make(map[string]string)
	multiQuery := make(map[string][]string)
	for k, v := range r.URL.Query() {
		query[k] = v[0]
		multiQuery[k] = v
	}

	return events.APIGatewayProxyRequest{
		Path:                            r.URL.Path,
		HTTPMethod:                      r.Method,
		Headers:                         headers,
		MultiValueHeaders:               multiHeaders,
		QueryStringParameters:           query,
		MultiValueQueryStringParameters: multiQuery,
		Body:                            string(body),
		IsBase64Encoded:                 false,
	}
}

func writeProxyResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	for k, vs := range resp.MultiValueHeaders {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	w.Write([]byte(resp.Body))
}
