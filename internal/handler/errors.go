package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// ErrorKind classifies failures surfaced to the client.
type ErrorKind string

const (
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindExchangeFailed  ErrorKind = "exchange_failed"
	KindUpstreamFailed  ErrorKind = "upstream_failed"
	KindNotFound        ErrorKind = "not_found"
	KindInternal        ErrorKind = "internal"
)

// HTTPError is an error with the status, detail message and extra headers of
// the response it becomes.
type HTTPError struct {
	Kind       ErrorKind
	StatusCode int
	Detail     string
	Headers    map[string]string
}

func (e *HTTPError) Error() string {
	return string(e.Kind) + ": " + e.Detail
}

// Unauthenticated is returned when no bearer credential could be found.
func Unauthenticated() *HTTPError {
	return &HTTPError{
		Kind:       KindUnauthenticated,
		StatusCode: http.StatusUnauthorized,
		Detail:     "Not authenticated",
		Headers:    map[string]string{"WWW-Authenticate": "Bearer"},
	}
}

// ExchangeFailed covers every failure of the authorization callback.
func ExchangeFailed(detail string) *HTTPError {
	return &HTTPError{Kind: KindExchangeFailed, StatusCode: http.StatusBadRequest, Detail: detail}
}

// UpstreamFailed covers failures of Google API calls made with the caller's token.
func UpstreamFailed(detail string) *HTTPError {
	return &HTTPError{Kind: KindUpstreamFailed, StatusCode: http.StatusBadRequest, Detail: detail}
}

func NotFound(detail string) *HTTPError {
	return &HTTPError{Kind: KindNotFound, StatusCode: http.StatusNotFound, Detail: detail}
}

func Internal() *HTTPError {
	return &HTTPError{Kind: KindInternal, StatusCode: http.StatusInternalServerError, Detail: "Internal Server Error"}
}

// Response renders e as a {"detail": ...} JSON response.
func (e *HTTPError) Response() events.APIGatewayProxyResponse {
	resp := JSONResponse(e.StatusCode, map[string]string{"detail": e.Detail})
	for k, v := range e.Headers {
		resp.Headers[k] = v
	}
	return resp
}

// ErrorResponse renders err. Errors that are not an *HTTPError become a 500.
func ErrorResponse(err error) events.APIGatewayProxyResponse {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Response()
	}
	log.Printf("Handler error: %v", err)
	return Internal().Response()
}
