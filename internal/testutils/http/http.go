package http

import (
	"context"
	"net/http"
	"net/http/httptest"
)

type RequestOption func(req *http.Request) *http.Request

func WithContext(ctx context.Context) RequestOption {
	return func(req *http.Request) *http.Request {
		return req.WithContext(ctx)
	}
}

func WithHeader(key string, value string, values ...string) RequestOption {
	return func(req *http.Request) *http.Request {
		req.Header.Add(key, value)
		for _, v := range values {
			req.Header.Add(key, v)
		}
		return req
	}
}

// Serve passes a request through h, including its routing and middlewares.
func Serve(h http.Handler, method string, target string, reqopts ...RequestOption) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for _, opt := range reqopts {
		req = opt(req)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

// = Serve(h, "GET", target, reqopts...)
func Get(h http.Handler, target string, reqopts ...RequestOption) *httptest.ResponseRecorder {
	return Serve(h, http.MethodGet, target, reqopts...)
}

// = Serve(h, "OPTIONS", target, reqopts...)
func Options(h http.Handler, target string, reqopts ...RequestOption) *httptest.ResponseRecorder {
	return Serve(h, http.MethodOptions, target, reqopts...)
}
