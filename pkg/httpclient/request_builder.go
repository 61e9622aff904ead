package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// RequestBuilder assembles a JSON request against an HTTPClient endpoint.
type RequestBuilder struct {
	endpoint string
	path     string
	method   string
	headers  map[string]string
	body     any
	ctx      context.Context
}

func NewHttpRequestBuilder() *RequestBuilder {
	return &RequestBuilder{
		headers: make(map[string]string),
	}
}

// WithEndpoint sets the scheme://host:port base for the request, typically
// HTTPClient.Endpoint.
func (h *RequestBuilder) WithEndpoint(endpoint string) *RequestBuilder {
	h.endpoint = endpoint
	return h
}

func (h *RequestBuilder) WithPath(path string) *RequestBuilder {
	h.path = path
	return h
}

func (h *RequestBuilder) WithMethod(method string) *RequestBuilder {
	h.method = method
	return h
}

func (h *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	h.headers[key] = value
	return h
}

func (h *RequestBuilder) WithHeaders(headers map[string]string) *RequestBuilder {
	for key, value := range headers {
		h.headers[key] = value
	}
	return h
}

func (h *RequestBuilder) WithBody(body any) *RequestBuilder {
	h.body = body
	return h
}

func (h *RequestBuilder) WithContext(ctx context.Context) *RequestBuilder {
	h.ctx = ctx
	return h
}

// BuildContentTypeJson validates the builder state and returns the request
// with the body marshalled as application/json.
func (h *RequestBuilder) BuildContentTypeJson() (*http.Request, error) {
	if len(h.endpoint) == 0 {
		return nil, errors.New("endpoint is required")
	}
	if len(h.path) == 0 {
		return nil, errors.New("path is required")
	}
	if len(h.method) == 0 {
		return nil, errors.New("method is required")
	}
	if h.ctx == nil {
		return nil, errors.New("context is required, pass context.Background() if not required")
	}
	requestBody, err := json.Marshal(h.body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(h.ctx, h.method, h.endpoint+h.path, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, err
	}
	for key, value := range h.headers {
		req.Header.Set(key, value)
	}
	req.Header.Set(HeaderContentType, HeaderValueApplicationJson)
	return req, nil
}
