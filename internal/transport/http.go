// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/statful/statful-client-go/internal/aggregation"
	"github.com/statful/statful-client-go/internal/version"

	"github.com/klauspost/compress/gzip"
)

const (
	// TokenHeader carries the collector API token.
	TokenHeader = "M-Api-Token"

	defaultHTTPTimeout = 2 * time.Second
)

// StatusError is returned when the collector answers with a non-2xx status.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("collector %s responded with status %d", e.URL, e.Status)
}

// HTTPConfig holds the collector endpoint settings.
type HTTPConfig struct {
	Protocol    string
	Host        string
	Port        int
	BasePath    string
	Token       string
	Timeout     time.Duration
	Compression bool
	// Client, if set, is used instead of a client built from Timeout.
	Client *http.Client
}

// HTTPSender PUTs payloads to the collector API.
type HTTPSender struct {
	baseURL     string
	client      *http.Client
	headers     map[string]string
	compression bool
}

// NewHTTPSender returns a sender for the endpoint described by cfg.
func NewHTTPSender(cfg HTTPConfig) *HTTPSender {
	if cfg.Protocol == "" {
		cfg.Protocol = "https"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
			Timeout: cfg.Timeout,
		}
	}
	headers := map[string]string{
		"Content-Type": "application/json",
		"User-Agent":   version.UserAgent,
		TokenHeader:    cfg.Token,
	}
	if cfg.Compression {
		headers["Content-Encoding"] = "gzip"
	}
	return &HTTPSender{
		baseURL:     cfg.Protocol + "://" + net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)) + strings.TrimRight(cfg.BasePath, "/"),
		client:      client,
		headers:     headers,
		compression: cfg.Compression,
	}
}

// BaseURL returns the URL non-aggregated payloads are sent to.
func (s *HTTPSender) BaseURL() string { return s.baseURL }

// AggregationPath returns the path, relative to the base URL, of the
// endpoint receiving lines pre-aggregated with k over f.
func AggregationPath(k aggregation.Kind, f aggregation.Frequency) string {
	return "/aggregation/" + k.String() + "/frequency/" + f.String()
}

// Send PUTs payload to the base URL joined with path.
func (s *HTTPSender) Send(ctx context.Context, path string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	body := payload
	if s.compression {
		var err error
		if body, err = compress(payload); err != nil {
			return fmt.Errorf("cannot compress payload: %w", err)
		}
	}
	url := s.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("cannot create http request: %w", err)
	}
	for header, value := range s.headers {
		req.Header.Set(header, value)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	// drain so the connection can be reused
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if code := resp.StatusCode; code < 200 || code > 299 {
		return &StatusError{URL: url, Status: code}
	}
	return nil
}

// Close releases idle connections.
func (s *HTTPSender) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func compress(p []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(p); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
