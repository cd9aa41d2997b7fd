// Package upstream wraps the outbound call to the OpenAI-compatible
// backend: a retried, timeout-bounded request for the non-streaming path
// (4.F) and a raw HTTP POST for the streaming path, whose response body is
// handed to translate.Stream for re-framing.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"claude-adapter-go/internal/gatewayerr"
)

const (
	maxRetries    = 3
	retryBaseWait = time.Second
	retryMaxWait  = 10 * time.Second
)

// Client calls a single configured OpenAI-compatible backend.
type Client struct {
	sdk        *openai.Client
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// New builds a Client against baseURL (no trailing slash required) with
// apiKey sent as a bearer token and timeout applied to every call.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	httpClient := &http.Client{Timeout: timeout}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = httpClient

	return &Client{
		sdk:        openai.NewClientWithConfig(cfg),
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// CreateChatCompletion performs the non-streaming call with up to 3
// attempts and exponential backoff (1s, then 2s; each wait capped at 10s)
// on retryable failures, adapted from the teacher's callWithRetry.
func (c *Client) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	var (
		resp openai.ChatCompletionResponse
		err  error
	)

	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err = c.sdk.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		if attempt == maxRetries-1 || !isRetryableError(err) {
			break
		}
		select {
		case <-time.After(backoffDelay(attempt)):
		case <-ctx.Done():
			return openai.ChatCompletionResponse{}, ctx.Err()
		}
	}
	return openai.ChatCompletionResponse{}, err
}

// StreamChatCompletion issues the streaming call directly over net/http —
// the go-openai stream decoder is deliberately not used here (see
// SPEC_FULL.md 4.D); the caller needs the raw response body so
// translate.Stream can scan it line by line and catch a heterogeneous
// mid-stream error payload. Streaming calls are not retried: a partially
// delivered stream cannot be safely replayed into the same SSE connection.
func (c *Client) StreamChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (io.ReadCloser, error) {
	req.Stream = true

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding upstream request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		return nil, gatewayerr.FromHTTPStatus(resp.StatusCode, extractErrorMessage(raw))
	}
	return resp.Body, nil
}

// MapError classifies an error returned by CreateChatCompletion into the
// Anthropic taxonomy (4.F/4.G). A nil input returns nil.
func MapError(err error) *gatewayerr.Error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return gatewayerr.FromHTTPStatus(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var gwErr *gatewayerr.Error
	if errors.As(err, &gwErr) {
		return gwErr
	}
	return gatewayerr.FromHTTPStatus(502, err.Error())
}

func extractErrorMessage(raw []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	if len(raw) == 0 {
		return "upstream request failed"
	}
	return string(raw)
}

// isRetryableError mirrors the teacher's isRetryableError, preferring a
// structured *openai.APIError status check and falling back to substring
// matching for transport-level failures the SDK doesn't wrap.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= 500 || apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := err.Error()
	for _, s := range []string{"connection refused", "connection reset", "timeout", "temporary failure", "503", "502", "500", "429"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func backoffDelay(attempt int) time.Duration {
	d := time.Duration(float64(retryBaseWait) * math.Pow(2, float64(attempt)))
	if d > retryMaxWait {
		return retryMaxWait
	}
	return d
}
