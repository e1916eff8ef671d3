package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dooshek/cablespeak/internal/logger"
)

const speakPath = "/v1/speak"

// DeepgramClient calls the Deepgram speak REST endpoint
type DeepgramClient struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// DeepgramOption customizes a DeepgramClient
type DeepgramOption func(*DeepgramClient)

// WithBaseURL points the client at another API root (tests, proxies)
func WithBaseURL(baseURL string) DeepgramOption {
	return func(c *DeepgramClient) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithTimeout bounds the whole HTTP round trip
func WithTimeout(d time.Duration) DeepgramOption {
	return func(c *DeepgramClient) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) DeepgramOption {
	return func(c *DeepgramClient) {
		c.httpClient = hc
	}
}

// NewDeepgramClient creates a client authenticated with token
func NewDeepgramClient(token string, opts ...DeepgramOption) *DeepgramClient {
	c := &DeepgramClient{
		token:      token,
		baseURL:    "https://api.deepgram.com",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns provider name
func (c *DeepgramClient) Name() string {
	return "Deepgram"
}

// Synthesize posts the raw text and returns the encoded audio body
func (c *DeepgramClient) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	params := url.Values{}
	params.Set("model", req.Voice)
	endpoint := c.baseURL + speakPath + "?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(req.Text))
	if err != nil {
		return nil, &TransportError{Message: fmt.Sprintf("create request: %v", err), Err: err}
	}
	httpReq.Header.Set("Authorization", "Token "+c.token)
	httpReq.Header.Set("Content-Type", "text/plain")

	logger.Debugf("Requesting Deepgram speech (model: %s, %d chars)", req.Voice, len(req.Text))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransportError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Message: fmt.Sprintf("read response: %v", err), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	logger.Debugf("Deepgram returned %d bytes of %s", len(body), resp.Header.Get("Content-Type"))
	return body, nil
}
