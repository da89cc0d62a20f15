// Package caption клиент hosted-модели подписи изображений (BLIP).
package caption

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"tush00nka/captionchat/internal/pkg/metrics"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Fallback возвращается при любой ошибке.
const Fallback = "No caption generated"

const DefaultEndpoint = "https://api-inference.huggingface.co/models/Salesforce/blip-image-captioning-base"

const (
	outcomeOK        = "ok"
	outcomeNoKey     = "no_key"
	outcomeRequest   = "request_error"
	outcomeNetwork   = "network_error"
	outcomeStatus    = "bad_status"
	outcomeMalformed = "malformed"
	outcomeEmpty     = "empty"
)

type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	// imageClient скачивает изображения по ссылкам пользователей.
	imageClient *http.Client
}

func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		imageClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(publicTransport()),
		},
	}
}

type result struct {
	GeneratedText string `json:"generated_text"`
}

// Caption отправляет байты изображения и возвращает generated_text первого результата.
func (c *Client) Caption(ctx context.Context, image io.Reader) string {
	if c.apiKey == "" {
		return c.fail(outcomeNoKey, fmt.Errorf("api key is not configured"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, image)
	if err != nil {
		return c.fail(outcomeRequest, err)
	}
	req.Header.Set("Authorization", c.authorization())
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(outcomeNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return c.fail(outcomeStatus, fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var results []result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return c.fail(outcomeMalformed, err)
	}
	if len(results) == 0 || strings.TrimSpace(results[0].GeneratedText) == "" {
		return c.fail(outcomeEmpty, fmt.Errorf("no generated_text in response"))
	}

	metrics.CaptionRequests.WithLabelValues(outcomeOK).Inc()
	return results[0].GeneratedText
}

// CaptionURL скачивает изображение по ссылке и подписывает его.
func (c *Client) CaptionURL(ctx context.Context, imageURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return c.fail(outcomeRequest, err)
	}

	resp, err := c.imageClient.Do(req)
	if err != nil {
		return c.fail(outcomeNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.fail(outcomeStatus, fmt.Errorf("image fetch status %d", resp.StatusCode))
	}

	return c.Caption(ctx, resp.Body)
}

func (c *Client) authorization() string {
	if strings.HasPrefix(c.apiKey, "Bearer ") {
		return c.apiKey
	}
	return "Bearer " + c.apiKey
}

func (c *Client) fail(outcome string, err error) string {
	metrics.CaptionRequests.WithLabelValues(outcome).Inc()
	log.Printf("caption: %s: %v", outcome, err)
	return Fallback
}
