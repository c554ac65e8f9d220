package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultBaseURL    = "https://graph.facebook.com"
	DefaultAPIVersion = "v18.0"
)

var ErrNotConfigured = errors.New("whatsapp client not configured")

type Config struct {
	BaseURL       string
	APIVersion    string
	PhoneNumberID string
	AccessToken   string
	Timeout       time.Duration
	// Transport is wrapped with otelhttp; nil means http.DefaultTransport.
	Transport http.RoundTripper
}

// Client sends messages through the WhatsApp Cloud API.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

func NewClient(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	version := strings.Trim(strings.TrimSpace(cfg.APIVersion), "/")
	if version == "" {
		version = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	c := &Client{
		token: strings.TrimSpace(cfg.AccessToken),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
	}
	if id := strings.TrimSpace(cfg.PhoneNumberID); id != "" {
		c.endpoint = fmt.Sprintf("%s/%s/%s/messages", base, version, id)
	}
	return c
}

func (c *Client) Configured() bool {
	return c.endpoint != "" && c.token != ""
}

// ProviderError keeps the provider's raw response for diagnostics.
type ProviderError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return "whatsapp request failed: " + string(e.Body)
	}
	return fmt.Sprintf("whatsapp returned status %d: %s", e.StatusCode, string(e.Body))
}

// Raw returns the raw diagnostic payload for err as JSON.
func Raw(err error) json.RawMessage {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) && json.Valid(pe.Body) {
		return pe.Body
	}
	raw, _ := json.Marshal(map[string]string{"error": err.Error()})
	return raw
}

type outbound struct {
	MessagingProduct string     `json:"messaging_product"`
	To               string     `json:"to"`
	Type             string     `json:"type"`
	Image            *imagePart `json:"image,omitempty"`
	Text             *textPart  `json:"text,omitempty"`
}

type imagePart struct {
	Link    string `json:"link"`
	Caption string `json:"caption,omitempty"`
}

type textPart struct {
	Body string `json:"body"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendImage sends an image by public link with a caption. It returns the provider message id.
func (c *Client) SendImage(ctx context.Context, to, link, caption string) (string, error) {
	return c.send(ctx, outbound{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "image",
		Image:            &imagePart{Link: link, Caption: caption},
	})
}

func (c *Client) SendText(ctx context.Context, to, body string) (string, error) {
	return c.send(ctx, outbound{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &textPart{Body: body},
	})
}

func (c *Client) send(ctx context.Context, msg outbound) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ProviderError{StatusCode: resp.StatusCode, Body: rawBody(body)}
	}

	var out sendResponse
	if err := json.Unmarshal(body, &out); err != nil || len(out.Messages) == 0 || out.Messages[0].ID == "" {
		return "", &ProviderError{StatusCode: resp.StatusCode, Body: rawBody(body)}
	}
	return out.Messages[0].ID, nil
}

func rawBody(body []byte) json.RawMessage {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
