package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

const cloudRequestTimeout = 30 * time.Second

// Cloud provisions sessions from a browserless-compatible service. A non-2xx
// response is a hard failure surfaced to the caller; there is deliberately
// no retry here.
type Cloud struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewCloud creates the cloud backend
func NewCloud(baseURL, token string) *Cloud {
	return &Cloud{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: cloudRequestTimeout},
	}
}

func (c *Cloud) Name() string { return "cloud" }

type cloudSessionRequest struct {
	TTL      int      `json:"ttl"` // milliseconds
	Stealth  bool     `json:"stealth"`
	Headless bool     `json:"headless"`
	Args     []string `json:"args"`
}

type cloudSessionResponse struct {
	Connect string `json:"connect"`
}

// Provision requests a fresh session and normalizes the connect endpoint.
func (c *Cloud) Provision(ctx context.Context, ttl int, stealthEnabled bool) (*Descriptor, error) {
	body, err := json.Marshal(cloudSessionRequest{
		TTL:      ttl * 1000,
		Stealth:  stealthEnabled,
		Headless: true,
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-background-timer-throttling",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session config: %w", err)
	}

	url := fmt.Sprintf("%s/session?token=%s", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("browserless request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("browserless API error: %d - %s", resp.StatusCode, detail)
	}

	var parsed cloudSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}
	if parsed.Connect == "" {
		return nil, fmt.Errorf("browserless response missing connect endpoint")
	}

	log.Info("provision: cloud session created", "ttl", ttl)

	return &Descriptor{
		ConnectURL: parsed.Connect,
		TTL:        ttl,
		Backend:    c.Name(),
	}, nil
}

// Release is a no-op for the cloud backend; the provider enforces its own
// TTL and sessions are not renewed.
func (c *Cloud) Release(_ context.Context, _ *Descriptor) error {
	return nil
}
