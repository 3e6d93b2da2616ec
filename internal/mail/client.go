package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Client posts messages to an HTTP mail gateway.
type Client struct {
	gatewayURL string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient creates a mail gateway client with the specified timeout.
func NewClient(gatewayURL string, timeoutMS int) *Client {
	timeout := time.Duration(timeoutMS) * time.Millisecond
	return &Client{
		gatewayURL: gatewayURL,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// gatewayPayload represents the JSON payload sent to the mail gateway
type gatewayPayload struct {
	To       string            `json:"to"`
	Template string            `json:"template"`
	Data     map[string]string `json:"data,omitempty"`
}

// Send delivers one message through the gateway. Failures are logged at WARN
// and returned so callers can record them, but they carry no token or other
// secret material.
func (c *Client) Send(ctx context.Context, recipient string, kind Kind, data map[string]string) error {
	payload := gatewayPayload{
		To:       recipient,
		Template: string(kind),
		Data:     data,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		log.Warn().Err(err).Str("template", string(kind)).Msg("Failed to marshal mail payload")
		return fmt.Errorf("failed to marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewBuffer(jsonData))
	if err != nil {
		log.Warn().Err(err).Str("template", string(kind)).Msg("Failed to create mail request")
		return fmt.Errorf("failed to create mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().
			Err(err).
			Str("template", string(kind)).
			Dur("timeout", c.timeout).
			Msg("Failed to send mail")
		return fmt.Errorf("failed to send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Warn().
			Int("status_code", resp.StatusCode).
			Str("template", string(kind)).
			Msg("Mail gateway returned an error")
		return fmt.Errorf("mail gateway returned status %d", resp.StatusCode)
	}

	log.Info().Str("template", string(kind)).Msg("Mail sent")
	return nil
}
