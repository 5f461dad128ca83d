package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gojektech/heimdall/v6"
	"github.com/gojektech/heimdall/v6/httpclient"
	"github.com/rs/zerolog"

	"wedding-invitation/internal/models"
)

// DefaultEndpoint is the EmailJS REST endpoint for sending a template
const DefaultEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

type Config struct {
	Endpoint   string
	ServiceID  string
	TemplateID string
	PublicKey  string
	Timeout    time.Duration
	Retries    int
}

// EmailJSSubmitter forwards RSVP submissions to an EmailJS template
type EmailJSSubmitter struct {
	client *httpclient.Client
	cfg    Config
	log    zerolog.Logger
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams models.Submission `json:"template_params"`
}

// NewEmailJSSubmitter creates a submitter. Retries default to zero since a
// retried send can deliver the same RSVP twice.
func NewEmailJSSubmitter(cfg Config, log zerolog.Logger) *EmailJSSubmitter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	backoff := heimdall.NewConstantBackoff(500*time.Millisecond, 5*time.Millisecond)
	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(cfg.Timeout),
		httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
		httpclient.WithRetryCount(cfg.Retries),
	)

	return &EmailJSSubmitter{
		client: client,
		cfg:    cfg,
		log:    log.With().Str("component", "EmailJS").Logger(),
	}
}

// Submit sends one submission. Any transport error or non-2xx response is
// returned as an error.
func (s *EmailJSSubmitter) Submit(ctx context.Context, sub models.Submission) error {
	body, err := json.Marshal(emailJSRequest{
		ServiceID:      s.cfg.ServiceID,
		TemplateID:     s.cfg.TemplateID,
		UserID:         s.cfg.PublicKey,
		TemplateParams: sub,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// heimdall hands back the last response together with the error on 5xx
	resp, err := s.client.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Errorf("failed to send submission: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("submission rejected: %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	s.log.Debug().Str("guest", sub.GuestName).Int("status", resp.StatusCode).Msg("Submission acknowledged")
	return nil
}

// NoopSubmitter acknowledges every submission without sending it anywhere.
// It stands in when no EmailJS key is configured.
type NoopSubmitter struct {
	log zerolog.Logger
}

func NewNoopSubmitter(log zerolog.Logger) *NoopSubmitter {
	return &NoopSubmitter{log: log.With().Str("component", "Submit").Logger()}
}

func (s *NoopSubmitter) Submit(_ context.Context, sub models.Submission) error {
	s.log.Warn().
		Str("guest", sub.GuestName).
		Str("attendance", string(sub.Attendance)).
		Msg("Form submission endpoint not configured, RSVP not forwarded")
	return nil
}
