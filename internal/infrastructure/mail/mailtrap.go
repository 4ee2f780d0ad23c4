package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultAPIURL = "https://send.api.mailtrap.io/api/send"

// welcomeTemplateUUID identifies the hosted Mailtrap template used for the
// welcome mail; the other three mails send inline HTML.
const welcomeTemplateUUID = "b1eaedbc-7bbc-4810-b79e-a26f5a4c2c03"

// Config captures the settings for the Mailtrap sending API.
type Config struct {
	Token       string
	SenderEmail string
	SenderName  string
	APIURL      string // defaults to the Mailtrap send endpoint
}

// Mailtrap delivers the lifecycle emails through the Mailtrap HTTP API.
type Mailtrap struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
}

func NewMailtrap(cfg Config, log zerolog.Logger) *Mailtrap {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	return &Mailtrap{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendRequest struct {
	From              address           `json:"from"`
	To                []address         `json:"to"`
	Subject           string            `json:"subject,omitempty"`
	HTML              string            `json:"html,omitempty"`
	Category          string            `json:"category,omitempty"`
	TemplateUUID      string            `json:"template_uuid,omitempty"`
	TemplateVariables map[string]string `json:"template_variables,omitempty"`
}

func (m *Mailtrap) SendVerification(ctx context.Context, email, code string) error {
	return m.send(ctx, sendRequest{
		To:       []address{{Email: email}},
		Subject:  "Verify your email",
		HTML:     strings.Replace(verificationTemplate, "{verificationCode}", code, 1),
		Category: "Email Verification",
	})
}

func (m *Mailtrap) SendWelcome(ctx context.Context, email, name string) error {
	return m.send(ctx, sendRequest{
		To:           []address{{Email: email}},
		TemplateUUID: welcomeTemplateUUID,
		TemplateVariables: map[string]string{
			"company_info_name": "Auth Company",
			"name":              name,
		},
	})
}

func (m *Mailtrap) SendPasswordReset(ctx context.Context, email, resetURL string) error {
	return m.send(ctx, sendRequest{
		To:       []address{{Email: email}},
		Subject:  "Reset your password",
		HTML:     strings.Replace(passwordResetTemplate, "{resetURL}", resetURL, 1),
		Category: "Password Reset",
	})
}

func (m *Mailtrap) SendResetSuccess(ctx context.Context, email string) error {
	return m.send(ctx, sendRequest{
		To:       []address{{Email: email}},
		Subject:  "Password Reset Successful",
		HTML:     passwordResetSuccessTemplate,
		Category: "Password Reset",
	})
}

func (m *Mailtrap) send(ctx context.Context, req sendRequest) error {
	req.From = address{Email: m.cfg.SenderEmail, Name: m.cfg.SenderName}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("mailtrap: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mailtrap: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+m.cfg.Token)

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("mailtrap: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mailtrap: send: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
