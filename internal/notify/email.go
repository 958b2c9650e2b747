// Package notify holds the outbound clients: transactional email, the SMS
// gateway and the invitation image generator. All of them are plain HTTP
// clients; failures are reported to the caller, and the services decide
// whether a failure is fatal or just logged.
package notify

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var emailTemplates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// ConfirmationEmail is the data for an RSVP confirmation, sent after both
// first submissions and edits.
type ConfirmationEmail struct {
	To             string
	ParentName     string
	PartyChildName string
	PartyDate      time.Time
	ChildNames     []string
	AnyAttending   bool
	EditURL        string

	// Updated selects the "svar uppdaterat" copy over the initial
	// confirmation copy.
	Updated bool
}

// Mailer sends transactional email.
type Mailer interface {
	SendConfirmation(ctx context.Context, msg ConfirmationEmail) error
}

// EmailClient talks to a Resend-style transactional email API.
type EmailClient struct {
	BaseURL    string
	APIKey     string
	From       string
	HTTPClient *http.Client
}

func NewEmailClient(baseURL, apiKey, from string) *EmailClient {
	return &EmailClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		From:       from,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendConfirmation renders the confirmation template and posts it to the
// provider.
func (c *EmailClient) SendConfirmation(ctx context.Context, msg ConfirmationEmail) error {
	tmpl := "rsvp_confirmation.html.tmpl"
	subject := fmt.Sprintf("Tack för ditt svar till %ss kalas!", msg.PartyChildName)
	if msg.Updated {
		tmpl = "rsvp_updated.html.tmpl"
		subject = fmt.Sprintf("Ditt svar till %ss kalas är uppdaterat", msg.PartyChildName)
	}

	var body bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&body, tmpl, msg); err != nil {
		return fmt.Errorf("render email template: %w", err)
	}

	payload, err := json.Marshal(emailRequest{
		From:    c.From,
		To:      []string{msg.To},
		Subject: subject,
		HTML:    body.String(),
	})
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}
	return nil
}
