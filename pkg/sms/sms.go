package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxLength is the number of runes a single SMS body may hold.
const MaxLength = 160

// Sender delivers a short text message to a phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// DefaultSender is the originator used when none is configured.
const DefaultSender = "10008663"

// Config holds provider credentials. Basic-auth credentials (AccountSID and
// AuthToken) take precedence over APIKey when both are present.
type Config struct {
	APIKey     string `env:"SMS_API_KEY" json:"api_key,omitempty"`
	AccountSID string `env:"SMS_ACCOUNT_SID" json:"account_sid,omitempty"`
	AuthToken  string `env:"SMS_AUTH_TOKEN" json:"auth_token,omitempty"`
	Sender     string `env:"SMS_SENDER" envDefault:"10008663" json:"sender,omitempty"`
	BaseURL    string `env:"SMS_BASE_URL" json:"base_url,omitempty"`
}

// Provider reports which protocol the config selects, or "" when unconfigured.
func (c Config) Provider() string {
	switch {
	case c.AccountSID != "" && c.AuthToken != "":
		return ProviderBasicAuth
	case c.APIKey != "":
		return ProviderForm
	default:
		return ""
	}
}

const (
	ProviderForm      = "form"
	ProviderBasicAuth = "basic_auth"

	defaultFormBaseURL      = "https://api.kavenegar.com"
	defaultBasicAuthBaseURL = "https://api.twilio.com"
)

// New picks the provider protocol from the credentials present in cfg.
func New(cfg Config, client *http.Client) (Sender, error) {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	switch cfg.Provider() {
	case ProviderBasicAuth:
		base := cfg.BaseURL
		if base == "" {
			base = defaultBasicAuthBaseURL
		}
		return &basicAuthSender{cfg: cfg, base: strings.TrimRight(base, "/"), client: client}, nil
	case ProviderForm:
		base := cfg.BaseURL
		if base == "" {
			base = defaultFormBaseURL
		}
		return &formSender{cfg: cfg, base: strings.TrimRight(base, "/"), client: client}, nil
	default:
		return nil, ErrNotConfigured
	}
}

// Truncate shortens body to MaxLength runes, ending with "..." when cut.
func Truncate(body string) string {
	if utf8.RuneCountInString(body) <= MaxLength {
		return body
	}
	runes := []rune(body)
	return string(runes[:MaxLength-3]) + "..."
}

// formSender posts form-encoded values with the API key in the URL path.
type formSender struct {
	cfg    Config
	base   string
	client *http.Client
}

func (s *formSender) Send(ctx context.Context, to, body string) error {
	if to == "" {
		return ErrMissingRecipient
	}
	endpoint := fmt.Sprintf("%s/v1/%s/sms/send.json", s.base, url.PathEscape(s.cfg.APIKey))
	form := url.Values{
		"sender":   {s.cfg.Sender},
		"receptor": {to},
		"message":  {Truncate(body)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("sms: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(s.client, req)
}

// basicAuthSender posts to a REST messages resource authenticated with the
// account SID and auth token.
type basicAuthSender struct {
	cfg    Config
	base   string
	client *http.Client
}

func (s *basicAuthSender) Send(ctx context.Context, to, body string) error {
	if to == "" {
		return ErrMissingRecipient
	}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.base, url.PathEscape(s.cfg.AccountSID))
	form := url.Values{
		"To":   {to},
		"From": {s.cfg.Sender},
		"Body": {Truncate(body)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("sms: build request: %w", err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(s.client, req)
}

func do(client *http.Client, req *http.Request) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: provider returned %s: %s", ErrDeliveryFailed, resp.Status, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
