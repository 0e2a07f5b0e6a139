package email

// Provider names the transport selected by Config.
type Provider string

const (
	ProviderNone     Provider = ""
	ProviderPostmark Provider = "postmark"
	ProviderSMTP     Provider = "smtp"
	ProviderOutbox   Provider = "outbox"
)

// Config holds email transport configuration.
// Postmark wins when its server token is set, SMTP is used when host and
// credentials are set, and OutboxDir writes messages to disk for local runs.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN" json:"postmark_server_token,omitempty"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN" json:"postmark_account_token,omitempty"`

	SMTPHost     string `env:"SMTP_HOST" json:"smtp_host,omitempty"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587" json:"smtp_port,omitempty"`
	SMTPUser     string `env:"SMTP_USER" json:"smtp_user,omitempty"`
	SMTPPassword string `env:"SMTP_PASSWORD" json:"smtp_password,omitempty"`

	OutboxDir string `env:"EMAIL_OUTBOX_DIR" json:"outbox_dir,omitempty"`

	SenderEmail  string `env:"EMAIL_FROM" json:"from,omitempty"`
	SupportEmail string `env:"SUPPORT_EMAIL" json:"support,omitempty"`
	Recipient    string `env:"EMAIL_TO" json:"to,omitempty"`
}

// Provider reports which transport the configuration selects.
func (c Config) Provider() Provider {
	switch {
	case c.PostmarkServerToken != "":
		return ProviderPostmark
	case c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPassword != "":
		return ProviderSMTP
	case c.OutboxDir != "":
		return ProviderOutbox
	default:
		return ProviderNone
	}
}

// Configured reports whether a transport, a sender and a recipient are set.
func (c Config) Configured() bool {
	return c.Provider() != ProviderNone && c.SenderEmail != "" && c.Recipient != ""
}

// New builds the sender selected by Provider.
func New(cfg Config) (EmailSender, error) {
	switch cfg.Provider() {
	case ProviderPostmark:
		return NewPostmarkClient(cfg)
	case ProviderSMTP:
		return NewSMTPClient(cfg)
	case ProviderOutbox:
		return NewDevSender(cfg.OutboxDir), nil
	default:
		return nil, ErrNotConfigured
	}
}
