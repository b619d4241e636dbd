package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"VERSION" default:"dev"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// CodeHashSecret keys the HMAC over client codes. Changing it orphans
	// every stored code hash.
	CodeHashSecret string `envconfig:"CODE_HASH_SECRET" required:"true"`

	// SessionSecret signs session, pending-join and active-project tokens.
	SessionSecret string `envconfig:"SESSION_SECRET" required:"true"`

	// AdminEmails is a comma-separated allow-list of agency operator
	// addresses. Members of this list are bound as agency_admin on join.
	AdminEmails []string `envconfig:"ADMIN_EMAILS" default:""`

	BootstrapSecret string `envconfig:"BOOTSTRAP_SECRET" default:""`
	BcryptCost      int    `envconfig:"BCRYPT_COST" default:"12"`

	SendgridAPIKey string `envconfig:"SENDGRID_API_KEY" default:""`
	MailFrom       string `envconfig:"MAIL_FROM" default:"portal@example.com"`
	SiteURL        string `envconfig:"SITE_URL" default:"http://localhost:8080"`

	S3Bucket           string `envconfig:"S3_BUCKET" default:""`
	AWSRegion          string `envconfig:"AWS_REGION" default:"us-east-1"`
	AWSAccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID" default:""`
	AWSSecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY" default:""`
	PresignExpiryMin   int    `envconfig:"PRESIGN_EXPIRY_MINUTES" default:"15"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
