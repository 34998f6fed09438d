package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jubileepta/rafflemail/internal/email"
)

// Config holds all configuration for the application
type Config struct {
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Mail     MailConfig     `mapstructure:"mail"`
	Winners  WinnersConfig  `mapstructure:"winners"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
	Branding BrandingConfig `mapstructure:"branding"`
	Log      LogConfig      `mapstructure:"log"`
}

// SMTPConfig holds the outgoing mail server and account.
// Username and Password come from GMAIL_USER and GMAIL_APP_PASSWORD.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// FromAddress is the "From" address; the account address when empty
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	ReplyTo     string `mapstructure:"reply_to"`
}

// Mailer converts the section into the mailer's construction config.
func (c SMTPConfig) Mailer() email.SMTPConfig {
	return email.SMTPConfig{
		Host:        c.Host,
		Port:        c.Port,
		Username:    c.Username,
		Password:    c.Password,
		FromAddress: c.FromAddress,
		FromName:    c.FromName,
		ReplyTo:     c.ReplyTo,
	}
}

// MailConfig holds batch sending policy
type MailConfig struct {
	// SendDelay is the pause between two consecutive sends
	SendDelay time.Duration `mapstructure:"send_delay"`
}

// WinnersConfig holds CSV row policy
type WinnersConfig struct {
	// SkipEmptyEmail skips rows without an address instead of aborting
	SkipEmptyEmail bool `mapstructure:"skip_empty_email"`
}

// TrackerConfig locates the tracker page
type TrackerConfig struct {
	// Path overrides the default <csv dir>/../raffle-tracker.html
	Path string `mapstructure:"path"`
}

// BrandingConfig holds the wording used in winner emails
type BrandingConfig struct {
	FairName       string `mapstructure:"fair_name"`
	Cause          string `mapstructure:"cause"`
	ContactAddress string `mapstructure:"contact_address"`
	CollectionNote string `mapstructure:"collection_note"`
	ClaimBy        string `mapstructure:"claim_by"`
	Signature      string `mapstructure:"signature"`
}

// Email converts the section into composer branding.
func (c BrandingConfig) Email() email.Branding {
	return email.Branding{
		FairName:       c.FairName,
		Cause:          c.Cause,
		ContactAddress: c.ContactAddress,
		CollectionNote: c.CollectionNote,
		ClaimBy:        c.ClaimBy,
		Signature:      c.Signature,
	}
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from .env, an optional config file and environment variables
func Load() (*Config, error) {
	// .env is optional; variables already in the environment win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("RAFFLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials keep their conventional names
	if err := v.BindEnv("smtp.username", "GMAIL_USER"); err != nil {
		return nil, fmt.Errorf("failed to bind GMAIL_USER: %w", err)
	}
	if err := v.BindEnv("smtp.password", "GMAIL_APP_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind GMAIL_APP_PASSWORD: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Mail.SendDelay < 0 {
		return nil, fmt.Errorf("mail.send_delay must not be negative, got %s", cfg.Mail.SendDelay)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// SMTP defaults
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from_address", "")
	v.SetDefault("smtp.from_name", "Jubilee PTA Raffle")
	v.SetDefault("smtp.reply_to", "raffle@jubileepta.org.uk")

	// Sending policy defaults
	v.SetDefault("mail.send_delay", "1s")
	v.SetDefault("winners.skip_empty_email", true)
	v.SetDefault("tracker.path", "")

	// Branding defaults
	b := email.DefaultBranding()
	v.SetDefault("branding.fair_name", b.FairName)
	v.SetDefault("branding.cause", b.Cause)
	v.SetDefault("branding.contact_address", b.ContactAddress)
	v.SetDefault("branding.collection_note", b.CollectionNote)
	v.SetDefault("branding.claim_by", b.ClaimBy)
	v.SetDefault("branding.signature", b.Signature)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}
