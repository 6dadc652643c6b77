package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	// TokenStore selects the single-use token store backend: postgres or redis.
	TokenStore string

	AccessTokenSecret  string
	RefreshTokenSecret string
	MagicLinkSecret    string
	InviteTokenSecret  string
	ResetTokenSecret   string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	MagicLinkTTL    time.Duration
	InviteTokenTTL  time.Duration
	ResetTokenTTL   time.Duration

	Issuer         string
	PasswordPepper string

	WebClientURL      string
	RefreshCookiePath string
	CookieDomain      string

	// FederatedGatewaySecret authenticates the identity gateway that verifies
	// federated profiles with the provider. Empty disables the federated route.
	FederatedGatewaySecret string

	HTTPAddress      string
	AllowedOrigins   []string
	AllowCredentials bool

	MailerDriver string // smtp or log
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	LogLevel string
}

var envKeys = []string{
	"DATABASE_URL",
	"REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB",
	"TOKEN_STORE",
	"ACCESS_TOKEN_SECRET", "REFRESH_TOKEN_SECRET", "MAGIC_LINK_SECRET",
	"INVITE_TOKEN_SECRET", "RESET_TOKEN_SECRET",
	"ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "MAGIC_LINK_TTL",
	"INVITE_TOKEN_TTL", "RESET_TOKEN_TTL",
	"JWT_ISSUER", "PASSWORD_PEPPER",
	"WEB_CLIENT_URL", "REFRESH_COOKIE_PATH", "COOKIE_DOMAIN",
	"FEDERATED_GATEWAY_SECRET",
	"HTTP_ADDRESS", "ALLOWED_ORIGINS", "ALLOW_CREDENTIALS",
	"MAILER_DRIVER", "SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME",
	"SMTP_PASSWORD", "SMTP_FROM",
	"LOG_LEVEL",
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	for _, key := range envKeys {
		if err := viper.BindEnv(key); err != nil {
			return nil, err
		}
	}

	viper.SetDefault("TOKEN_STORE", "postgres")
	viper.SetDefault("ACCESS_TOKEN_TTL", "15m")
	viper.SetDefault("REFRESH_TOKEN_TTL", "168h")
	// magic links are meant to be clicked right away
	viper.SetDefault("MAGIC_LINK_TTL", "5m")
	viper.SetDefault("INVITE_TOKEN_TTL", "24h")
	viper.SetDefault("RESET_TOKEN_TTL", "24h")
	viper.SetDefault("REFRESH_COOKIE_PATH", "/auth/refresh")
	viper.SetDefault("HTTP_ADDRESS", ":8080")
	viper.SetDefault("MAILER_DRIVER", "log")
	viper.SetDefault("SMTP_PORT", 587)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:            viper.GetString("DATABASE_URL"),
		RedisAddress:           viper.GetString("REDIS_ADDRESS"),
		RedisPassword:          viper.GetString("REDIS_PASSWORD"),
		RedisDB:                viper.GetInt("REDIS_DB"),
		TokenStore:             viper.GetString("TOKEN_STORE"),
		AccessTokenSecret:      viper.GetString("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret:     viper.GetString("REFRESH_TOKEN_SECRET"),
		MagicLinkSecret:        viper.GetString("MAGIC_LINK_SECRET"),
		InviteTokenSecret:      viper.GetString("INVITE_TOKEN_SECRET"),
		ResetTokenSecret:       viper.GetString("RESET_TOKEN_SECRET"),
		AccessTokenTTL:         viper.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:        viper.GetDuration("REFRESH_TOKEN_TTL"),
		MagicLinkTTL:           viper.GetDuration("MAGIC_LINK_TTL"),
		InviteTokenTTL:         viper.GetDuration("INVITE_TOKEN_TTL"),
		ResetTokenTTL:          viper.GetDuration("RESET_TOKEN_TTL"),
		Issuer:                 viper.GetString("JWT_ISSUER"),
		PasswordPepper:         viper.GetString("PASSWORD_PEPPER"),
		WebClientURL:           viper.GetString("WEB_CLIENT_URL"),
		RefreshCookiePath:      viper.GetString("REFRESH_COOKIE_PATH"),
		CookieDomain:           viper.GetString("COOKIE_DOMAIN"),
		FederatedGatewaySecret: viper.GetString("FEDERATED_GATEWAY_SECRET"),
		HTTPAddress:            viper.GetString("HTTP_ADDRESS"),
		AllowedOrigins:         viper.GetStringSlice("ALLOWED_ORIGINS"),
		AllowCredentials:       viper.GetBool("ALLOW_CREDENTIALS"),
		MailerDriver:           viper.GetString("MAILER_DRIVER"),
		SMTPHost:               viper.GetString("SMTP_HOST"),
		SMTPPort:               viper.GetInt("SMTP_PORT"),
		SMTPUsername:           viper.GetString("SMTP_USERNAME"),
		SMTPPassword:           viper.GetString("SMTP_PASSWORD"),
		SMTPFrom:               viper.GetString("SMTP_FROM"),
		LogLevel:               viper.GetString("LOG_LEVEL"),
	}

	required := map[string]string{
		"DATABASE_URL":         cfg.DatabaseURL,
		"ACCESS_TOKEN_SECRET":  cfg.AccessTokenSecret,
		"REFRESH_TOKEN_SECRET": cfg.RefreshTokenSecret,
		"MAGIC_LINK_SECRET":    cfg.MagicLinkSecret,
		"INVITE_TOKEN_SECRET":  cfg.InviteTokenSecret,
		"RESET_TOKEN_SECRET":   cfg.ResetTokenSecret,
		"WEB_CLIENT_URL":       cfg.WebClientURL,
	}
	for key, val := range required {
		if val == "" {
			return nil, fmt.Errorf("%s is not set", key)
		}
	}

	if cfg.TokenStore != "postgres" && cfg.TokenStore != "redis" {
		return nil, fmt.Errorf("TOKEN_STORE must be postgres or redis, got %q", cfg.TokenStore)
	}
	if cfg.TokenStore == "redis" && cfg.RedisAddress == "" {
		return nil, fmt.Errorf("REDIS_ADDRESS is not set")
	}

	return cfg, nil
}
