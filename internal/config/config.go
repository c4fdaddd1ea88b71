// Package config reads the service configuration from the environment, with
// an optional .env file loaded first.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/spf13/viper"
)

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("ENV", "dev")
	v.SetDefault("ACCESS_TOKEN_TTL", 6*time.Hour)
	v.SetDefault("REFRESH_TOKEN_TTL", 7*24*time.Hour)
	v.SetDefault("JWT_ISSUER", "tutorhub")
	v.SetDefault("JWT_AUDIENCE", "tutorhub_users")
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("LOG_DIR", "logs")
	v.SetDefault("CRON_ENABLED", true)
	v.SetDefault("OTP_TTL", 2*time.Minute)
}

var keys = []string{
	"PORT", "ENV", "DB_URI", "DEV_DB_URI",
	"SECRET_KEY", "REFRESH_TOKEN_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
	"JWT_ISSUER", "JWT_AUDIENCE",
	"EMAIL", "PASS", "SMTP_HOST", "SMTP_PORT", "SENDGRID_API_KEY",
	"URL_PORT1", "URL_PORT2", "LOG_DIR", "CRON_ENABLED", "OTP_TTL",
}

// Load reads .env (when present) and the process environment
func Load() (models.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return models.Config{}, err
	}
	// godotenv never overrides, so .env.<ENV> only fills what is still unset
	if env := os.Getenv("ENV"); env != "" {
		if err := godotenv.Load(".env." + strings.ToLower(env)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return models.Config{}, err
		}
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	defaults(v)
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (models.Config, error) {
	cfg := models.Config{
		Port: v.GetInt("PORT"),
		Env:  strings.ToLower(v.GetString("ENV")),
		JWT: models.JWTConfig{
			SecretKey:     v.GetString("SECRET_KEY"),
			RefreshSecret: v.GetString("REFRESH_TOKEN_SECRET"),
			Issuer:        v.GetString("JWT_ISSUER"),
			Audience:      v.GetString("JWT_AUDIENCE"),
			Algorithm:     "HS256",
			Expiry:        v.GetDuration("ACCESS_TOKEN_TTL"),
			Refresh:       v.GetDuration("REFRESH_TOKEN_TTL"),
		},
		DB: models.DBConfig{
			DSN:    v.GetString("DB_URI"),
			DEVDSN: v.GetString("DEV_DB_URI"),
		},
		Mail: models.MailConfig{
			From:           v.GetString("EMAIL"),
			Password:       v.GetString("PASS"),
			SMTPHost:       v.GetString("SMTP_HOST"),
			SMTPPort:       v.GetInt("SMTP_PORT"),
			SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
		},
		LogDir:      v.GetString("LOG_DIR"),
		CronEnabled: v.GetBool("CRON_ENABLED"),
		OTPTTL:      v.GetDuration("OTP_TTL"),
	}
	for _, k := range []string{"URL_PORT1", "URL_PORT2"} {
		if origin := v.GetString(k); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	if cfg.JWT.SecretKey == "" || cfg.JWT.RefreshSecret == "" {
		return cfg, errors.New("SECRET_KEY and REFRESH_TOKEN_SECRET must be set")
	}
	dsn := cfg.DB.DEVDSN
	if cfg.Env == "live" {
		dsn = cfg.DB.DSN
	}
	if dsn == "" {
		return cfg, errors.New("database uri is not set for env " + cfg.Env)
	}
	return cfg, nil
}
