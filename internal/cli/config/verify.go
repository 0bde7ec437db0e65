package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yndnr/dashlink/internal/cli/output"
	"github.com/yndnr/dashlink/internal/core/domain"
	"github.com/yndnr/dashlink/internal/storage"
)

// Verify validates the configuration.
func Verify(cfg *CLIConfig) error {
	if err := verifyClient(cfg); err != nil {
		return domain.ErrInvalidConfig.WithCause(err).WithDetails(err.Error())
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return domain.ErrInvalidConfig.WithCause(err).WithDetails(err.Error())
	}
	return nil
}

func verifyClient(cfg *CLIConfig) error {
	u, err := url.Parse(cfg.Server)
	if err != nil || (u.Host == "" && u.Scheme != "unix") {
		return fmt.Errorf("server %q is not a URL", cfg.Server)
	}
	switch u.Scheme {
	case "http", "https", "unix":
	default:
		return fmt.Errorf("server scheme %q not supported", u.Scheme)
	}
	if !strings.HasPrefix(cfg.BasePath, "/") {
		return fmt.Errorf("base_path must start with /")
	}
	if cfg.APIPath != "" && !strings.HasPrefix(cfg.APIPath, "/") {
		return fmt.Errorf("api_path must start with /")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if cfg.Expiry.RedirectDelay <= 0 {
		return fmt.Errorf("expiry.redirect_delay must be positive")
	}
	if cfg.Expiry.ToastDuration <= 0 {
		return fmt.Errorf("expiry.toast_duration must be positive")
	}
	if _, err := output.ParseFormat(cfg.Output); err != nil {
		return err
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.TokenKey == "" || cfg.UserKey == "" || cfg.ReturnKey == "" {
		return fmt.Errorf("storage keys must not be empty")
	}

	switch cfg.Durable.Backend {
	case BackendBadger:
		if cfg.Durable.Dir == "" {
			return fmt.Errorf("storage.durable.dir is required for badger")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown durable backend %q", cfg.Durable.Backend)
	}
	if cfg.Durable.EncryptionKey != "" {
		if _, err := storage.ParseKey(cfg.Durable.EncryptionKey); err != nil {
			return fmt.Errorf("storage.durable.encryption_key: %w", err)
		}
	}

	switch cfg.Session.Backend {
	case BackendMemory:
	case BackendRedis:
		if cfg.Session.Redis.Addr == "" {
			return fmt.Errorf("storage.session.redis.addr is required")
		}
	default:
		return fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
	if cfg.Session.TTL < 0 {
		return fmt.Errorf("storage.session.ttl must not be negative")
	}
	return nil
}

// Sanitize returns a copy of the config with secrets masked, for display.
func Sanitize(cfg *CLIConfig) *CLIConfig {
	sanitized := *cfg
	if sanitized.Storage.Durable.EncryptionKey != "" {
		sanitized.Storage.Durable.EncryptionKey = maskSecret(sanitized.Storage.Durable.EncryptionKey)
	}
	if sanitized.Storage.Session.Redis.Password != "" {
		sanitized.Storage.Session.Redis.Password = maskSecret(sanitized.Storage.Session.Redis.Password)
	}
	return &sanitized
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
