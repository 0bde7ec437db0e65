package config

import "time"

// CLIConfig is the configuration for dashlink.
type CLIConfig struct {
	Server   string        `koanf:"server" yaml:"server"`
	APIPath  string        `koanf:"api_path" yaml:"api_path"`
	BasePath string        `koanf:"base_path" yaml:"base_path"`
	Location string        `koanf:"location" yaml:"location"`
	Timeout  time.Duration `koanf:"timeout" yaml:"timeout"`
	Output   string        `koanf:"output" yaml:"output"` // table, json, yaml

	Expiry  ExpirySection  `koanf:"expiry" yaml:"expiry"`
	Storage StorageSection `koanf:"storage" yaml:"storage"`
	Log     LogSection     `koanf:"log" yaml:"log"`
	Metrics MetricsSection `koanf:"metrics" yaml:"metrics"`
	TLS     TLSSection     `koanf:"tls" yaml:"tls"`
}

// ExpirySection tunes session-expiry handling.
type ExpirySection struct {
	RedirectDelay time.Duration `koanf:"redirect_delay" yaml:"redirect_delay"`
	ToastDuration time.Duration `koanf:"toast_duration" yaml:"toast_duration"`
}

// StorageSection names the session keys and selects the stores.
type StorageSection struct {
	TokenKey  string         `koanf:"token_key" yaml:"token_key"`
	UserKey   string         `koanf:"user_key" yaml:"user_key"`
	ReturnKey string         `koanf:"return_key" yaml:"return_key"`
	Durable   DurableSection `koanf:"durable" yaml:"durable"`
	Session   SessionSection `koanf:"session" yaml:"session"`
}

// DurableSection configures the store that outlives the process.
type DurableSection struct {
	Backend       string `koanf:"backend" yaml:"backend"` // badger, memory
	Dir           string `koanf:"dir" yaml:"dir"`
	EncryptionKey string `koanf:"encryption_key" yaml:"encryption_key"` // hex, 32 bytes
}

// SessionSection configures the short-lived store.
type SessionSection struct {
	Backend string        `koanf:"backend" yaml:"backend"` // memory, redis
	TTL     time.Duration `koanf:"ttl" yaml:"ttl"`
	Redis   RedisSection  `koanf:"redis" yaml:"redis"`
}

// RedisSection configures the redis session backend.
type RedisSection struct {
	Addr     string `koanf:"addr" yaml:"addr"`
	DB       int    `koanf:"db" yaml:"db"`
	Password string `koanf:"password" yaml:"password"`
	Prefix   string `koanf:"prefix" yaml:"prefix"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// MetricsSection configures the Prometheus endpoint. Empty Addr disables it.
type MetricsSection struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// TLSSection configures the client transport.
type TLSSection struct {
	CAFile string `koanf:"ca_file" yaml:"ca_file"`
}

// Storage backends.
const (
	BackendBadger = "badger"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:   "http://localhost:18080",
		APIPath:  "/api",
		BasePath: "/",
		Location: "/",
		Timeout:  30 * time.Second,
		Output:   "table",
		Expiry: ExpirySection{
			RedirectDelay: 1500 * time.Millisecond,
			ToastDuration: 1800 * time.Millisecond,
		},
		Storage: StorageSection{
			TokenKey:  "auth_token",
			UserKey:   "auth_user",
			ReturnKey: "returnUrl",
			Durable: DurableSection{
				Backend: BackendBadger,
				Dir:     "~/.dashlink/data",
			},
			Session: SessionSection{
				Backend: BackendMemory,
				TTL:     30 * time.Minute,
				Redis: RedisSection{
					Addr:   "localhost:6379",
					Prefix: "dashlink:",
				},
			},
		},
		Log: LogSection{
			Level:  "warn",
			Format: "text",
		},
	}
}
